package activityfile

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDispatchByExtension(t *testing.T) {
	if _, err := Parse("ride.GPX", []byte(gpxThreePoints)); err != nil {
		t.Fatalf("expected gpx dispatch to succeed, got %v", err)
	}
	if _, err := Parse("workout.tcx", []byte(tcxSummaryOnly)); err != nil {
		t.Fatalf("expected tcx dispatch to succeed, got %v", err)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	_, err := Parse("ride.xyz", []byte("whatever"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "xyz") {
		t.Fatalf("error should name the extension: %v", err)
	}

	_, err = Parse("noextension", nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for missing extension, got %v", err)
	}
}
