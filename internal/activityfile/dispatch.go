package activityfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Parse picks a parser by the lower-cased filename extension. Matching is
// extension-based only; there is no content sniffing.
func Parse(filename string, data []byte) (*ParsedActivity, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "gpx":
		return ParseGPX(data)
	case "tcx":
		return ParseTCX(data)
	case "fit":
		return ParseFIT(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
