package activityfile

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// Parse failures are container-level only; individually malformed points are
// dropped and parsing continues. The orchestrator records these on the
// session row instead of failing the upload.
var (
	// ErrUnsupportedFormat: the filename extension maps to no parser.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDecode: the byte stream is not valid text/binary for the format.
	ErrDecode = errors.New("decode error")
	// ErrMalformedContainer: decodable bytes, but the format's structural
	// requirements are violated (wrong root element, no activity block).
	ErrMalformedContainer = errors.New("malformed container")
	// ErrNoDataPoints: every point failed validation and the file carries
	// no summary data either.
	ErrNoDataPoints = errors.New("no usable data points")
)

// classifyXMLError maps encoding/xml failures onto the parse taxonomy:
// syntax errors mean undecodable bytes, anything else (such as an unexpected
// root element) means a structurally invalid file.
func classifyXMLError(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
}
