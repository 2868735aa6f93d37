package tabular

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedUpload is returned for uploads that are not delimited text.
var ErrUnsupportedUpload = errors.New("unsupported upload type")

// acceptedUploads are the detected types treated as delimited text.
var acceptedUploads = []string{
	"text/csv",
	"text/tab-separated-values",
	"text/plain",
}

// DetectUpload sniffs the first bytes of an upload and returns its MIME type.
// Anything that is not delimited text (spreadsheets, archives, images) is
// rejected before parsing.
func DetectUpload(head []byte) (string, error) {
	if len(head) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedUpload)
	}

	mt := mimetype.Detect(head)

	for _, accepted := range acceptedUploads {
		if mt.Is(accepted) {
			return mt.String(), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedUpload, mt.String())
}

// DelimiterFor picks the field separator for a detected MIME type.
func DelimiterFor(mime string) rune {
	if strings.HasPrefix(mime, "text/tab-separated-values") {
		return '\t'
	}

	return ','
}
