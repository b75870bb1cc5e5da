package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("content type must be application/pdf")
)

// allowedTypes mirrors what browsers and legacy clients send for PDF
// uploads.
var allowedTypes = map[string]bool{
	"application/pdf":     true,
	"application/x-pdf":   true,
	"binary/octet-stream": true,
}

const defaultMaxFileSize = 10 * 1024 * 1024

// Service validates uploaded documents and counts their pages before they
// reach the queue. The queue itself never sees unvalidated input.
type Service struct {
	maxFileSize int64
}

func NewService(maxFileSize int64) *Service {
	if maxFileSize < 1 {
		maxFileSize = defaultMaxFileSize
	}
	return &Service{maxFileSize: maxFileSize}
}

// Inspect checks the upload's media type and size and returns its page
// count.
func (s *Service) Inspect(contentType string, data []byte) (int, error) {
	if !allowedTypes[contentType] {
		return 0, ErrUnsupportedType
	}
	if len(data) == 0 {
		return 0, ErrEmptyFile
	}
	if int64(len(data)) > s.maxFileSize {
		return 0, fmt.Errorf("%w (>%d bytes)", ErrFileTooLarge, s.maxFileSize)
	}
	return PageCount(data)
}

// PageCount parses data as a PDF and returns the number of pages. The parser
// panics on some malformed inputs, so those are recovered into an error.
func PageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("invalid PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}

	pages = reader.NumPage()
	if pages < 1 {
		return 0, errors.New("invalid PDF: document has no pages")
	}
	return pages, nil
}
