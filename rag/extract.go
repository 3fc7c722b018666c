package rag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrDocumentNotFound means the path does not resolve to a file.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnreadableDocument means the file exists but could not be parsed.
	ErrUnreadableDocument = errors.New("document could not be read")
	// ErrNoText means parsing succeeded but yielded no text.
	ErrNoText = errors.New("no text extracted")
)

// TextExtractor turns a document path into raw text. Failures are reported
// through the sentinel errors above so callers can branch on cause.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// PDFExtractor extracts plain text from a PDF on disk.
type PDFExtractor struct{}

// Extract reads the PDF at path and returns its concatenated plain text.
func (PDFExtractor) Extract(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	text := buf.String()
	if NormalizeText(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}
	return text, nil
}
