// Package textproducer turns uploaded documents into plain text. Producers
// shell out to the host OCR and PDF tooling; the rest of the system only
// sees UTF-8 text and never touches the document bytes again.
package textproducer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrProducer wraps every failure to derive text from a document, so
// callers can distinguish "the document was unreadable" from their own
// errors.
var ErrProducer = errors.New("text production failed")

// Producer derives plain text from a document stored on disk.
type Producer interface {
	// Produce extracts the text of the file at path.
	Produce(ctx context.Context, path string) (string, error)

	// Supports reports whether the producer can handle the MIME type.
	Supports(mimeType string) bool
}

// Tesseract runs the tesseract OCR binary over image uploads.
type Tesseract struct {
	// Bin is the tesseract executable, defaults to "tesseract".
	Bin string
}

func (t *Tesseract) bin() string {
	if t.Bin != "" {
		return t.Bin
	}
	return "tesseract"
}

func (t *Tesseract) Supports(mimeType string) bool {
	switch normalizeMIME(mimeType) {
	case "image/png", "image/jpeg", "image/tiff", "image/bmp", "image/webp":
		return true
	}
	return false
}

// Produce OCRs the image at path. Output goes to stdout ("-" output base)
// so no sidecar files are left behind.
func (t *Tesseract) Produce(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProducer, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.bin(), path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: tesseract %s: %v: %s", ErrProducer, filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// PDFText runs the pdftotext binary over PDF uploads.
type PDFText struct {
	// Bin is the pdftotext executable, defaults to "pdftotext".
	Bin string
}

func (p *PDFText) bin() string {
	if p.Bin != "" {
		return p.Bin
	}
	return "pdftotext"
}

func (p *PDFText) Supports(mimeType string) bool {
	return normalizeMIME(mimeType) == "application/pdf"
}

// Produce extracts the text layer of the PDF at path. Layout mode keeps
// statement columns on their original lines, which the extraction engine's
// line-based structure pass depends on.
func (p *PDFText) Produce(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProducer, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.bin(), "-layout", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: pdftotext %s: %v: %s", ErrProducer, filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Registry selects a producer by MIME type.
type Registry struct {
	producers []Producer
}

func NewRegistry(producers ...Producer) *Registry {
	return &Registry{producers: producers}
}

// ForMIME returns the first producer supporting the MIME type.
func (r *Registry) ForMIME(mimeType string) (Producer, error) {
	for _, p := range r.producers {
		if p.Supports(mimeType) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported media type %q", ErrProducer, mimeType)
}

// normalizeMIME strips parameters like "; charset=binary" and lowercases
// the type.
func normalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
