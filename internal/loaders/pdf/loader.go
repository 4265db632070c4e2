// Package pdf loads text from PDF files on disk.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/piyushgoswami015/CorthyxAI/internal/core/domain"
	"github.com/piyushgoswami015/CorthyxAI/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// pdfMagic is the header every PDF file starts with.
const pdfMagic = "%PDF-"

// Loader extracts plain text from PDF files.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// Type returns the source type this loader handles.
func (l *Loader) Type() domain.SourceType {
	return domain.SourcePDF
}

// Load reads the PDF at path and returns its plain text. Inputs that
// are not PDF files fail the type check before any parsing happens.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkPDF(path); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := reader.NumPage()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	filename := filepath.Base(path)
	return &domain.Document{
		Content: buf.String(),
		Title:   strings.TrimSuffix(filename, filepath.Ext(filename)),
		Metadata: map[string]any{
			driven.MetaPages: pages,
		},
	}, nil
}

// checkPDF verifies the file exists and carries the PDF magic header.
// Extension alone is not trusted; a renamed file still fails here.
func checkPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%w: %s is not a PDF file", domain.ErrUnsupportedType, path)
	}
	if string(header) != pdfMagic {
		return fmt.Errorf("%w: %s is not a PDF file", domain.ErrUnsupportedType, path)
	}
	return nil
}
