package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoTextLayer is returned for PDFs that decode but carry no text, such
// as scans.
var ErrNoTextLayer = errors.New("pdf has no text layer")

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// ExtractText decodes the text layer of a PDF page by page.
func (s *PDFService) ExtractText(data []byte) (text string, err error) {
	// the decoder panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("decode pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoTextLayer
	}
	return b.String(), nil
}
