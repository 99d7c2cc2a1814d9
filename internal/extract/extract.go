package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat rejects everything that is not .pdf or .docx.
	ErrUnsupportedFormat = errors.New("unsupported file format, only .pdf and .docx are accepted")
	// ErrExtractionFailed wraps parse failures from the underlying libraries.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// Text converts raw document bytes into plain text, dispatching on the
// case-insensitive filename extension.
func Text(data []byte, filename string) (string, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return pdfText(data)
	case strings.HasSuffix(lower, ".docx"):
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// pdfText concatenates the plain text of every page in document order.
// Pages without extractable text contribute nothing.
func pdfText(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, i, err)
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

// docxText concatenates every paragraph's text followed by a newline,
// in document order.
func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(para.String())
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
