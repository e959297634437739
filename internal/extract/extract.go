// Package extract turns uploaded binaries into plain text. It dispatches on
// the file extension: PDF through ledongthuc/pdf, Word through docconv.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"tenderquote/internal/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("corrupt document")
)

// Allowed extensions per document category. Templates are always Word files
// because their structure seeds the generated offer.
var allowedExtensions = map[string][]string{
	model.DocumentTypeTender:   {".pdf", ".docx", ".doc"},
	model.DocumentTypeTemplate: {".docx", ".doc"},
}

// Supported reports whether ext can be extracted when uploaded under the
// given category.
func Supported(category, ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range allowedExtensions[category] {
		if ext == allowed {
			return true
		}
	}
	return false
}

// AllowedExtensions lists the accepted extensions for a category.
func AllowedExtensions(category string) []string {
	return allowedExtensions[category]
}

// Text extracts plain text from the file at path. The extension decides the
// parser; parser failures are reported as ErrCorruptDocument.
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".doc":
		return docText(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func pdfText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf failed: %w", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return string(out), nil
}

func docxText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx failed: %w", err)
	}
	defer f.Close()

	body, _, err := docconv.ConvertDocx(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return body, nil
}

func docText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open doc failed: %w", err)
	}
	defer f.Close()

	body, _, err := docconv.ConvertDoc(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return body, nil
}
