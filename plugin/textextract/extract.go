// Package textextract converts uploaded document bytes into plain text used
// to ground chat answers.
package textextract

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// FileType is the declared type of an uploaded file.
type FileType int

const (
	FileTypeUnsupported FileType = iota
	FileTypeText
	FileTypeMarkdown
	FileTypePDF
)

func (t FileType) String() string {
	switch t {
	case FileTypeText:
		return "text"
	case FileTypeMarkdown:
		return "markdown"
	case FileTypePDF:
		return "pdf"
	}
	return "unsupported"
}

// ErrUnsupportedFileType is returned for file types extraction cannot handle.
// Callers treat it as a per-file warning, not a batch failure.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// DetectFileType maps a file name to its declared type by extension.
func DetectFileType(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FileTypeText
	case ".md":
		return FileTypeMarkdown
	case ".pdf":
		return FileTypePDF
	}
	return FileTypeUnsupported
}

// Extract converts one file's bytes into plain text. A failure yields empty
// text and an error the caller surfaces as a warning; it never aborts the
// rest of an upload batch.
func Extract(data []byte, fileType FileType) (string, error) {
	switch fileType {
	case FileTypeText, FileTypeMarkdown:
		// Invalid byte sequences degrade to replacement characters instead
		// of failing the whole file.
		return strings.ToValidUTF8(string(data), "�"), nil
	case FileTypePDF:
		return extractPDF(data)
	}
	return "", ErrUnsupportedFileType
}

// extractPDF concatenates per-page text in page order. A page with no
// extractable text contributes an empty string.
func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse pdf")
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}
