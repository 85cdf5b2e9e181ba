// Package docinfo inspects uploaded credential files before they are stored.
package docinfo

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"academic-auth-be/pkg/processing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrContentMismatch = errors.New("file content does not match its extension")
	ErrUnreadablePDF   = errors.New("pdf could not be read")
)

var expectedMIME = map[string]string{
	"PDF":  "application/pdf",
	"JPG":  "image/jpeg",
	"JPEG": "image/jpeg",
	"PNG":  "image/png",
}

// Info describes an uploaded file.
type Info struct {
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
	Pages       int    `json:"pages"`
}

// Inspect sniffs the content type of data, checks it against the file
// extension, hashes it and counts PDF pages.
func Inspect(name string, data []byte) (Info, error) {
	ext := processing.Extension(name)
	sum := sha256.Sum256(data)
	info := Info{
		Name:      name,
		Extension: ext,
		Size:      int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
		Pages:     1,
	}

	detected := mimetype.Detect(data)
	info.ContentType = detected.String()
	if want, ok := expectedMIME[ext]; ok && !detected.Is(want) {
		return info, fmt.Errorf("%w: %s is %s", ErrContentMismatch, name, detected.String())
	}

	if detected.Is("application/pdf") {
		pages, err := PageCount(data)
		if err != nil {
			return info, err
		}
		info.Pages = pages
	}
	return info, nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	return n, nil
}
