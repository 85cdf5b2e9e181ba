package processing

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	MaxFileSizeMB = 10
	MaxFileSize   = MaxFileSizeMB * 1024 * 1024
)

// AllowedFormats are the accepted upper-cased file extensions.
var AllowedFormats = []string{"PDF", "JPG", "PNG", "JPEG"}

// File is one binary blob supplied by the file-selection collaborator.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// FileInfo is the metadata of a File exposed in snapshots.
type FileInfo struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

func (f File) Info() FileInfo {
	return FileInfo{Name: f.Name, Size: f.Size, ContentType: f.ContentType}
}

// Extension returns the upper-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ValidateFile checks the extension and size ceiling of a single file.
func ValidateFile(name string, size int64) error {
	ext := Extension(name)
	allowed := false
	for _, f := range AllowedFormats {
		if f == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		if ext == "" {
			ext = "unknown"
		}
		return fmt.Errorf("%w: %s. Please use %s", ErrUnsupportedFormat, ext, strings.Join(AllowedFormats, ", "))
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %.1fMB. Maximum size is %dMB", ErrFileTooLarge, float64(size)/(1024*1024), MaxFileSizeMB)
	}
	return nil
}

// Rejection describes a file dropped by FilterFiles.
type Rejection struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// FilterFiles splits files into the ones that may be submitted and the ones
// the user must reselect.
func FilterFiles(files []File) ([]File, []Rejection) {
	valid := make([]File, 0, len(files))
	var rejected []Rejection
	for _, f := range files {
		if err := ValidateFile(f.Name, f.Size); err != nil {
			rejected = append(rejected, Rejection{Name: f.Name, Message: rejectionMessage(err)})
			continue
		}
		valid = append(valid, f)
	}
	return valid, rejected
}

func rejectionMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, ErrUnsupportedFormat.Error()):
		return "Unsupported file format" + strings.TrimPrefix(msg, ErrUnsupportedFormat.Error())
	case strings.HasPrefix(msg, ErrFileTooLarge.Error()):
		return "File size too large" + strings.TrimPrefix(msg, ErrFileTooLarge.Error())
	}
	return msg
}
