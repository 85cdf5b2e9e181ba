package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const mb = 1024 * 1024

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr error
	}{
		{name: "9MB pdf", file: "transcript.pdf", size: 9 * mb},
		{name: "9MB png", file: "diploma.PNG", size: 9 * mb},
		{name: "jpeg", file: "scan.jpeg", size: 2 * mb},
		{name: "jpg", file: "scan.JPG", size: 2 * mb},
		{name: "exactly the ceiling", file: "scan.jpg", size: 10 * mb},
		{name: "11MB pdf", file: "transcript.pdf", size: 11 * mb, wantErr: ErrFileTooLarge},
		{name: "gif", file: "animation.gif", size: mb, wantErr: ErrUnsupportedFormat},
		{name: "no extension", file: "README", size: 10, wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFilterFiles(t *testing.T) {
	files := []File{
		{Name: "transcript.pdf", Size: 9 * mb},
		{Name: "huge.png", Size: 11 * mb},
		{Name: "photo.gif", Size: mb},
	}

	valid, rejected := FilterFiles(files)

	assert.Len(t, valid, 1)
	assert.Equal(t, "transcript.pdf", valid[0].Name)
	assert.Equal(t, []Rejection{
		{Name: "huge.png", Message: "File size too large: 11.0MB. Maximum size is 10MB"},
		{Name: "photo.gif", Message: "Unsupported file format: GIF. Please use PDF, JPG, PNG, JPEG"},
	}, rejected)
}
