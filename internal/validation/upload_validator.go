package validation

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/IbnuJabir/AuralFlowAI/internal/domain"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
)

// DefaultSupportedFormats is used when the collaborator's list is unavailable.
var DefaultSupportedFormats = domain.SupportedFormats{
	AudioFormats:       []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a"},
	VideoFormats:       []string{".mp4", ".avi", ".mov", ".mkv", ".webm"},
	MaxFileSize:        "100MB",
	SupportedLanguages: []string{"en", "es", "fr", "de", "it", "pt", "zh", "ja", "ko"},
}

// ValidateUpload checks that req is a well-formed file or link variant.
func ValidateUpload(req *domain.UploadRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", errpkg.ErrInvalidUpload)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errpkg.ErrInvalidUpload, err)
	}
	return nil
}

// ValidateFile checks a file's extension against formats and its size against
// maxSize. A maxSize of zero disables the size check.
func ValidateFile(name string, size int64, formats *domain.SupportedFormats, maxSize int64) error {
	if name == "" {
		return fmt.Errorf("%w: no filename provided", errpkg.ErrInvalidUpload)
	}
	if formats == nil {
		formats = &DefaultSupportedFormats
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(formats.AudioFormats, ext) && !slices.Contains(formats.VideoFormats, ext) {
		return fmt.Errorf("%w: unsupported file format: %q", errpkg.ErrInvalidUpload, ext)
	}

	if size <= 0 {
		return fmt.Errorf("%w: file is empty", errpkg.ErrInvalidUpload)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: file size %d exceeds limit of %d bytes", errpkg.ErrInvalidUpload, size, maxSize)
	}

	return nil
}
