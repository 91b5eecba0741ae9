package utils

import (
	"errors"
	"strings"

	"github.com/collegelover/college-lover-api/models"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// MaterialTypeFromExt maps an uploaded file extension to a material type.
func MaterialTypeFromExt(ext string) (models.MaterialType, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return models.TypePDF, nil
	case ".ppt", ".pptx":
		return models.TypePPT, nil
	case ".doc", ".docx":
		return models.TypeDOCX, nil
	case ".txt", ".md":
		return models.TypeNotes, nil
	default:
		return "", ErrUnsupportedFileType
	}
}

// HumanSize renders a byte count the way material size labels are shown.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return formatSize(float64(n), "B")
	}
	value := float64(n)
	for _, suffix := range []string{"KB", "MB", "GB"} {
		value /= unit
		if value < unit || suffix == "GB" {
			return formatSize(value, suffix)
		}
	}
	return formatSize(value, "GB")
}
