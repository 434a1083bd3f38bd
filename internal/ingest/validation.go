package ingest

import (
	"mime"
	"strings"

	"github.com/deposily/deposily/internal/apperrors"
	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest statement file accepted, in bytes.
const MaxUploadSize = 10 * 1024 * 1024

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"text/csv":        true,
}

// Upload is a statement file received from a user.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ValidateUpload checks the file before anything is persisted and returns
// its normalised media type.
func ValidateUpload(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", apperrors.Validation("A Bank Statement is required")
	}
	if len(u.Data) > MaxUploadSize {
		return "", apperrors.Validation("File size exceeds 10MB limit")
	}

	mediaType := detectContentType(u.ContentType, u.Data)
	if !allowedTypes[mediaType] {
		return "", apperrors.Validation("Only PDF and CSV files are supported").
			WithDetail("contentType", mediaType)
	}
	return mediaType, nil
}

// detectContentType trusts the declared type unless it is missing or generic,
// in which case the bytes are sniffed.
func detectContentType(declared string, data []byte) string {
	mediaType := baseMediaType(declared)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = baseMediaType(mimetype.Detect(data).String())
	}
	return mediaType
}

func baseMediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}
