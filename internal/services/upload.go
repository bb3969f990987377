package services

import (
	"io"
	"strings"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/gabriel-vasile/mimetype"
)

type UploadPolicy struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
}

var DefaultUploadPolicy = UploadPolicy{
	MaxSizeBytes: 10 * 1024 * 1024, // 10MB
	AllowedMimeTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/heic",
		"image/heif",
	},
}

// Check sniffs data and returns its MIME type if the upload is acceptable.
func (p UploadPolicy) Check(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("Uploaded file is empty.")
	}
	if p.MaxSizeBytes > 0 && int64(len(data)) > p.MaxSizeBytes {
		return "", apperr.Validation("file size exceeds maximum limit of %d MB", p.MaxSizeBytes/(1024*1024))
	}

	mimeType := mimetype.Detect(data)
	for _, allowedType := range p.AllowedMimeTypes {
		if mimeType.Is(allowedType) {
			return allowedType, nil
		}
	}
	return "", apperr.Validation("invalid file type %s. Allowed types: %s", mimeType.String(), strings.Join(p.AllowedMimeTypes, ", "))
}

// Read loads an upload through open, reading at most one byte past the size
// limit so Check can still reject an oversized file.
func (p UploadPolicy) Read(open func() (io.ReadCloser, error)) ([]byte, error) {
	src, err := open()
	if err != nil {
		return nil, apperr.Validation("Failed to read uploaded file.")
	}
	defer src.Close()

	var reader io.Reader = src
	if p.MaxSizeBytes > 0 {
		reader = io.LimitReader(src, p.MaxSizeBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperr.Validation("Failed to read uploaded file.")
	}
	return data, nil
}
