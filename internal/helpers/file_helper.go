package helpers

import (
	"io"
	"mime/multipart"

	"github.com/farellandr/eventshots/internal/models"
)

// UploadSource wraps a multipart file as an upload source. The file is opened
// only when the pipeline gets to it, so gin's on-disk spill is not pulled back
// into memory for every part of a request at once.
func UploadSource(fileHeader *multipart.FileHeader) models.PhotoSource {
	return models.PhotoSource{
		Kind:     models.SourceUpload,
		Filename: fileHeader.Filename,
		Open: func() (io.ReadCloser, error) {
			f, err := fileHeader.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}
