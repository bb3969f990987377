package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/farellandr/eventshots/internal/helpers"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/gin-gonic/gin"
)

func ListPhotos(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	photos, err := svc.Photos.List(c.Request.Context(), c.Query("eventId"))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, photos)
}

// CreatePhoto accepts one photo as multipart form data: eventId, sourceType
// and either file or url. Without a sourceType the presence of a file decides.
func CreatePhoto(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	eventID := c.PostForm("eventId")
	if strings.TrimSpace(eventID) == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Event ID is required")
		return
	}

	fileHeader, fileErr := c.FormFile("file")
	hasFile := fileErr == nil

	kind := models.SourceURL
	if raw := c.PostForm("sourceType"); raw != "" {
		parsed, ok := models.ParseSourceType(raw)
		if !ok {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid source type.")
			return
		}
		kind = parsed
	} else if hasFile {
		kind = models.SourceUpload
	}

	source := models.PhotoSource{Kind: kind, Value: c.PostForm("url")}
	if kind == models.SourceUpload {
		if !hasFile {
			helpers.RespondWithError(c, http.StatusBadRequest, "Image URL or File is required")
			return
		}
		source = helpers.UploadSource(fileHeader)
	}

	photo, err := svc.Ingestion.Submit(c.Request.Context(), eventID, source)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, photo)
}

// CreatePhotoBatch ingests every url, file and driveFolder value in the form.
// Items fail independently; the response carries accepted and failed counts.
func CreatePhotoBatch(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	if limit := batchBodyLimit(svc.Ingestion.MaxBatchItems(), svc.Ingestion.Policy().MaxSizeBytes); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		files = form.File["file"]
	case errors.Is(err, http.ErrNotMultipart):
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Batch request is too large.")
			return
		}
		helpers.RespondWithError(c, http.StatusBadRequest, "Failed to read batch form.")
		return
	}

	eventID := c.PostForm("eventId")
	if strings.TrimSpace(eventID) == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Event ID is required")
		return
	}

	var sources []models.PhotoSource
	for _, link := range helpers.SplitLines(c.PostFormArray("url")...) {
		sources = append(sources, models.PhotoSource{Kind: models.SourceURL, Value: link})
	}

	for _, fileHeader := range files {
		sources = append(sources, helpers.UploadSource(fileHeader))
	}

	for _, link := range helpers.SplitLines(c.PostFormArray("driveFolder")...) {
		sources = append(sources, models.PhotoSource{Kind: models.SourceDriveFolder, Value: link})
	}

	result, err := svc.Ingestion.SubmitBatch(c.Request.Context(), eventID, sources)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	status := http.StatusOK
	if result.Err() != nil {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func DeletePhoto(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	if err := svc.Photos.Delete(c.Request.Context(), c.Query("id")); err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// batchBodyLimit allows every item of a full batch at the upload size limit
// plus room for the form fields. Zero means no limit.
func batchBodyLimit(maxItems int, maxSizeBytes int64) int64 {
	if maxItems <= 0 || maxSizeBytes <= 0 {
		return 0
	}
	return int64(maxItems)*maxSizeBytes + 1<<20
}
