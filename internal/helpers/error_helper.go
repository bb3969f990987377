package helpers

import (
	"log"
	"net/http"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPartialBatch:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithAppError writes err using the status of its kind. Store failures
// are logged with their cause; the client only sees the message.
func RespondWithAppError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStore {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	RespondWithError(c, StatusForKind(kind), apperr.Message(err))
}
