package handlers

import (
	"net/http"

	"github.com/farellandr/eventshots/internal/middleware"
	"github.com/gin-gonic/gin"
)

// GetProfile reports the signed-in user, or a null user for anonymous
// callers.
func GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
