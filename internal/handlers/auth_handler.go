package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventshots/internal/auth"
	"github.com/farellandr/eventshots/internal/helpers"
	"github.com/farellandr/eventshots/internal/middleware"
	"github.com/farellandr/eventshots/internal/services"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func mustServices(c *gin.Context) (*services.Services, bool) {
	svc := middleware.GetServices(c)
	if svc == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Services not configured.")
		return nil, false
	}
	return svc, true
}

func setSessionCookie(c *gin.Context, session *auth.Session, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, session.Token, maxAge, "/", "", gin.Mode() == gin.ReleaseMode, true)
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email and password required.")
		return
	}

	svc, ok := mustServices(c)
	if !ok {
		return
	}

	session, err := svc.Auth.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	setSessionCookie(c, session, int(svc.Auth.TTL().Seconds()))
	c.JSON(http.StatusCreated, session)
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Email and password required.")
		return
	}

	svc, ok := mustServices(c)
	if !ok {
		return
	}

	session, err := svc.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	setSessionCookie(c, session, int(svc.Auth.TTL().Seconds()))
	c.JSON(http.StatusOK, session)
}

// Logout clears the session cookie. Bearer tokens simply expire.
func Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", gin.Mode() == gin.ReleaseMode, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
