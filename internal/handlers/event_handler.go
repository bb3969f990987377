package handlers

import (
	"net/http"

	"github.com/farellandr/eventshots/internal/helpers"
	"github.com/farellandr/eventshots/internal/middleware"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/gin-gonic/gin"
)

func CreateEvent(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	if user == nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Name and code are required")
		return
	}

	event, err := svc.Events.Create(c.Request.Context(), req, user)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func ListEvents(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	events, err := svc.Events.List(c.Request.Context())
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func ListVisibleEvents(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	events, err := svc.Events.ListVisible(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func GetEventByCode(c *gin.Context) {
	svc, ok := mustServices(c)
	if !ok {
		return
	}

	event, err := svc.Events.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
