package handler

import (
	"context"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/response"
	"github.com/gin-gonic/gin"
)

type availabilityService interface {
	AddWindow(ctx context.Context, teacherID int64, startTS, endTS string) (*model.AvailabilityWindow, error)
	WindowsFor(ctx context.Context, teacherID int64) ([]*model.AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id int64) error
}

type AvailabilityHandler struct {
	availability availabilityService
}

func NewAvailabilityHandler(availability availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

type addWindowRequest struct {
	StartTS string `json:"start_ts" binding:"required"`
	EndTS   string `json:"end_ts" binding:"required"`
}

func (h *AvailabilityHandler) Add(c *gin.Context) {
	teacherID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req addWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	window, err := h.availability.AddWindow(c.Request.Context(), teacherID, req.StartTS, req.EndTS)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// List пустой список означает, что учитель принимает в любое время
func (h *AvailabilityHandler) List(c *gin.Context) {
	teacherID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	windows, err := h.availability.WindowsFor(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if windows == nil {
		windows = []*model.AvailabilityWindow{}
	}
	response.OK(c, windows)
}

func (h *AvailabilityHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.availability.DeleteWindow(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
