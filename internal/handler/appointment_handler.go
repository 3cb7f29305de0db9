package handler

import (
	"context"
	"strconv"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/response"
	"github.com/Freeeeeet/dershane_desk/internal/service"
	"github.com/gin-gonic/gin"
)

type appointmentService interface {
	Propose(ctx context.Context, req service.ProposalRequest) (*service.Decision, error)
	List(ctx context.Context, studentID *int64) ([]*model.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type AppointmentHandler struct {
	appointments appointmentService
}

func NewAppointmentHandler(appointments appointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// DecisionResponse ответ на попытку записи
type DecisionResponse struct {
	Accepted    bool               `json:"accepted"`
	Reason      string             `json:"reason"`
	Appointment *model.Appointment `json:"appointment,omitempty"`
}

// Propose отвечает 200 и при приёме, и при отказе
func (h *AppointmentHandler) Propose(c *gin.Context) {
	var req service.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	decision, err := h.appointments.Propose(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, DecisionResponse{
		Accepted:    decision.Accepted,
		Reason:      decision.Reason,
		Appointment: decision.Appointment,
	})
}

func (h *AppointmentHandler) List(c *gin.Context) {
	var studentID *int64
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, apperrors.Wrap(err, apperrors.ErrValidation, "invalid student_id"))
			return
		}
		studentID = &id
	}

	appts, err := h.appointments.List(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appts)
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.appointments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
