package handler

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/response"
	"github.com/Freeeeeet/dershane_desk/internal/service"
	"github.com/gin-gonic/gin"
)

type studentService interface {
	Create(ctx context.Context, req service.CreateStudentRequest) (*model.Student, error)
	Get(ctx context.Context, id int64) (*model.Student, error)
	List(ctx context.Context) ([]*model.Student, error)
	Update(ctx context.Context, id int64, patch model.StudentPatch) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type attendanceService interface {
	Record(ctx context.Context, studentID int64, status model.AttendanceStatus) (*model.Attendance, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Attendance, error)
}

type examService interface {
	Add(ctx context.Context, studentID int64, req service.AddExamRequest) (*model.Exam, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Exam, error)
}

type reportService interface {
	StudentReport(ctx context.Context, studentID int64) ([]byte, error)
}

// StudentHandler карточка студента: данные, посещаемость, оценки и отчёт
type StudentHandler struct {
	students   studentService
	attendance attendanceService
	exams      examService
	reports    reportService
}

func NewStudentHandler(students studentService, attendance attendanceService, exams examService, reports reportService) *StudentHandler {
	return &StudentHandler{
		students:   students,
		attendance: attendance,
		exams:      exams,
		reports:    reports,
	}
}

func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

func (h *StudentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Update частичное изменение, отвечает {"updated": false} на пустой патч
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var patch model.StudentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	updated, err := h.students.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"updated": updated})
}

func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type recordAttendanceRequest struct {
	Status model.AttendanceStatus `json:"status" binding:"required"`
}

func (h *StudentHandler) RecordAttendance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req recordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if _, err := h.students.Get(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.attendance.Record(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

func (h *StudentHandler) ListAttendance(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.attendance.ListByStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

func (h *StudentHandler) AddExam(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AddExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if _, err := h.students.Get(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	exam, err := h.exams.Add(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

func (h *StudentHandler) ListExams(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	exams, err := h.exams.ListByStudent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exams)
}

func (h *StudentHandler) Report(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	pdf, err := h.reports.StudentReport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "application/pdf", fmt.Sprintf("student_%d.pdf", id), pdf)
}
