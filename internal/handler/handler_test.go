package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appointmentServiceMock struct {
	decision    *service.Decision
	err         error
	lastReq     service.ProposalRequest
	listStudent *int64
	deleted     []int64
}

func (m *appointmentServiceMock) Propose(ctx context.Context, req service.ProposalRequest) (*service.Decision, error) {
	m.lastReq = req
	return m.decision, m.err
}

func (m *appointmentServiceMock) List(ctx context.Context, studentID *int64) ([]*model.Appointment, error) {
	m.listStudent = studentID
	return []*model.Appointment{{ID: 1, StudentID: 3, StartTS: "2024-03-05T09:00:00"}}, m.err
}

func (m *appointmentServiceMock) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

type availabilityServiceMock struct {
	windows []*model.AvailabilityWindow
	err     error
}

func (m *availabilityServiceMock) AddWindow(ctx context.Context, teacherID int64, startTS, endTS string) (*model.AvailabilityWindow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.AvailabilityWindow{ID: 1, TeacherID: teacherID}, nil
}

func (m *availabilityServiceMock) WindowsFor(ctx context.Context, teacherID int64) ([]*model.AvailabilityWindow, error) {
	return m.windows, m.err
}

func (m *availabilityServiceMock) DeleteWindow(ctx context.Context, id int64) error {
	return m.err
}

type studentServiceMock struct {
	student   *model.Student
	getErr    error
	lastPatch model.StudentPatch
}

func (m *studentServiceMock) Create(ctx context.Context, req service.CreateStudentRequest) (*model.Student, error) {
	return &model.Student{ID: 1, Name: req.Name}, nil
}

func (m *studentServiceMock) Get(ctx context.Context, id int64) (*model.Student, error) {
	return m.student, m.getErr
}

func (m *studentServiceMock) List(ctx context.Context) ([]*model.Student, error) {
	return []*model.Student{m.student}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, id int64, patch model.StudentPatch) (bool, error) {
	m.lastPatch = patch
	return !patch.IsEmpty(), nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id int64) error {
	return nil
}

type attendanceServiceMock struct {
	recorded []model.AttendanceStatus
}

func (m *attendanceServiceMock) Record(ctx context.Context, studentID int64, status model.AttendanceStatus) (*model.Attendance, error) {
	m.recorded = append(m.recorded, status)
	return &model.Attendance{ID: 1, StudentID: studentID, Status: status}, nil
}

func (m *attendanceServiceMock) ListByStudent(ctx context.Context, studentID int64) ([]*model.Attendance, error) {
	return nil, nil
}

type examServiceMock struct{}

func (examServiceMock) Add(ctx context.Context, studentID int64, req service.AddExamRequest) (*model.Exam, error) {
	return &model.Exam{ID: 1, StudentID: studentID, Name: req.Name, Score: req.Score}, nil
}

func (examServiceMock) ListByStudent(ctx context.Context, studentID int64) ([]*model.Exam, error) {
	return nil, nil
}

type reportServiceMock struct{}

func (reportServiceMock) StudentReport(ctx context.Context, studentID int64) ([]byte, error) {
	return []byte("%PDF-1.3 fake"), nil
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *apperrors.Error `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestAppointmentHandlerProposeAccepted(t *testing.T) {
	mockSvc := &appointmentServiceMock{decision: &service.Decision{
		Accepted:    true,
		Appointment: &model.Appointment{ID: 10, StudentID: 1, TeacherID: 7, StartTS: "2024-03-05T09:30:00", DurationMin: 15},
	}}
	h := NewAppointmentHandler(mockSvc)

	c, w := newContext(http.MethodPost, "/api/appointments", `{"student_id":1,"teacher_id":7,"start_ts":"2024-03-05T09:30:00"}`)
	h.Propose(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), mockSvc.lastReq.TeacherID)
	assert.Zero(t, mockSvc.lastReq.DurationMin)

	var got DecisionResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.True(t, got.Accepted)
	assert.Empty(t, got.Reason)
	require.NotNil(t, got.Appointment)
	assert.Equal(t, int64(10), got.Appointment.ID)
}

func TestAppointmentHandlerProposeRejectedIsNotAnError(t *testing.T) {
	h := NewAppointmentHandler(&appointmentServiceMock{decision: &service.Decision{Reason: service.ReasonQuotaExceeded}})

	c, w := newContext(http.MethodPost, "/api/appointments", `{"student_id":1,"teacher_id":7,"start_ts":"2024-03-07T09:00:00","duration_min":15}`)
	h.Propose(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got DecisionResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.False(t, got.Accepted)
	assert.Equal(t, "weekly quota exceeded", got.Reason)
	assert.Nil(t, got.Appointment)
}

func TestAppointmentHandlerProposeErrors(t *testing.T) {
	h := NewAppointmentHandler(&appointmentServiceMock{})
	c, w := newContext(http.MethodPost, "/api/appointments", `{"student_id":`)
	h.Propose(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	h = NewAppointmentHandler(&appointmentServiceMock{err: apperrors.Wrap(errors.New("bad"), apperrors.ErrValidation, "invalid start_ts")})
	c, w = newContext(http.MethodPost, "/api/appointments", `{"student_id":1,"teacher_id":7,"start_ts":"nope"}`)
	h.Propose(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid start_ts", decode(t, w).Error.Message)

	h = NewAppointmentHandler(&appointmentServiceMock{err: errors.New("connection refused")})
	c, w = newContext(http.MethodPost, "/api/appointments", `{"student_id":1,"teacher_id":7,"start_ts":"2024-03-05T09:00:00"}`)
	h.Propose(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAppointmentHandlerListFilter(t *testing.T) {
	mockSvc := &appointmentServiceMock{}
	h := NewAppointmentHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/api/appointments?student_id=3", "")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.listStudent)
	assert.Equal(t, int64(3), *mockSvc.listStudent)

	c, w = newContext(http.MethodGet, "/api/appointments?student_id=abc", "")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerListEmptyMeansUnconstrained(t *testing.T) {
	h := NewAvailabilityHandler(&availabilityServiceMock{})

	c, w := newContext(http.MethodGet, "/api/teachers/7/availability", "")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(decode(t, w).Data))
}

func TestAvailabilityHandlerAddValidation(t *testing.T) {
	h := NewAvailabilityHandler(&availabilityServiceMock{})

	c, w := newContext(http.MethodPost, "/api/teachers/x/availability", `{"start_ts":"2024-03-05T09:00:00","end_ts":"2024-03-05T11:00:00"}`)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	h.Add(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newContext(http.MethodPost, "/api/teachers/7/availability", `{"start_ts":"2024-03-05T09:00:00"}`)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Add(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newContext(http.MethodPost, "/api/teachers/7/availability", `{"start_ts":"2024-03-05T09:00:00","end_ts":"2024-03-05T11:00:00"}`)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Add(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestStudentHandlerPartialUpdate(t *testing.T) {
	students := &studentServiceMock{student: &model.Student{ID: 1, Name: "Ayşe"}}
	h := NewStudentHandler(students, &attendanceServiceMock{}, examServiceMock{}, reportServiceMock{})

	c, w := newContext(http.MethodPatch, "/api/students/1", `{}`)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":false}`, string(decode(t, w).Data))

	c, w = newContext(http.MethodPatch, "/api/students/1", `{"surname":"Demir"}`)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, students.lastPatch.Surname)
	assert.Equal(t, "Demir", *students.lastPatch.Surname)
	assert.Nil(t, students.lastPatch.Name)
}

func TestStudentHandlerAttendanceRequiresStudent(t *testing.T) {
	attendance := &attendanceServiceMock{}
	students := &studentServiceMock{getErr: apperrors.Wrap(nil, apperrors.ErrNotFound, "student not found")}
	h := NewStudentHandler(students, attendance, examServiceMock{}, reportServiceMock{})

	c, w := newContext(http.MethodPost, "/api/students/5/attendance", `{"status":"present"}`)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.RecordAttendance(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, attendance.recorded)
}

func TestStudentHandlerReport(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{}, &attendanceServiceMock{}, examServiceMock{}, reportServiceMock{})

	c, w := newContext(http.MethodGet, "/api/students/5/report", "")
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.Report(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "student_5.pdf")
}
