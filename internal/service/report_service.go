package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/export"
	"github.com/Freeeeeet/dershane_desk/internal/formatting"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"go.uber.org/zap"
)

type studentGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Student, error)
}

type attendanceLister interface {
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Attendance, error)
}

type examLister interface {
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Exam, error)
}

// ReportService собирает PDF отчёт по студенту
type ReportService struct {
	students     studentGetter
	appointments studentAppointments
	attendance   attendanceLister
	exams        examLister
	now          func() time.Time
	logger       *zap.Logger
}

func NewReportService(
	students studentGetter,
	appointments studentAppointments,
	attendance attendanceLister,
	exams examLister,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students:     students,
		appointments: appointments,
		attendance:   attendance,
		exams:        exams,
		now:          time.Now,
		logger:       logger,
	}
}

// StudentReport возвращает PDF с записями, посещаемостью и оценками студента
func (s *ReportService) StudentReport(ctx context.Context, studentID int64) ([]byte, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, apperrors.Wrap(nil, apperrors.ErrNotFound, "student not found")
	}

	appts, err := s.appointments.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}
	attendance, err := s.attendance.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	exams, err := s.exams.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get exams: %w", err)
	}

	apptData := export.Dataset{Headers: []string{"Start", "Duration (min)", "Teacher"}}
	for _, a := range appts {
		apptData.Rows = append(apptData.Rows, []string{a.StartTS, strconv.Itoa(a.DurationMin), formatID(a.TeacherID)})
	}

	attData := export.Dataset{Headers: []string{"Time", "Status"}}
	for _, a := range attendance {
		attData.Rows = append(attData.Rows, []string{model.FormatLocal(a.TS), string(a.Status)})
	}

	examData := export.Dataset{Headers: []string{"Exam", "Score", "Date"}}
	total := 0
	for _, e := range exams {
		examData.Rows = append(examData.Rows, []string{e.Name, strconv.Itoa(e.Score), formatting.FormatDate(e.TS)})
		total += e.Score
	}

	subtitle := student.FullName()
	if student.NationalID != "" {
		subtitle += " (" + student.NationalID + ")"
	}
	if len(exams) > 0 {
		subtitle += fmt.Sprintf(" - average score %.1f", float64(total)/float64(len(exams)))
	}
	subtitle += " - generated " + model.Wall(s.now()).Format("2006-01-02 15:04")

	pdf, err := export.PDF("Student report", subtitle, []export.Section{
		{Title: "Appointments", Data: apptData},
		{Title: "Attendance", Data: attData},
		{Title: "Exam scores", Data: examData},
	})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	s.logger.Info("Student report generated",
		zap.Int64("student_id", studentID),
		zap.Int("size_bytes", len(pdf)),
	)
	return pdf, nil
}
