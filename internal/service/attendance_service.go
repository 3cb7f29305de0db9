package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"go.uber.org/zap"
)

type attendanceStore interface {
	Create(ctx context.Context, a *model.Attendance) error
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Attendance, error)
}

// attendanceNotifier сообщает родителю об отметке, не должен блокировать
type attendanceNotifier interface {
	AttendanceRecorded(ctx context.Context, a *model.Attendance)
}

type AttendanceService struct {
	attendance attendanceStore
	notifier   attendanceNotifier
	now        func() time.Time
	logger     *zap.Logger
}

func NewAttendanceService(attendance attendanceStore, notifier attendanceNotifier, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance: attendance,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger,
	}
}

func validAttendanceStatus(status model.AttendanceStatus) bool {
	switch status {
	case model.AttendancePresent, model.AttendanceAbsent, model.AttendanceLate, model.AttendanceExcused:
		return true
	}
	return false
}

// Record отмечает посещение текущим временем и уведомляет родителя
func (s *AttendanceService) Record(ctx context.Context, studentID int64, status model.AttendanceStatus) (*model.Attendance, error) {
	if !validAttendanceStatus(status) {
		return nil, apperrors.Wrap(nil, apperrors.ErrValidation, fmt.Sprintf("unknown attendance status %q", status))
	}

	record := &model.Attendance{
		StudentID: studentID,
		Status:    status,
		TS:        model.Wall(s.now()).Truncate(time.Second),
	}
	if err := s.attendance.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}

	s.logger.Info("Attendance recorded",
		zap.Int64("attendance_id", record.ID),
		zap.Int64("student_id", studentID),
		zap.String("status", string(status)),
	)

	if s.notifier != nil {
		s.notifier.AttendanceRecorded(ctx, record)
	}

	return record, nil
}

// ListByStudent возвращает отметки студента, новые первыми
func (s *AttendanceService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Attendance, error) {
	records, err := s.attendance.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}
