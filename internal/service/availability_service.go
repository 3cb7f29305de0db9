package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"go.uber.org/zap"
)

type windowStore interface {
	windowReader
	Create(ctx context.Context, window *model.AvailabilityWindow) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// AvailabilityService хранит окна, в которые учитель принимает записи
type AvailabilityService struct {
	windows windowStore
	logger  *zap.Logger
}

func NewAvailabilityService(windows windowStore, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{windows: windows, logger: logger}
}

// AddWindow добавляет окно учителю. Пересечения с другими окнами допустимы.
func (s *AvailabilityService) AddWindow(ctx context.Context, teacherID int64, startTS, endTS string) (*model.AvailabilityWindow, error) {
	start, err := model.ParseLocal(startTS)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation, "invalid start_ts")
	}
	end, err := model.ParseLocal(endTS)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation, "invalid end_ts")
	}
	if !end.After(start) {
		return nil, apperrors.Wrap(nil, apperrors.ErrValidation, "end_ts must be after start_ts")
	}

	window := &model.AvailabilityWindow{
		TeacherID: teacherID,
		StartTS:   start,
		EndTS:     end,
	}
	if err := s.windows.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("create availability window: %w", err)
	}

	s.logger.Info("Availability window added",
		zap.Int64("window_id", window.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	return window, nil
}

// WindowsFor возвращает окна учителя, пустой список - без ограничений
func (s *AvailabilityService) WindowsFor(ctx context.Context, teacherID int64) ([]*model.AvailabilityWindow, error) {
	windows, err := s.windows.GetByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}
	return windows, nil
}

// DeleteWindow удаляет окно, уже принятые записи не затрагиваются
func (s *AvailabilityService) DeleteWindow(ctx context.Context, id int64) error {
	deleted, err := s.windows.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	if !deleted {
		return apperrors.Wrap(nil, apperrors.ErrNotFound, "availability window not found")
	}
	return nil
}
