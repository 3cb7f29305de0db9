package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/apperrors"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultWeeklyQuota = 3
	DefaultDurationMin = 15
	// MaxDurationMin сутки, длиннее занятие не бывает
	MaxDurationMin = 1440

	ReasonQuotaExceeded      = "weekly quota exceeded"
	ReasonTeacherUnavailable = "teacher unavailable at requested time"
)

type appointmentStore interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Appointment, error)
	GetAll(ctx context.Context) ([]*model.Appointment, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type windowReader interface {
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.AvailabilityWindow, error)
}

// txRunner выполняет fn атомарно относительно других вызовов с тем же ключом
type txRunner interface {
	WithinLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}

// bookingNotifier получает уведомление о принятой записи, не должен блокировать
type bookingNotifier interface {
	AppointmentBooked(ctx context.Context, appt *model.Appointment)
}

type admissionObserver interface {
	AdmissionDecided(outcome string)
}

// ProposalRequest запрос на запись к учителю
type ProposalRequest struct {
	StudentID   int64  `json:"student_id"`
	TeacherID   int64  `json:"teacher_id"`
	StartTS     string `json:"start_ts" validate:"required"`
	DurationMin int    `json:"duration_min" validate:"gte=0,lte=1440"` // 0 - длительность по умолчанию
}

// Decision результат проверки записи. Отказ - это не ошибка.
type Decision struct {
	Accepted    bool
	Reason      string
	Appointment *model.Appointment
}

type AdmissionConfig struct {
	WeeklyQuota        int
	DefaultDurationMin int
}

type AppointmentService struct {
	appointments appointmentStore
	windows      windowReader
	tx           txRunner
	notifier     bookingNotifier
	observer     admissionObserver
	validator    *validator.Validate
	cfg          AdmissionConfig
	logger       *zap.Logger
}

func NewAppointmentService(
	appointments appointmentStore,
	windows windowReader,
	tx txRunner,
	notifier bookingNotifier,
	observer admissionObserver,
	cfg AdmissionConfig,
	logger *zap.Logger,
) *AppointmentService {
	if cfg.WeeklyQuota <= 0 {
		cfg.WeeklyQuota = DefaultWeeklyQuota
	}
	if cfg.DefaultDurationMin <= 0 {
		cfg.DefaultDurationMin = DefaultDurationMin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		appointments: appointments,
		windows:      windows,
		tx:           tx,
		notifier:     notifier,
		observer:     observer,
		validator:    validator.New(),
		cfg:          cfg,
		logger:       logger,
	}
}

// WeekBounds возвращает понедельник 00:00:00 и воскресенье 23:59:59 недели t
func WeekBounds(t time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-daysSinceMonday, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return start, end
}

// Propose проверяет недельную квоту и окна учителя, затем сохраняет запись.
// Ошибка возвращается только для невалидного ввода и сбоев хранилища.
func (s *AppointmentService) Propose(ctx context.Context, req ProposalRequest) (*Decision, error) {
	start, duration, err := s.validateProposal(req)
	if err != nil {
		return nil, err
	}

	var decision *Decision
	// Проверка и вставка под одной блокировкой студента
	err = s.tx.WithinLock(ctx, req.StudentID, func(ctx context.Context) error {
		d, admitErr := s.admit(ctx, req, start, duration)
		decision = d
		return admitErr
	})
	if err != nil {
		return nil, err
	}

	outcome := "accepted"
	if !decision.Accepted {
		outcome = decision.Reason
	}
	if s.observer != nil {
		s.observer.AdmissionDecided(outcome)
	}

	if decision.Accepted {
		s.logger.Info("Appointment accepted",
			zap.Int64("appointment_id", decision.Appointment.ID),
			zap.Int64("student_id", req.StudentID),
			zap.Int64("teacher_id", req.TeacherID),
			zap.String("start_ts", decision.Appointment.StartTS),
			zap.Int("duration_min", duration),
		)
		if s.notifier != nil {
			s.notifier.AppointmentBooked(ctx, decision.Appointment)
		}
	} else {
		s.logger.Info("Appointment rejected",
			zap.Int64("student_id", req.StudentID),
			zap.Int64("teacher_id", req.TeacherID),
			zap.String("start_ts", req.StartTS),
			zap.String("reason", decision.Reason),
		)
	}

	return decision, nil
}

func (s *AppointmentService) validateProposal(req ProposalRequest) (time.Time, int, error) {
	if err := s.validator.Struct(req); err != nil {
		return time.Time{}, 0, apperrors.Wrap(err, apperrors.ErrValidation, "invalid appointment request")
	}

	start, err := model.ParseLocal(req.StartTS)
	if err != nil {
		return time.Time{}, 0, apperrors.Wrap(err, apperrors.ErrValidation, "invalid start_ts")
	}
	// Хранится с точностью до секунды
	if start.Nanosecond() != 0 {
		return time.Time{}, 0, apperrors.Wrap(nil, apperrors.ErrValidation, "start_ts must not contain fractional seconds")
	}

	duration := req.DurationMin
	if duration == 0 {
		duration = s.cfg.DefaultDurationMin
	}
	if duration > MaxDurationMin {
		return time.Time{}, 0, apperrors.Wrap(nil, apperrors.ErrValidation, fmt.Sprintf("duration_min must not exceed %d", MaxDurationMin))
	}

	return start, duration, nil
}

func (s *AppointmentService) admit(ctx context.Context, req ProposalRequest, start time.Time, duration int) (*Decision, error) {
	existing, err := s.appointments.GetByStudentID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student appointments: %w", err)
	}

	if s.countInWeek(existing, start) >= s.cfg.WeeklyQuota {
		return &Decision{Reason: ReasonQuotaExceeded}, nil
	}

	windows, err := s.windows.GetByTeacherID(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("load teacher availability: %w", err)
	}

	// Учитель без окон принимает в любое время
	end := start.Add(time.Duration(duration) * time.Minute)
	if len(windows) > 0 && !fitsAnyWindow(windows, start, end) {
		return &Decision{Reason: ReasonTeacherUnavailable}, nil
	}

	appt := &model.Appointment{
		StudentID:   req.StudentID,
		TeacherID:   req.TeacherID,
		StartTS:     model.FormatLocal(start),
		DurationMin: duration,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	return &Decision{Accepted: true, Appointment: appt}, nil
}

// countInWeek считает записи, попавшие в неделю start (границы включительно).
// Строки с нечитаемым start_ts пропускаются.
func (s *AppointmentService) countInWeek(appts []*model.Appointment, start time.Time) int {
	weekStart, weekEnd := WeekBounds(start)

	count := 0
	for _, appt := range appts {
		t, err := appt.Start()
		if err != nil {
			s.logger.Warn("Skipping appointment with malformed start_ts",
				zap.Int64("appointment_id", appt.ID),
				zap.Int64("student_id", appt.StudentID),
				zap.String("start_ts", appt.StartTS),
			)
			continue
		}
		if !t.Before(weekStart) && !t.After(weekEnd) {
			count++
		}
	}
	return count
}

// fitsAnyWindow проверяет полное вхождение [start, end] хотя бы в одно окно
func fitsAnyWindow(windows []*model.AvailabilityWindow, start, end time.Time) bool {
	for _, w := range windows {
		if w.Contains(start, end) {
			return true
		}
	}
	return false
}

// List возвращает записи студента или все записи, если studentID == nil
func (s *AppointmentService) List(ctx context.Context, studentID *int64) ([]*model.Appointment, error) {
	var (
		appts []*model.Appointment
		err   error
	)
	if studentID != nil {
		appts, err = s.appointments.GetByStudentID(ctx, *studentID)
	} else {
		appts, err = s.appointments.GetAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// Delete удаляет запись без перепроверки квоты соседних записей
func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.appointments.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if !deleted {
		return apperrors.Wrap(nil, apperrors.ErrNotFound, "appointment not found")
	}

	s.logger.Info("Appointment deleted", zap.Int64("appointment_id", id))
	return nil
}

// WeekAppointments возвращает записи студента в неделе, содержащей day
func (s *AppointmentService) WeekAppointments(ctx context.Context, studentID int64, day time.Time) ([]*model.Appointment, error) {
	appts, err := s.appointments.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student appointments: %w", err)
	}

	weekStart, weekEnd := WeekBounds(day)
	var week []*model.Appointment
	for _, appt := range appts {
		t, err := appt.Start()
		if err != nil {
			continue
		}
		if !t.Before(weekStart) && !t.After(weekEnd) {
			week = append(week, appt)
		}
	}
	return week, nil
}
