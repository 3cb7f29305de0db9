package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/formatting"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/notifier"
	"github.com/Freeeeeet/dershane_desk/internal/render"
	"go.uber.org/zap"
)

const TelegramTokenSetting = "telegram_token"

const parentLookupTimeout = 5 * time.Second

type messageQueue interface {
	Enqueue(msg notifier.Message) bool
}

type settingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type studentLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	GetWithParentChat(ctx context.Context) ([]*model.Student, error)
}

type studentAppointments interface {
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Appointment, error)
}

// NotificationService собирает тексты для родителей и отдаёт их в очередь отправки
type NotificationService struct {
	students     studentLookup
	appointments studentAppointments
	queue        messageQueue
	settings     settingsStore
	now          func() time.Time
	async        func(job func())
	logger       *zap.Logger
}

func NewNotificationService(
	students studentLookup,
	appointments studentAppointments,
	queue messageQueue,
	settings settingsStore,
	logger *zap.Logger,
) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		students:     students,
		appointments: appointments,
		queue:        queue,
		settings:     settings,
		now:          time.Now,
		async:        func(job func()) { go job() },
		logger:       logger,
	}
}

// SetQueue подключает очередь после старта бота
func (s *NotificationService) SetQueue(queue messageQueue) {
	s.queue = queue
}

// Token возвращает токен бота: из конфигурации, иначе из настроек
func (s *NotificationService) Token(ctx context.Context, configured string) (string, error) {
	if strings.TrimSpace(configured) != "" {
		return strings.TrimSpace(configured), nil
	}
	token, _, err := s.settings.Get(ctx, TelegramTokenSetting)
	if err != nil {
		return "", fmt.Errorf("get telegram token: %w", err)
	}
	return token, nil
}

// SetToken сохраняет токен, применяется при следующем запуске
func (s *NotificationService) SetToken(ctx context.Context, token string) error {
	if err := s.settings.Set(ctx, TelegramTokenSetting, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("set telegram token: %w", err)
	}
	s.logger.Info("Telegram token updated, restart to apply")
	return nil
}

// parentChat находит чат родителя, nil если уведомлять некого
func (s *NotificationService) parentChat(ctx context.Context, studentID int64) (*model.Student, int64) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		s.logger.Error("Failed to load student for notification", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, 0
	}
	if student == nil {
		s.logger.Warn("Notification skipped, student not found", zap.Int64("student_id", studentID))
		return nil, 0
	}
	if !student.HasParentChat() {
		s.logger.Warn("Notification skipped, no parent chat", zap.Int64("student_id", studentID))
		return nil, 0
	}
	return student, *student.ParentChatID
}

func (s *NotificationService) enqueue(msg notifier.Message) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue(msg)
}

// notifyParent ищет чат родителя вне запроса и ставит текст в очередь.
// Запрос может завершиться раньше, поэтому контекст отвязан от отмены.
func (s *NotificationService) notifyParent(ctx context.Context, studentID int64, text func(*model.Student) string) {
	ctx = context.WithoutCancel(ctx)
	s.async(func() {
		lookupCtx, cancel := context.WithTimeout(ctx, parentLookupTimeout)
		defer cancel()

		student, chatID := s.parentChat(lookupCtx, studentID)
		if student == nil {
			return
		}
		s.enqueue(notifier.Message{
			Kind:   notifier.KindText,
			ChatID: chatID,
			Text:   text(student),
		})
	})
}

// AttendanceRecorded сообщает родителю об отметке посещения
func (s *NotificationService) AttendanceRecorded(ctx context.Context, a *model.Attendance) {
	record := *a
	s.notifyParent(ctx, record.StudentID, func(student *model.Student) string {
		return AttendanceMessage(student, &record)
	})
}

// AppointmentBooked сообщает родителю о новой записи
func (s *NotificationService) AppointmentBooked(ctx context.Context, appt *model.Appointment) {
	booked := *appt
	s.notifyParent(ctx, booked.StudentID, func(student *model.Student) string {
		return AppointmentMessage(student, &booked)
	})
}

// AttendanceMessage текст уведомления о посещении
func AttendanceMessage(student *model.Student, a *model.Attendance) string {
	display := formatting.AttendanceStatusDisplay(a.Status)
	return fmt.Sprintf("%s <b>%s</b> %s\n🕒 %s",
		display.Emoji,
		student.FullName(),
		display.Text,
		a.TS.Format(formatting.NotificationLayout),
	)
}

// AppointmentMessage текст уведомления о записи
func AppointmentMessage(student *model.Student, appt *model.Appointment) string {
	when := appt.StartTS
	if start, err := appt.Start(); err == nil {
		when = fmt.Sprintf("%s, %s", formatting.WeekdayName(start.Weekday()), formatting.FormatDateTime(start))
	}
	return fmt.Sprintf("📅 <b>%s</b> записан(а) на занятие\n🕒 %s (%s)\n👤 Учитель #%d",
		student.FullName(),
		when,
		formatting.FormatDuration(appt.DurationMin),
		appt.TeacherID,
	)
}

// StudentWeekImage рисует записи студента на неделе, содержащей day
func (s *NotificationService) StudentWeekImage(ctx context.Context, student *model.Student, day time.Time) ([]byte, int, error) {
	appts, err := s.appointments.GetByStudentID(ctx, student.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("get student appointments: %w", err)
	}

	weekStart, weekEnd := WeekBounds(day)
	var entries []render.Entry
	for _, appt := range appts {
		start, err := appt.Start()
		if err != nil || start.Before(weekStart) || start.After(weekEnd) {
			continue
		}
		end, _ := appt.End()
		entries = append(entries, render.Entry{
			Kind:  render.EntryAppointment,
			Start: start,
			End:   end,
			Label: fmt.Sprintf("Учитель #%d", appt.TeacherID),
		})
	}

	image, err := render.WeekImage(day, student.FullName(), entries, model.Wall(s.now()))
	if err != nil {
		return nil, 0, fmt.Errorf("render week image: %w", err)
	}
	return image, len(entries), nil
}

// SendWeeklyDigests отправляет каждому родителю картинку текущей недели ребёнка
func (s *NotificationService) SendWeeklyDigests(ctx context.Context) (int, error) {
	students, err := s.students.GetWithParentChat(ctx)
	if err != nil {
		return 0, fmt.Errorf("list students with parent chat: %w", err)
	}

	today := model.Wall(s.now())
	queued := 0
	for _, student := range students {
		if !student.HasParentChat() {
			continue
		}
		image, count, err := s.StudentWeekImage(ctx, student, today)
		if err != nil {
			s.logger.Error("Failed to build weekly digest", zap.Int64("student_id", student.ID), zap.Error(err))
			continue
		}
		s.enqueue(notifier.Message{
			Kind:     notifier.KindPhoto,
			ChatID:   *student.ParentChatID,
			Filename: "week.png",
			Data:     image,
			Text:     fmt.Sprintf("🗓 %s: %d %s на этой неделе", student.FullName(), count, formatting.PluralizeLessons(count)),
		})
		queued++
	}

	s.logger.Info("Weekly digests queued", zap.Int("count", queued))
	return queued, nil
}
