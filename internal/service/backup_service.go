package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/export"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type backupStore interface {
	Create(ctx context.Context, b *model.Backup) error
	List(ctx context.Context) ([]*model.Backup, error)
}

type allStudents interface {
	List(ctx context.Context) ([]*model.Student, error)
}

type allAppointments interface {
	GetAll(ctx context.Context) ([]*model.Appointment, error)
}

type allWindows interface {
	GetAll(ctx context.Context) ([]*model.AvailabilityWindow, error)
}

type allAttendance interface {
	GetAll(ctx context.Context) ([]*model.Attendance, error)
}

type allExams interface {
	GetAll(ctx context.Context) ([]*model.Exam, error)
}

// BackupSources таблицы, попадающие в снимок
type BackupSources struct {
	Students     allStudents
	Appointments allAppointments
	Availability allWindows
	Attendance   allAttendance
	Exams        allExams
}

type backupObserver interface {
	BackupFinished(result string)
}

// BackupService выгружает таблицы в CSV файлы в отдельную папку на каждый запуск
type BackupService struct {
	sources  BackupSources
	backups  backupStore
	dir      string
	observer backupObserver
	now      func() time.Time
	logger   *zap.Logger
}

func NewBackupService(sources BackupSources, backups backupStore, dir string, observer backupObserver, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		sources:  sources,
		backups:  backups,
		dir:      dir,
		observer: observer,
		now:      time.Now,
		logger:   logger,
	}
}

// Backup пишет снимок в <dir>/backup_<YYYYmmdd_HHMMSS>/ и сохраняет запись о нём
func (s *BackupService) Backup(ctx context.Context) (*model.Backup, error) {
	runID := uuid.NewString()
	now := model.Wall(s.now()).Truncate(time.Second)
	path := filepath.Join(s.dir, "backup_"+now.Format("20060102_150405"))

	s.logger.Info("Backup started", zap.String("run_id", runID), zap.String("path", path))

	backup, err := s.run(ctx, path, now)
	if err != nil {
		s.finish("failed")
		s.logger.Error("Backup failed", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}

	s.finish("ok")
	s.logger.Info("Backup finished",
		zap.String("run_id", runID),
		zap.Int64("backup_id", backup.ID),
		zap.String("path", path),
	)
	return backup, nil
}

func (s *BackupService) finish(result string) {
	if s.observer != nil {
		s.observer.BackupFinished(result)
	}
}

func (s *BackupService) run(ctx context.Context, path string, now time.Time) (*model.Backup, error) {
	tables, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	for _, name := range backupTables {
		data, err := export.CSV(tables[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(path, name+".csv"), data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	backup := &model.Backup{Path: path, TS: now}
	if err := s.backups.Create(ctx, backup); err != nil {
		return nil, fmt.Errorf("record backup: %w", err)
	}
	return backup, nil
}

var backupTables = []string{"students", "appointments", "teacher_availability", "attendance", "exams"}

func (s *BackupService) snapshot(ctx context.Context) (map[string]export.Dataset, error) {
	tables := make(map[string]export.Dataset, len(backupTables))

	students, err := s.sources.Students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump students: %w", err)
	}
	ds := export.Dataset{Headers: []string{"id", "name", "surname", "national_id", "parent_chat_id"}}
	for _, st := range students {
		chat := ""
		if st.ParentChatID != nil {
			chat = strconv.FormatInt(*st.ParentChatID, 10)
		}
		ds.Rows = append(ds.Rows, []string{formatID(st.ID), st.Name, st.Surname, st.NationalID, chat})
	}
	tables["students"] = ds

	appts, err := s.sources.Appointments.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump appointments: %w", err)
	}
	ds = export.Dataset{Headers: []string{"id", "student_id", "teacher_id", "start_ts", "duration_min"}}
	for _, a := range appts {
		ds.Rows = append(ds.Rows, []string{formatID(a.ID), formatID(a.StudentID), formatID(a.TeacherID), a.StartTS, strconv.Itoa(a.DurationMin)})
	}
	tables["appointments"] = ds

	windows, err := s.sources.Availability.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump availability: %w", err)
	}
	ds = export.Dataset{Headers: []string{"id", "teacher_id", "start_ts", "end_ts"}}
	for _, w := range windows {
		ds.Rows = append(ds.Rows, []string{formatID(w.ID), formatID(w.TeacherID), model.FormatLocal(w.StartTS), model.FormatLocal(w.EndTS)})
	}
	tables["teacher_availability"] = ds

	attendance, err := s.sources.Attendance.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump attendance: %w", err)
	}
	ds = export.Dataset{Headers: []string{"id", "student_id", "status", "ts"}}
	for _, a := range attendance {
		ds.Rows = append(ds.Rows, []string{formatID(a.ID), formatID(a.StudentID), string(a.Status), model.FormatLocal(a.TS)})
	}
	tables["attendance"] = ds

	exams, err := s.sources.Exams.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump exams: %w", err)
	}
	ds = export.Dataset{Headers: []string{"id", "student_id", "name", "score", "ts"}}
	for _, e := range exams {
		ds.Rows = append(ds.Rows, []string{formatID(e.ID), formatID(e.StudentID), e.Name, strconv.Itoa(e.Score), model.FormatLocal(e.TS)})
	}
	tables["exams"] = ds

	return tables, nil
}

func formatID(v int64) string {
	return strconv.FormatInt(v, 10)
}

// List возвращает историю бэкапов, новые первыми
func (s *BackupService) List(ctx context.Context) ([]*model.Backup, error) {
	backups, err := s.backups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	return backups, nil
}
