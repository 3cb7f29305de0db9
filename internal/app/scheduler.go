package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type backupRunner interface {
	Backup(ctx context.Context) (*model.Backup, error)
}

type digestSender interface {
	SendWeeklyDigests(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами по cron выражениям
type Scheduler struct {
	cron    *cron.Cron
	backups backupRunner
	digests digestSender
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler регистрирует задачи; пустое выражение отключает задачу
func NewScheduler(backupSpec, digestSpec string, backups backupRunner, digests digestSender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:    cron.New(),
		backups: backups,
		digests: digests,
		timeout: 10 * time.Minute,
		logger:  logger,
	}

	if backupSpec != "" && backups != nil {
		if _, err := s.cron.AddFunc(backupSpec, s.runBackup); err != nil {
			return nil, fmt.Errorf("schedule backup %q: %w", backupSpec, err)
		}
	}
	if digestSpec != "" && digests != nil {
		if _, err := s.cron.AddFunc(digestSpec, s.runDigest); err != nil {
			return nil, fmt.Errorf("schedule digest %q: %w", digestSpec, err)
		}
	}

	return s, nil
}

// Jobs количество зарегистрированных задач
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start запускает фоновые задачи
func (s *Scheduler) Start() {
	s.logger.Info("Starting background scheduler", zap.Int("jobs", s.Jobs()))
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт текущие задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("Starting scheduled backup")
	b, err := s.backups.Backup(ctx)
	if err != nil {
		s.logger.Error("Scheduled backup failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled backup completed", zap.String("path", b.Path))
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sent, err := s.digests.SendWeeklyDigests(ctx)
	if err != nil {
		s.logger.Error("Weekly digest failed", zap.Error(err))
		return
	}
	s.logger.Info("Weekly digest queued", zap.Int("messages", sent))
}
