package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/app"
	"github.com/Freeeeeet/dershane_desk/internal/config"
	"github.com/Freeeeeet/dershane_desk/internal/controller"
	"github.com/Freeeeeet/dershane_desk/internal/handler"
	"github.com/Freeeeeet/dershane_desk/internal/metrics"
	"github.com/Freeeeeet/dershane_desk/internal/notifier"
	"github.com/Freeeeeet/dershane_desk/internal/repository"
	"github.com/Freeeeeet/dershane_desk/internal/repository/base"
	"github.com/Freeeeeet/dershane_desk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Desk stopped with error", zap.Error(err))
	}
	logger.Info("Desk stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting dershane desk",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("✅ Connected to database")

	if cfg.MigrationsEnabled {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		err = migrator.Run(ctx)
		migrator.Close()
		if err != nil {
			return err
		}
	}

	// Репозитории
	studentRepo := repository.NewStudentRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	backupRepo := repository.NewBackupRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	txManager := base.NewTxManager(pool)

	m := metrics.New()

	// Уведомления: без токена бот не запускается, сообщения уходят в Nop
	notificationService := service.NewNotificationService(studentRepo, appointmentRepo, nil, settingsRepo, logger)

	token, err := notificationService.Token(ctx, cfg.TelegramToken)
	if err != nil {
		return err
	}

	var (
		telegramBot *bot.Bot
		sender      notifier.Notifier = notifier.NewNop(logger)
	)
	if token != "" {
		telegramBot, err = bot.New(token)
		if err != nil {
			return err
		}
		sender = notifier.NewTelegram(telegramBot)
	} else {
		logger.Warn("Telegram token not set, parent notifications disabled")
	}

	dispatcher := notifier.NewDispatcher(sender, notifier.DispatcherConfig{
		BufferSize: cfg.NotifyQueueSize,
		Observer:   m,
		Logger:     logger,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	notificationService.SetQueue(dispatcher)

	// Сервисы
	appointmentService := service.NewAppointmentService(
		appointmentRepo,
		availabilityRepo,
		txManager,
		notificationService,
		m,
		service.AdmissionConfig{
			WeeklyQuota:        cfg.WeeklyQuota,
			DefaultDurationMin: cfg.DefaultDurationMin,
		},
		logger,
	)
	availabilityService := service.NewAvailabilityService(availabilityRepo, logger)
	studentService := service.NewStudentService(studentRepo, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, notificationService, logger)
	examService := service.NewExamService(examRepo, logger)
	userService := service.NewUserService(userRepo, logger)
	reportService := service.NewReportService(studentRepo, appointmentRepo, attendanceRepo, examRepo, logger)
	backupService := service.NewBackupService(service.BackupSources{
		Students:     studentRepo,
		Appointments: appointmentRepo,
		Availability: availabilityRepo,
		Attendance:   attendanceRepo,
		Exams:        examRepo,
	}, backupRepo, cfg.BackupDir, m, logger)

	if err := userService.EnsureDefaultAdmin(ctx, cfg.AdminPassword); err != nil {
		return err
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterDeps{
		Appointments: handler.NewAppointmentHandler(appointmentService),
		Availability: handler.NewAvailabilityHandler(availabilityService),
		Students:     handler.NewStudentHandler(studentService, attendanceService, examService, reportService),
		Backups:      handler.NewBackupHandler(backupService),
		Users:        handler.NewUserHandler(userService, notificationService),
		Health:       handler.NewHealthHandler(pool),
		Auth:         userService,
		Metrics:      m,
		Logger:       logger,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Фоновые задачи
	scheduler, err := app.NewScheduler(cfg.BackupCron, cfg.DigestCron, backupService, notificationService, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Бот для родителей
	if telegramBot != nil {
		botController := controller.NewBotController(telegramBot, sender, studentService, notificationService, reportService, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	logger.Info("🚀 Desk is running")

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err, ok := <-serverErr:
		if ok && err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}
