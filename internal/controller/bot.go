package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/Freeeeeet/dershane_desk/internal/notifier"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type parentStudents interface {
	FindByParentChat(ctx context.Context, chatID int64) ([]*model.Student, error)
}

type weekImages interface {
	StudentWeekImage(ctx context.Context, student *model.Student, day time.Time) ([]byte, int, error)
}

type studentReports interface {
	StudentReport(ctx context.Context, studentID int64) ([]byte, error)
}

// BotController бот для родителей: привязка чата, расписание недели и отчёт
type BotController struct {
	bot      *bot.Bot
	sender   notifier.Notifier
	students parentStudents
	weeks    weekImages
	reports  studentReports
	now      func() time.Time
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	sender notifier.Notifier,
	students parentStudents,
	weeks weekImages,
	reports studentReports,
	logger *zap.Logger,
) *BotController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotController{
		bot:      botInstance,
		sender:   sender,
		students: students,
		weeks:    weeks,
		reports:  reports,
		now:      time.Now,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.HandleWeek)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/report", bot.MatchTypeExact, c.HandleReport)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Привязать чат к ученику"},
		{Command: "week", Description: "🗓 Занятия на этой неделе"},
		{Command: "report", Description: "📄 Отчёт об успеваемости"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
