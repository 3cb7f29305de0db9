package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/dershane_desk/internal/formatting"
	"github.com/Freeeeeet/dershane_desk/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart сообщает chat id, чтобы администратор привязал его к ученику
func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	students, err := c.students.FindByParentChat(ctx, chatID)
	if err != nil {
		c.logger.Error("Failed to find students by parent chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👋 Здравствуйте!\n\n")
	sb.WriteString(fmt.Sprintf("Ваш chat id: <code>%d</code>\n", chatID))

	if len(students) == 0 {
		sb.WriteString("\nЧат пока не привязан ни к одному ученику. Передайте chat id администратору центра.")
	} else {
		sb.WriteString("\nУведомления приходят по ученикам:\n")
		for _, s := range students {
			sb.WriteString(fmt.Sprintf("• %s\n", s.FullName()))
		}
		sb.WriteString("\n/week - занятия на неделе\n/report - отчёт")
	}

	c.reply(ctx, chatID, sb.String())
}

// HandleHelp обрабатывает команду /help
func (c *BotController) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Показать chat id и привязанных учеников\n" +
		"/week - Картинка с занятиями на текущей неделе\n" +
		"/report - PDF отчёт: занятия, посещаемость, оценки\n" +
		"/help - Показать эту справку\n\n" +
		"Об отметках посещаемости и новых записях бот сообщает автоматически."

	c.reply(ctx, update.Message.Chat.ID, helpText)
}

// HandleWeek отправляет расписание недели по каждому привязанному ученику
func (c *BotController) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	students, chatID, ok := c.requireStudents(ctx, update)
	if !ok {
		return
	}

	today := model.Wall(c.now())
	for _, s := range students {
		image, count, err := c.weeks.StudentWeekImage(ctx, s, today)
		if err != nil {
			c.logger.Error("Failed to render week", zap.Int64("student_id", s.ID), zap.Error(err))
			c.reply(ctx, chatID, "❌ Не удалось построить расписание. Попробуйте позже.")
			continue
		}
		caption := fmt.Sprintf("🗓 %s: %d %s на неделе", s.FullName(), count, formatting.PluralizeLessons(count))
		if err := c.sender.SendPhoto(ctx, chatID, "week.png", image, caption); err != nil {
			c.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

// HandleReport отправляет PDF отчёт по каждому привязанному ученику
func (c *BotController) HandleReport(ctx context.Context, b *bot.Bot, update *models.Update) {
	students, chatID, ok := c.requireStudents(ctx, update)
	if !ok {
		return
	}

	for _, s := range students {
		pdf, err := c.reports.StudentReport(ctx, s.ID)
		if err != nil {
			c.logger.Error("Failed to build report", zap.Int64("student_id", s.ID), zap.Error(err))
			c.reply(ctx, chatID, "❌ Не удалось сформировать отчёт. Попробуйте позже.")
			continue
		}
		filename := fmt.Sprintf("report_%d.pdf", s.ID)
		if err := c.sender.SendDocument(ctx, chatID, filename, pdf, "📄 "+s.FullName()); err != nil {
			c.logger.Error("Failed to send report", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

// requireStudents находит учеников чата, иначе отвечает подсказкой
func (c *BotController) requireStudents(ctx context.Context, update *models.Update) ([]*model.Student, int64, bool) {
	if update.Message == nil {
		return nil, 0, false
	}
	chatID := update.Message.Chat.ID

	students, err := c.students.FindByParentChat(ctx, chatID)
	if err != nil {
		c.logger.Error("Failed to find students by parent chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, chatID, false
	}
	if len(students) == 0 {
		c.reply(ctx, chatID, "❌ Чат не привязан к ученику. Используйте /start, чтобы узнать chat id.")
		return nil, chatID, false
	}
	return students, chatID, true
}

// reply отправляет текст и логирует если не удалось
func (c *BotController) reply(ctx context.Context, chatID int64, text string) {
	if err := c.sender.SendText(ctx, chatID, text); err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
