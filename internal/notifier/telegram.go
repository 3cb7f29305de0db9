package notifier

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Telegram отправляет сообщения через Bot API
type Telegram struct {
	bot *bot.Bot
}

func NewTelegram(b *bot.Bot) *Telegram {
	return &Telegram{bot: b}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	_, err := t.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

func (t *Telegram) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	_, err := t.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
