package notifier

import (
	"context"

	"go.uber.org/zap"
)

// Notifier отправляет сообщения в чат родителя
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
}

// Nop используется, когда токен бота не настроен
type Nop struct {
	logger *zap.Logger
}

func NewNop(logger *zap.Logger) *Nop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Nop{logger: logger}
}

func (n *Nop) SendText(ctx context.Context, chatID int64, text string) error {
	n.logger.Debug("Notification skipped, bot disabled", zap.Int64("chat_id", chatID))
	return nil
}

func (n *Nop) SendPhoto(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	n.logger.Debug("Photo skipped, bot disabled", zap.Int64("chat_id", chatID), zap.String("filename", filename))
	return nil
}

func (n *Nop) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	n.logger.Debug("Document skipped, bot disabled", zap.Int64("chat_id", chatID), zap.String("filename", filename))
	return nil
}
