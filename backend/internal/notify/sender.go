package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// Channel names stored on notifications
const (
	ChannelTelegram = "telegram"
	ChannelLog      = "log"
)

// Sender delivers rendered text to one chat
type Sender interface {
	Channel() string
	Send(ctx context.Context, chatID int64, text string) error
}

// TelegramSender delivers through the Bot API
type TelegramSender struct {
	b *bot.Bot
}

// NewTelegramSender checks the token with getMe
func NewTelegramSender(token string) (*TelegramSender, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram bot: %w", err)
	}
	return &TelegramSender{b: b}, nil
}

func (s *TelegramSender) Channel() string { return ChannelTelegram }

func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// LogSender writes messages to the log; used when no messaging channel is configured
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Channel() string { return ChannelLog }

func (s *LogSender) Send(_ context.Context, chatID int64, text string) error {
	s.logger.Info("notification", zap.Int64("chat_id", chatID), zap.String("text", text))
	return nil
}
