package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Config configures the Telegram notifier.
type Config struct {
	Enabled          bool   `yaml:"enabled"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	ChatID           int64  `yaml:"chat_id"`
}

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts alerts to a chat.
type Telegram struct {
	sender Sender
	chatID int64
	logger *zap.Logger
}

// NewTelegram authorizes the bot. It returns nil, nil when the notifier is
// disabled or no token is configured.
func NewTelegram(cfg Config, logger *zap.Logger) (*Telegram, error) {
	if !cfg.Enabled || cfg.TelegramBotToken == "" {
		logger.Info("Telegram notifier is disabled (notifier.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized", zap.String("username", botAPI.Self.UserName))
	return NewTelegramWithSender(botAPI, cfg.ChatID, logger), nil
}

// NewTelegramWithSender builds a notifier over an existing sender.
func NewTelegramWithSender(sender Sender, chatID int64, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, chatID: chatID, logger: logger}
}

// Notify sends the alert. A nil notifier is disabled and does nothing.
func (t *Telegram) Notify(ctx context.Context, alert Alert) error {
	if t == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, alert.Text())
	if _, err := t.sender.Send(msg); err != nil {
		t.logger.Error("Failed to send alert", zap.String("subject", alert.Subject), zap.Error(err))
		return fmt.Errorf("failed to send alert: %w", err)
	}
	t.logger.Info("Alert sent", zap.String("kind", alert.Kind), zap.String("subject", alert.Subject))
	return nil
}

// New returns the configured notifier, or Nop when Telegram is disabled.
func New(cfg Config, logger *zap.Logger) (Notifier, error) {
	t, err := NewTelegram(cfg, logger)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return Nop{}, nil
	}
	return t, nil
}
