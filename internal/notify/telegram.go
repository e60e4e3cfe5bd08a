package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"quickcourt/internal/config"
)

// TelegramNotifier delivers booking notifications to facility owners'
// Telegram chats.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	logger *zerolog.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info().Str("account", bot.Self.UserName).Msg("telegram notifier authorized")
	return &TelegramNotifier{bot: bot, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, recipient int64, kind string, data map[string]string) error {
	if recipient == 0 {
		return nil
	}

	msg := tgbotapi.NewMessage(recipient, composeMessage(kind, data))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func composeMessage(kind string, data map[string]string) string {
	line := func(label, key string) string {
		if data[key] == "" {
			return ""
		}
		return fmt.Sprintf("\n%s: %s", label, data[key])
	}

	details := line("Court", "court") +
		line("Date", "date") +
		line("Time", "slot") +
		line("Amount", "amount")

	switch kind {
	case "booking_created":
		return "🆕 <b>New booking</b>" + details
	case "booking_confirmed":
		return "✅ <b>Booking confirmed</b>" + details
	case "booking_cancelled":
		return "❌ <b>Booking cancelled</b>" + details + line("Refund", "refund")
	default:
		return "ℹ️ <b>Booking update</b>" + details + line("Status", "status")
	}
}

// NopNotifier is used when Telegram notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, recipient int64, kind string, data map[string]string) error {
	return nil
}
