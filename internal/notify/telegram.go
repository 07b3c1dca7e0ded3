package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// compile-time check that *TelegramSender implements Sender
var _ Sender = (*TelegramSender)(nil)

// telegramHTTPTimeout bounds each Bot API call. The library itself has no
// context support, so the HTTP client's timeout is the per-send bound.
const telegramHTTPTimeout = 10 * time.Second

// TelegramSender sends messages through the Telegram Bot API.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewTelegramSender authenticates against the Bot API with the given token.
// Fails fast on a bad token so a misconfigured deployment is caught at start,
// not on the first reminder.
func NewTelegramSender(token string, logger *slog.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{
		Timeout: telegramHTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("notify: connecting to telegram: %w", err)
	}

	logger.Info("telegram bot authenticated", slog.String("username", bot.Self.UserName))
	return &TelegramSender{bot: bot, logger: logger}, nil
}

// Send delivers one message to one chat.
func (t *TelegramSender) Send(ctx context.Context, chatID int64, text string, markdown bool) error {
	// The Bot API client can't take a context, so at least don't start a
	// send whose deadline has already passed.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify: send cancelled: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("notify: sending to chat %d: %w", chatID, err)
	}
	return nil
}
