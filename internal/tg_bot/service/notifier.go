package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/DenisKhanov/RemindBOT/internal/tg_bot/scheduler"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"net/http"
)

// TelegramNotifier delivers scheduler notifications through the Bot API.
type TelegramNotifier struct {
	Bot Sender
}

// NewTelegramNotifier wraps bot.
func NewTelegramNotifier(bot Sender) *TelegramNotifier {
	return &TelegramNotifier{Bot: bot}
}

// Send implements scheduler.Notifier. A 403 (bot blocked or kicked) is
// reported as scheduler.ErrChatUnreachable.
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string, markdown bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	_, err := n.Bot.Send(msg)
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %v", scheduler.ErrChatUnreachable, err)
	}
	return err
}
