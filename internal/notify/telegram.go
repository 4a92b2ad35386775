package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends alerts to one chat or channel through the Bot API.
type Telegram struct {
	api  *tgbotapi.BotAPI
	chat string
}

// NewTelegram returns nil, nil when token or chat is empty. chat is a
// numeric chat id or a channel username like "@ops".
func NewTelegram(token, chat string) (*Telegram, error) {
	return newTelegram(token, chat, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
}

func newTelegram(token, chat, endpoint string, client tgbotapi.HTTPClient) (*Telegram, error) {
	if token == "" || chat == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	return &Telegram{api: api, chat: chat}, nil
}

func (t *Telegram) message(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(t.chat, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	return tgbotapi.NewMessageToChannel(t.chat, text)
}

// Send posts plain text; the bot client has no context support so ctx is
// only checked up front.
func (t *Telegram) Send(ctx context.Context, title, text string) error {
	if t == nil {
		return fmt.Errorf("telegram: %w", ErrDisabled)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := t.message(title + "\n" + text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
