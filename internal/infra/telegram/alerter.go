// Package telegram posts staff alerts to a moderation chat.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/LURY-TMP/matzon-platform/internal/infra/httpclient"
)

const (
	maxMessageLen  = 4096
	requestTimeout = 10 * time.Second
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Alerter struct {
	api    sender
	chatID int64
}

func NewAlerter(token string, chatID int64) (*Alerter, error) {
	return NewAlerterWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

// NewAlerterWithEndpoint targets a custom Bot API endpoint, formatted like
// tgbotapi.APIEndpoint.
func NewAlerterWithEndpoint(token, endpoint string, chatID int64) (*Alerter, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram alert chat id is required")
	}

	api, err := tgbotapi.NewBotAPIWithClient(strings.TrimSpace(token), endpoint, httpclient.New(requestTimeout))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Alerter{api: api, chatID: chatID}, nil
}

func (a *Alerter) Alert(ctx context.Context, text string) error {
	if a == nil || a.api == nil {
		return fmt.Errorf("telegram alerter is not initialized")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}

	msg := tgbotapi.NewMessage(a.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := a.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}
