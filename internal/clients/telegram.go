package clients

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
)

// telegramAPI is the subset of *tgbotapi.BotAPI used here; tests inject a
// fake so no token or network is required.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramClient wraps the Bot API with a circuit breaker around outbound
// sends. Webhook management calls are deliberately outside the breaker:
// they run once at startup/shutdown and are best-effort at the call sites.
type TelegramClient struct {
	api telegramAPI
	cb  *gobreaker.CircuitBreaker
}

// NewTelegramClient authenticates against the Bot API (one getMe call) and
// returns the wrapped client.
func NewTelegramClient(token string, cb *gobreaker.CircuitBreaker) (*TelegramClient, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authenticating telegram bot: %w", err)
	}
	return &TelegramClient{api: api, cb: cb}, nil
}

// Send delivers any Chattable (messages, documents, keyboard edits) through
// the circuit breaker.
func (c *TelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.api.Send(msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return tgbotapi.Message{}, fmt.Errorf("telegram circuit open: %w", err)
		}
		return tgbotapi.Message{}, err
	}
	return out.(tgbotapi.Message), nil
}

// Request executes a raw API call (callback answers, webhook management).
func (c *TelegramClient) Request(call tgbotapi.Chattable) error {
	_, err := c.api.Request(call)
	return err
}

// SetWebhook registers url as the bot's webhook endpoint.
func (c *TelegramClient) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("building webhook config: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes the registered webhook. Required before switching
// to long polling.
func (c *TelegramClient) DeleteWebhook(dropPending bool) error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	return nil
}

// Updates opens the long-polling update channel.
func (c *TelegramClient) Updates(timeout int, allowed []string) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	u.AllowedUpdates = allowed
	return c.api.GetUpdatesChan(u)
}

// StopUpdates closes the long-polling channel.
func (c *TelegramClient) StopUpdates() {
	c.api.StopReceivingUpdates()
}
