package clients

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTelegram is a test double for telegramAPI.
type fakeTelegram struct {
	sent    []tgbotapi.Chattable
	sendErr error
	reqs    []tgbotapi.Chattable
	reqErr  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, f.sendErr
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.reqs = append(f.reqs, c)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeTelegram) StopReceivingUpdates() {}

func newTestTelegram(fake *fakeTelegram) *TelegramClient {
	return &TelegramClient{api: fake, cb: NewCircuitBreaker("telegram-test")}
}

func TestTelegramSend(t *testing.T) {
	t.Parallel()

	fake := &fakeTelegram{}
	c := newTestTelegram(fake)

	msg, err := c.Send(tgbotapi.NewMessage(42, "hi"))
	require.NoError(t, err)
	assert.Equal(t, 1, msg.MessageID)
	assert.Len(t, fake.sent, 1)
}

func TestTelegramSend_BreakerOpens(t *testing.T) {
	t.Parallel()

	fake := &fakeTelegram{sendErr: errors.New("flood wait")}
	c := newTestTelegram(fake)

	for i := 0; i < 3; i++ {
		_, err := c.Send(tgbotapi.NewMessage(42, "hi"))
		require.Error(t, err)
	}

	_, err := c.Send(tgbotapi.NewMessage(42, "hi"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "circuit open")
	assert.Len(t, fake.sent, 3)
}

func TestSetAndDeleteWebhook(t *testing.T) {
	t.Parallel()

	fake := &fakeTelegram{}
	c := newTestTelegram(fake)

	require.NoError(t, c.SetWebhook("https://bot.example.com/tg/secret"))
	require.NoError(t, c.DeleteWebhook(false))
	assert.Len(t, fake.reqs, 2)
}

func TestSetWebhook_InvalidURL(t *testing.T) {
	t.Parallel()

	fake := &fakeTelegram{}
	c := newTestTelegram(fake)

	err := c.SetWebhook("://not-a-url")
	assert.Error(t, err)
	assert.Empty(t, fake.reqs)
}
