package main

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-lambda-go/events"

	"github.com/kbukum/voicebrief/app"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/redis"
	"github.com/kbukum/voicebrief/telegram"
	"github.com/kbukum/voicebrief/voicebot"
)

type fakeBot struct {
	updates []telegram.Update
	err     error
}

func (f *fakeBot) HandleUpdate(_ context.Context, u telegram.Update) error {
	f.updates = append(f.updates, u)
	return f.err
}

func request(method, body string, b64 bool) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{Body: body, IsBase64Encoded: b64}
	req.RequestContext.HTTP.Method = method
	return req
}

func TestHandleUpdate(t *testing.T) {
	bot := &fakeBot{}
	h := &handler{bot: bot, log: logger.NewNop()}

	resp, err := h.handle(context.Background(), request(http.MethodPost, `{"update_id":9,"message":{"message_id":1,"chat":{"id":5}}}`, false))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != `{"status":"ok"}` {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(bot.updates) != 1 || bot.updates[0].UpdateID != 9 {
		t.Errorf("unexpected updates %+v", bot.updates)
	}
}

func TestHandleBase64Body(t *testing.T) {
	bot := &fakeBot{}
	h := &handler{bot: bot, log: logger.NewNop()}

	body := base64.StdEncoding.EncodeToString([]byte(`{"update_id":10}`))
	resp, _ := h.handle(context.Background(), request(http.MethodPost, body, true))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(bot.updates) != 1 || bot.updates[0].UpdateID != 10 {
		t.Errorf("unexpected updates %+v", bot.updates)
	}
}

func TestHandleMalformed(t *testing.T) {
	bot := &fakeBot{}
	h := &handler{bot: bot, log: logger.NewNop()}

	resp, _ := h.handle(context.Background(), request(http.MethodPost, `{"update_id":`, false))
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(resp.Body, `"status":"error"`) {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(bot.updates) != 0 {
		t.Error("malformed payload must not reach the bot")
	}
}

func TestHandleFailureStillAcknowledged(t *testing.T) {
	h := &handler{bot: &fakeBot{err: errors.New("boom")}, log: logger.NewNop()}

	resp, err := h.handle(context.Background(), request(http.MethodPost, `{"update_id":1}`, false))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 ack, got %d, %v", resp.StatusCode, err)
	}
}

func TestHandleStatusPage(t *testing.T) {
	h := &handler{bot: &fakeBot{}, log: logger.NewNop()}
	resp, _ := h.handle(context.Background(), request(http.MethodGet, "", false))
	if resp.StatusCode != http.StatusOK || resp.Body != statusText {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestHandleSecretToken(t *testing.T) {
	bot := &fakeBot{}
	h := &handler{bot: bot, secret: "s3cret", log: logger.NewNop()}

	resp, _ := h.handle(context.Background(), request(http.MethodPost, `{"update_id":1}`, false))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", resp.StatusCode)
	}

	req := request(http.MethodPost, `{"update_id":2}`, false)
	req.Headers = map[string]string{"x-telegram-bot-api-secret-token": "s3cret"}
	resp, _ = h.handle(context.Background(), req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", resp.StatusCode)
	}
	if len(bot.updates) != 1 || bot.updates[0].UpdateID != 2 {
		t.Errorf("unexpected updates %+v", bot.updates)
	}
}

func TestRequireSharedUpdateLog(t *testing.T) {
	cfg := &app.Config{}
	if err := requireSharedUpdateLog(cfg); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("expected validation error without redis, got %v", err)
	}
	cfg.Redis.Enabled = true
	if err := requireSharedUpdateLog(cfg); err != nil {
		t.Fatalf("unexpected error with redis enabled: %v", err)
	}
}

// chatMessenger fails every file lookup so a voice update ends in one error
// reply, which makes each handled delivery countable.
type chatMessenger struct {
	mu   sync.Mutex
	sent []telegram.SendMessageRequest
}

func (m *chatMessenger) FileURL(context.Context, string) (string, error) {
	return "", apperrors.ProviderProtocol("telegram", "failed to get file url")
}

func (m *chatMessenger) SendMessage(_ context.Context, req telegram.SendMessageRequest) (*telegram.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return &telegram.Message{MessageID: int64(len(m.sent)), Chat: telegram.Chat{ID: req.ChatID}}, nil
}

func (m *chatMessenger) AnswerCallbackQuery(context.Context, string) error { return nil }

func (m *chatMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestHandleRedeliveryOnOtherContainerSkipped(t *testing.T) {
	mr := miniredis.RunT(t)
	messenger := &chatMessenger{}

	// Each container builds its own client and bot against the same Redis.
	newContainer := func() *handler {
		client, err := redis.New(redis.Config{Enabled: true, Addr: mr.Addr()}, logger.NewNop())
		if err != nil {
			t.Fatalf("redis.New: %v", err)
		}
		t.Cleanup(func() { _ = client.Close() })
		bot := voicebot.NewBot(voicebot.Config{}, nil, messenger, logger.NewNop(),
			voicebot.WithUpdateLog(redis.NewUpdateLog(client, time.Hour)))
		return &handler{bot: bot, log: logger.NewNop()}
	}
	first, second := newContainer(), newContainer()

	body := `{"update_id":77,"message":{"message_id":3,"chat":{"id":5},"voice":{"file_id":"f1","duration":4}}}`
	resp, err := first.handle(context.Background(), request(http.MethodPost, body, false))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("first delivery: %d, %v", resp.StatusCode, err)
	}
	if messenger.count() != 1 {
		t.Fatalf("expected one reply from the first delivery, got %d", messenger.count())
	}

	resp, err = second.handle(context.Background(), request(http.MethodPost, body, false))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("redelivery: %d, %v", resp.StatusCode, err)
	}
	if messenger.count() != 1 {
		t.Errorf("redelivery must not be processed again, got %d replies", messenger.count())
	}
}
