// Command voicebrief-lambda serves the Telegram webhook from AWS Lambda
// behind an API Gateway HTTP API.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/kbukum/voicebrief/app"
	"github.com/kbukum/voicebrief/config"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/server"
	"github.com/kbukum/voicebrief/telegram"
)

const statusText = "Webhook is working. Send a POST request with a Telegram update to use the bot."

// updateHandler processes one update to completion. *voicebot.Bot
// satisfies it.
type updateHandler interface {
	HandleUpdate(ctx context.Context, update telegram.Update) error
}

type handler struct {
	bot    updateHandler
	secret string
	log    *logger.Logger
}

// handle processes the update before returning: the function is frozen
// once it responds, so nothing may outlive the invocation. A voice note
// usually outlasts API Gateway's 30s integration timeout, so Telegram sees a
// 5xx and redelivers while the first invocation keeps running. The shared
// Redis update log makes the redelivery a no-op that answers 200 at once.
// Processing failures are reported to the chat and acknowledged.
func (h *handler) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if req.RequestContext.HTTP.Method == http.MethodGet {
		return text(http.StatusOK, statusText), nil
	}

	if h.secret != "" && subtle.ConstantTimeCompare([]byte(header(req.Headers, server.HeaderSecretToken)), []byte(h.secret)) != 1 {
		h.log.Warn("Webhook secret mismatch")
		return jsonResponse(http.StatusUnauthorized, map[string]string{"status": "error", "message": "invalid secret token"}), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return jsonResponse(http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()}), nil
		}
		body = decoded
	}

	var update telegram.Update
	if err := json.Unmarshal(body, &update); err != nil {
		h.log.Warn("Malformed webhook payload", logger.ErrorFields("decode update", err))
		return jsonResponse(http.StatusBadRequest, map[string]string{"status": "error", "message": err.Error()}), nil
	}

	if err := h.bot.HandleUpdate(ctx, update); err != nil {
		h.log.WithError(err).Warn("Update failed", logger.Fields("update_id", update.UpdateID))
	}
	return jsonResponse(http.StatusOK, map[string]string{"status": "ok"}), nil
}

// header looks a header up case-insensitively; API Gateway lower-cases names.
func header(h map[string]string, key string) string {
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func text(status int, body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       body,
	}
}

func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

// requireSharedUpdateLog rejects configs without Redis: redeliveries land on
// other containers, which an in-process update log cannot see.
func requireSharedUpdateLog(cfg *app.Config) error {
	if !cfg.Redis.Enabled {
		return apperrors.Validation("redis.enabled is required on Lambda to skip redelivered updates")
	}
	return nil
}

func main() {
	ctx := context.Background()

	cfg := &app.Config{}
	bootLog := logger.NewDefault(app.ServiceName)
	if err := config.LoadConfig(app.ServiceName, cfg); err != nil {
		bootLog.Fatal("Load config", logger.ErrorFields("load config", err))
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal("Invalid config", logger.ErrorFields("validate config", err))
	}
	if err := requireSharedUpdateLog(cfg); err != nil {
		bootLog.Fatal("Invalid config", logger.ErrorFields("validate config", err))
	}
	log := logger.New(&cfg.Logging, cfg.Name)

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Build", logger.ErrorFields("build", err))
	}

	h := &handler{bot: a.Bot, secret: cfg.Telegram.WebhookSecret, log: log.WithComponent("lambda")}
	lambda.Start(h.handle)
}
