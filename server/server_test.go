package server_test

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/voicebrief/component"
	"github.com/kbukum/voicebrief/logger"
	"github.com/kbukum/voicebrief/security"
	"github.com/kbukum/voicebrief/security/tlstest"
	"github.com/kbukum/voicebrief/server"
	"github.com/kbukum/voicebrief/telegram"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	updates []telegram.Update
	err     error
}

func (d *recordingDispatcher) Dispatch(u telegram.Update) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.updates = append(d.updates, u)
	return nil
}

func newTestServer(t *testing.T, checker func(context.Context) []component.Health) (*server.Server, *recordingDispatcher) {
	t.Helper()
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := server.New(cfg, logger.NewNop())
	d := &recordingDispatcher{}
	s.RegisterRoutes(server.Routes{ServiceName: "voicebrief", Dispatcher: d, Health: checker})
	return s, d
}

func serve(s *server.Server, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestWelcome(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rr := serve(s, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "Welcome to the Audio Transcribe Bot!" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestWebhookStatusPage(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rr := serve(s, http.MethodGet, "/webhook", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Body.String(), "Webhook is working.") {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	s, d := newTestServer(t, nil)
	body := `{"update_id":7,"message":{"message_id":3,"chat":{"id":42},"voice":{"file_id":"f1","duration":4}}}`

	rr := serve(s, http.MethodPost, "/webhook", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp)
	}

	if len(d.updates) != 1 {
		t.Fatalf("expected 1 dispatched update, got %d", len(d.updates))
	}
	u := d.updates[0]
	if u.UpdateID != 7 || u.Message == nil || u.Message.Voice == nil || u.Message.Voice.FileID != "f1" {
		t.Errorf("unexpected update %+v", u)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected request id header")
	}
}

func TestWebhookRefusedUpdateIsRetryable(t *testing.T) {
	s, d := newTestServer(t, nil)
	d.err = errors.New("bot is stopped")

	rr := serve(s, http.MethodPost, "/webhook", `{"update_id":8}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestWebhookSecretToken(t *testing.T) {
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	s := server.New(cfg, logger.NewNop())
	d := &recordingDispatcher{}
	s.RegisterRoutes(server.Routes{ServiceName: "voicebrief", Dispatcher: d, WebhookSecret: "s3cret"})

	send := func(secret string) int {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id":1}`))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(server.HeaderSecretToken, secret)
		}
		s.Handler().ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send(""); code != http.StatusUnauthorized {
		t.Errorf("missing secret: expected 401, got %d", code)
	}
	if code := send("wrong"); code != http.StatusUnauthorized {
		t.Errorf("wrong secret: expected 401, got %d", code)
	}
	if len(d.updates) != 0 {
		t.Fatalf("rejected deliveries must not dispatch, got %d", len(d.updates))
	}
	if code := send("s3cret"); code != http.StatusOK {
		t.Errorf("valid secret: expected 200, got %d", code)
	}
	if len(d.updates) != 1 {
		t.Errorf("expected 1 dispatch, got %d", len(d.updates))
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	s, d := newTestServer(t, nil)

	rr := serve(s, http.MethodPost, "/webhook", `{"update_id":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "error" || resp["message"] == "" {
		t.Errorf("unexpected body %v", resp)
	}
	if len(d.updates) != 0 {
		t.Errorf("expected no dispatch, got %d", len(d.updates))
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		healths    []component.Health
		wantCode   int
		wantStatus string
	}{
		{"healthy", []component.Health{{Name: "bot", Status: component.StatusHealthy}}, http.StatusOK, "healthy"},
		{"degraded", []component.Health{{Name: "bot", Status: component.StatusDegraded}}, http.StatusOK, "degraded"},
		{"unhealthy", []component.Health{{Name: "http-server", Status: component.StatusUnhealthy}}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, func(context.Context) []component.Health { return tt.healths })
			rr := serve(s, http.MethodGet, "/health", "")
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var resp struct {
				Status     string             `json:"status"`
				Service    string             `json:"service"`
				Components []component.Health `json:"components"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Status != tt.wantStatus || resp.Service != "voicebrief" || len(resp.Components) != 1 {
				t.Errorf("unexpected body %+v", resp)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rr := serve(s, http.MethodGet, "/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["version"] == "" {
		t.Errorf("expected version field, got %v", resp)
	}
}

func TestStartStop(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if got := s.Health(context.Background()).Status; got != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy before start, got %s", got)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop(context.Background())

	if got := s.Health(context.Background()).Status; got != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", got)
	}

	resp, err := http.Get("http://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestStartWithTLS(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	cfg.TLS = security.TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}
	s := server.New(cfg, logger.NewNop())
	s.RegisterRoutes(server.Routes{ServiceName: "voicebrief", Dispatcher: &recordingDispatcher{}})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop(context.Background())

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: certs.Pool}}}
	resp, err := client.Get("https://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("GET over TLS failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := server.Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.WebhookPath = "webhook"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for relative webhook path")
	}
	cfg.WebhookPath = "/webhook"
	cfg.TLS.CertFile = "cert.pem"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for cert without key")
	}
	cfg.TLS.CertFile = ""
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
