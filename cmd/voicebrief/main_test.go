package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kbukum/voicebrief/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) []string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return []string{"--config", path, "--env-file", filepath.Join(dir, "none.env")}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "voicebrief ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseAmount(t *testing.T) {
	if got, err := parseAmount([]string{"conv"}); err != nil || got != 0 {
		t.Errorf("expected 0, nil; got %v, %v", got, err)
	}
	if got, err := parseAmount([]string{"conv", "0.5"}); err != nil || got != 0.5 {
		t.Errorf("expected 0.5, nil; got %v, %v", got, err)
	}
	for _, bad := range []string{"abc", "-1", "0"} {
		_, err := parseAmount([]string{"conv", bad})
		if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("%q: expected invalid input, got %v", bad, err)
		}
	}
}

func TestTipRequiresConversationID(t *testing.T) {
	if _, err := run(t, "tip"); err == nil {
		t.Fatal("expected argument error")
	}
}

func TestSetWebhook(t *testing.T) {
	var gotPath, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotURL = body["url"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	flags := writeConfig(t, `
telegram:
  bot_token: "123:abc"
  base_url: "`+srv.URL+`"
  webhook_url: "https://bot.example.com/webhook"
`)
	out, err := run(t, append([]string{"set-webhook"}, flags...)...)
	if err != nil {
		t.Fatalf("set-webhook: %v", err)
	}
	if gotPath != "/bot123:abc/setWebhook" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotURL != "https://bot.example.com/webhook" {
		t.Errorf("unexpected url %q", gotURL)
	}
	if !strings.Contains(out, "webhook set to https://bot.example.com/webhook") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSetWebhookWithoutURL(t *testing.T) {
	flags := writeConfig(t, "telegram:\n  bot_token: \"123:abc\"\n")
	_, err := run(t, append([]string{"set-webhook"}, flags...)...)
	if err == nil || !strings.Contains(err.Error(), "no webhook url") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	flags := writeConfig(t, "environment: qa\n")
	if _, err := run(t, append([]string{"set-webhook", "https://x.example.com"}, flags...)...); err == nil {
		t.Fatal("expected validation error")
	}
}
