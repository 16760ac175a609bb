package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type sampleConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Telegram      struct {
		BotToken string `mapstructure:"bot_token"`
	} `mapstructure:"telegram"`
	Staging struct {
		Bucket string `mapstructure:"bucket"`
		Region string `mapstructure:"region"`
	} `mapstructure:"staging"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestServiceConfig_Defaults(t *testing.T) {
	cfg := ServiceConfig{Name: "voicebrief"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("expected development+debug, got %q debug=%v", cfg.Environment, cfg.Debug)
	}
	if cfg.Logging.ServiceName != "voicebrief" {
		t.Errorf("expected logging service name to be propagated, got %q", cfg.Logging.ServiceName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfig_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", `
name: voicebrief
staging:
  bucket: from-file
  region: eu-west-1
`)
	t.Setenv("STAGING_BUCKET", "from-env")

	var cfg sampleConfig
	if err := LoadConfig("voicebrief", &cfg, WithConfigFile(cfgPath), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "voicebrief" {
		t.Errorf("expected name from file, got %q", cfg.Name)
	}
	if cfg.Staging.Bucket != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Staging.Bucket)
	}
	if cfg.Staging.Region != "eu-west-1" {
		t.Errorf("expected region from file, got %q", cfg.Staging.Region)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "TELEGRAM_BOT_TOKEN=abc:123\n")
	t.Cleanup(func() { os.Unsetenv("TELEGRAM_BOT_TOKEN") })

	var cfg sampleConfig
	if err := LoadConfig("voicebrief", &cfg, WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Telegram.BotToken != "abc:123" {
		t.Errorf("expected token from .env, got %q", cfg.Telegram.BotToken)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "name: [unterminated")
	var cfg sampleConfig
	if err := LoadConfig("voicebrief", &cfg, WithConfigFile(cfgPath)); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

type fakeFS struct{ existing map[string]bool }

func (f fakeFS) Exists(path string) bool  { return f.existing[path] }
func (f fakeFS) LoadEnv(path string) error { return nil }

func TestFirstExisting_SearchOrder(t *testing.T) {
	fs := fakeFS{existing: map[string]bool{"./config.yml": true, "../cmd/voicebrief/config.yml": true}}
	got := firstExisting(fs, configSearchPaths("voicebrief"))
	if got != "../cmd/voicebrief/config.yml" {
		t.Errorf("expected cmd config to win, got %q", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("TELEGRAM_BOT_TOKEN")
	for _, want := range []string{"telegram_bot_token", "telegram.bot.token", "telegram.bot_token", "telegram_bot.token"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected variant %q in %v", want, got)
		}
	}
	if deep := envKeyVariants("SUMMARIZER_MARKETROUTER_API_KEY"); !slices.Contains(deep, "summarizer.marketrouter.api_key") || len(deep) != 8 {
		t.Errorf("expected 8 variants including summarizer.marketrouter.api_key, got %v", deep)
	}
	if long := envKeyVariants("A_B_C_D_E_F_G_H_I"); len(long) != 1 {
		t.Errorf("expected no expansion past the part limit, got %d variants", len(long))
	}
	if single := envKeyVariants("PORT"); len(single) != 1 || single[0] != "port" {
		t.Errorf("unexpected variants for single word: %v", single)
	}
}
