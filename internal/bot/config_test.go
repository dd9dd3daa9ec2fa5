package bot

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const baseConfig = `
telegram:
  token: "123:abc"
  run_mode: longpoll
database:
  host: localhost
  port: "5432"
  user: librobot
  name: librobot
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, baseConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FixedDepositAmount() >= 0 {
		t.Fatalf("fixed deposit = %d, want prompt (negative)", cfg.FixedDepositAmount())
	}
	if cfg.Core.Telegram.RunMode != "longpoll" {
		t.Fatalf("run mode = %q", cfg.Core.Telegram.RunMode)
	}
	if cfg.Database.Host != "localhost" {
		t.Fatalf("db host = %q", cfg.Database.Host)
	}
}

func TestLoadConfigFixedDeposit(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, baseConfig+`
library:
  fixed_deposit: "25"
  deposit_presets: [5, 15, 30]
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FixedDepositAmount() != 25 {
		t.Fatalf("fixed deposit = %d, want 25", cfg.FixedDepositAmount())
	}
	if len(cfg.Library.DepositPresets) != 3 || cfg.Library.DepositPresets[0] != 5 {
		t.Fatalf("presets = %v", cfg.Library.DepositPresets)
	}
}

func TestLoadConfigPromptKeyword(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, baseConfig+`
library:
  fixed_deposit: "prompt"
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FixedDepositAmount() >= 0 {
		t.Fatalf("fixed deposit = %d, want prompt (negative)", cfg.FixedDepositAmount())
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"negative fixed deposit", baseConfig + "library:\n  fixed_deposit: \"-5\"\n"},
		{"garbage fixed deposit", baseConfig + "library:\n  fixed_deposit: \"lots\"\n"},
		{"zero preset", baseConfig + "library:\n  deposit_presets: [10, 0]\n"},
		{"missing token", "telegram:\n  run_mode: longpoll\n"},
		{"unknown rate limit exclusion", baseConfig + "rate_limit:\n  exclude_updates: [callback]\n"},
	}
	for _, tc := range cases {
		if _, err := LoadConfig(writeConfig(t, tc.body)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
