package bot

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/librobot/core/config"
	coredatabase "github.com/m3rciful/librobot/core/database"
)

// depositPrompt marks the fixed-deposit policy as "ask every checkout".
const depositPrompt = -1

// LibraryConfig holds lending-policy settings.
type LibraryConfig struct {
	// FixedDeposit is either "prompt" (ask the operator on every first
	// checkout) or a non-negative integer charged without asking.
	FixedDeposit string `yaml:"fixed_deposit" envconfig:"LIBRARY_FIXED_DEPOSIT"`
	// DepositPresets are the quick-pick amounts on the deposit keyboard.
	DepositPresets []int `yaml:"deposit_presets" envconfig:"LIBRARY_DEPOSIT_PRESETS"`
}

// Config aggregates core, database, and library settings for the bot.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Library  LibraryConfig       `yaml:"library"`

	fixedDeposit int
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// FixedDepositAmount returns the parsed fixed deposit, or a negative value
// when the operator should be prompted per checkout.
func (c *Config) FixedDepositAmount() int {
	return c.fixedDeposit
}

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalizeLibrary(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalizeLibrary(cfg *Config) error {
	raw := strings.ToLower(strings.TrimSpace(cfg.Library.FixedDeposit))
	switch raw {
	case "", "prompt":
		cfg.fixedDeposit = depositPrompt
	default:
		amount, err := strconv.Atoi(raw)
		if err != nil || amount < 0 {
			return fmt.Errorf("invalid library.fixed_deposit %q; allowed: \"prompt\" or a non-negative integer", cfg.Library.FixedDeposit)
		}
		cfg.fixedDeposit = amount
	}

	for _, p := range cfg.Library.DepositPresets {
		if p <= 0 {
			return fmt.Errorf("invalid library.deposit_presets value %d; presets must be positive", p)
		}
	}
	return nil
}
