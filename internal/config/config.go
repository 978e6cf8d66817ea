// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"krx-trader/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Trading       TradingConfig      `mapstructure:"trading"`
	Risk          RiskConfig         `mapstructure:"risk"`
	Agents        AgentConfig        `mapstructure:"agents"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Mode       string  `mapstructure:"mode"`        // "live", "paper"
	UnitAmount float64 `mapstructure:"unit_amount"` // KRW per buy
	DBPath     string  `mapstructure:"db_path"`
}

// RiskConfig holds the portfolio constraint policy. Injected into the
// portfolio guard and scenario evaluator so tests can vary it.
type RiskConfig struct {
	MaxSlots               int     `mapstructure:"max_slots"`
	MaxSameSector          int     `mapstructure:"max_same_sector"`
	MaxSectorConcentration float64 `mapstructure:"max_sector_concentration"`
	BullMinScore           int     `mapstructure:"bull_min_score"`
	BullMinRiskReward      float64 `mapstructure:"bull_min_risk_reward"`
	BearMinScore           int     `mapstructure:"bear_min_score"`
	BearMinRiskReward      float64 `mapstructure:"bear_min_risk_reward"`
}

// Thresholds returns the regime-dependent admission thresholds.
func (r *RiskConfig) Thresholds(regime models.MarketRegime) (minScore int, minRiskReward float64) {
	if regime == models.RegimeBull {
		return r.BullMinScore, r.BullMinRiskReward
	}
	return r.BearMinScore, r.BearMinRiskReward
}

// DefaultRiskConfig returns the standard constraint policy.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxSlots:               10,
		MaxSameSector:          3,
		MaxSectorConcentration: 0.3,
		BullMinScore:           6,
		BullMinRiskReward:      1.5,
		BearMinScore:           7,
		BearMinRiskReward:      2.0,
	}
}

// AgentConfig holds decision-strategy configuration.
type AgentConfig struct {
	Model        string `mapstructure:"model"`
	AdvisoryBuy  bool   `mapstructure:"advisory_buy"`
	AdvisorySell bool   `mapstructure:"advisory_sell"`
	TrendWindow  int    `mapstructure:"trend_window"`
}

// NotificationConfig holds signal broadcast configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook broadcast configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram broadcast configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/krx-trader"
	}
	return filepath.Join(home, ".config", "krx-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := createTemplateConfig(configDir); werr != nil {
				return werr
			}
			// Fall through with defaults only
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.mode", "paper")
	v.SetDefault("trading.unit_amount", 1000000.0)
	v.SetDefault("trading.db_path", filepath.Join(DefaultConfigDir(), "trader.db"))

	risk := DefaultRiskConfig()
	v.SetDefault("risk.max_slots", risk.MaxSlots)
	v.SetDefault("risk.max_same_sector", risk.MaxSameSector)
	v.SetDefault("risk.max_sector_concentration", risk.MaxSectorConcentration)
	v.SetDefault("risk.bull_min_score", risk.BullMinScore)
	v.SetDefault("risk.bull_min_risk_reward", risk.BullMinRiskReward)
	v.SetDefault("risk.bear_min_score", risk.BearMinScore)
	v.SetDefault("risk.bear_min_risk_reward", risk.BearMinRiskReward)

	v.SetDefault("agents.model", "gpt-4o")
	v.SetDefault("agents.advisory_buy", true)
	v.SetDefault("agents.advisory_sell", true)
	v.SetDefault("agents.trend_window", 7)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
	if v := os.Getenv("UNIT_AMOUNT"); v != "" {
		if amount, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.UnitAmount = amount
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notifications.Telegram.ChatID = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Mode != "" && c.Trading.Mode != "live" && c.Trading.Mode != "paper" {
		return fmt.Errorf("invalid trading mode: %s (must be 'live' or 'paper')", c.Trading.Mode)
	}
	if c.Trading.UnitAmount <= 0 {
		return fmt.Errorf("unit_amount must be positive")
	}
	if c.Risk.MaxSlots <= 0 {
		return fmt.Errorf("max_slots must be positive")
	}
	if c.Risk.MaxSameSector <= 0 {
		return fmt.Errorf("max_same_sector must be positive")
	}
	if c.Risk.MaxSectorConcentration <= 0 || c.Risk.MaxSectorConcentration > 1 {
		return fmt.Errorf("max_sector_concentration must be in (0, 1]")
	}
	if c.Risk.BullMinScore < 1 || c.Risk.BullMinScore > 10 || c.Risk.BearMinScore < 1 || c.Risk.BearMinScore > 10 {
		return fmt.Errorf("min scores must be between 1 and 10")
	}
	if c.Risk.BullMinRiskReward <= 0 || c.Risk.BearMinRiskReward <= 0 {
		return fmt.Errorf("min risk-reward thresholds must be positive")
	}
	if c.Agents.TrendWindow < 2 {
		return fmt.Errorf("trend_window must be at least 2")
	}
	return nil
}

// IsPaperMode returns true if paper trading mode is enabled.
func (c *Config) IsPaperMode() bool {
	return c.Trading.Mode != "live"
}
