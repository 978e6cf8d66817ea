package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# KRX Trader Configuration

[trading]
# Trading mode: "live" or "paper"
mode = "paper"
# Amount of KRW committed per buy decision
unit_amount = 1000000.0

[risk]
# Maximum number of open positions
max_slots = 10
# Maximum open positions per sector
max_same_sector = 3
# Maximum fraction of slots in one sector
max_sector_concentration = 0.3
# Admission thresholds by market regime
bull_min_score = 6
bull_min_risk_reward = 1.5
bear_min_score = 7
bear_min_risk_reward = 2.0

[agents]
# OpenAI model for advisory strategies
model = "gpt-4o"
# Consult the advisory strategy before the rule fallback
advisory_buy = true
advisory_sell = true
# Trailing sessions used for trend estimation
trend_window = 7

[notifications]
enabled = false

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""
`

const credentialsTemplate = `# KRX Trader Credentials
# Keep this file private (chmod 600).

[openai]
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
