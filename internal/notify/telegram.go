package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"krx-trader/internal/config"
	"krx-trader/internal/models"
)

// TelegramChannel delivers human-readable signal messages via a Telegram bot.
type TelegramChannel struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// NewTelegramChannel creates a Telegram delivery channel.
func NewTelegramChannel(cfg config.TelegramConfig) *TelegramChannel {
	return &TelegramChannel{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (t *TelegramChannel) Name() string {
	return "telegram"
}

func (t *TelegramChannel) IsEnabled() bool {
	return t.enabled
}

// SendBuy delivers a formatted buy message.
func (t *TelegramChannel) SendBuy(ctx context.Context, signal *models.BuySignal) error {
	status := "executed"
	if !signal.TradeSuccess {
		status = "FAILED"
	}
	text := fmt.Sprintf(
		"<b>BUY %s</b> (%s) [%s]\nPrice: %.0f\nTarget: %.0f / Stop: %.0f\nHorizon: %s, score %d\nSector: %s\n%s",
		escapeHTML(signal.CompanyName), signal.Ticker, status,
		signal.Price, signal.TargetPrice, signal.StopLoss,
		signal.InvestmentPeriod, signal.BuyScore,
		escapeHTML(signal.Sector), escapeHTML(signal.Rationale))
	return t.sendMessage(ctx, text)
}

// SendSell delivers a formatted sell message.
func (t *TelegramChannel) SendSell(ctx context.Context, signal *models.SellSignal) error {
	status := "executed"
	if !signal.TradeSuccess {
		status = "FAILED"
	}
	text := fmt.Sprintf(
		"<b>SELL %s</b> (%s) [%s]\nPrice: %.0f (bought %.0f)\nReturn: %+.2f%%\nReason: %s",
		escapeHTML(signal.CompanyName), signal.Ticker, status,
		signal.Price, signal.BuyPrice, signal.ProfitRate, signal.SellReason)
	return t.sendMessage(ctx, text)
}

func (t *TelegramChannel) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
