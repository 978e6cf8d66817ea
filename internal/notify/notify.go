// Package notify broadcasts executed trade signals to downstream channels.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"krx-trader/internal/config"
	"krx-trader/internal/models"
	"krx-trader/pkg/utils"
)

// deliveryRetryConfig retries one transient channel failure per signal.
func deliveryRetryConfig() utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  time.Second,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Channel is one delivery target for signal broadcast.
type Channel interface {
	Name() string
	SendBuy(ctx context.Context, signal *models.BuySignal) error
	SendSell(ctx context.Context, signal *models.SellSignal) error
	IsEnabled() bool
}

// Broadcaster fans a signal out to every enabled channel. Channel failures
// are logged and never propagate; publication is best effort.
type Broadcaster struct {
	channels []Channel
	retry    utils.RetryConfig
	logger   zerolog.Logger
}

// NewBroadcaster builds the broadcaster from configuration.
func NewBroadcaster(cfg config.NotificationConfig, logger zerolog.Logger) *Broadcaster {
	b := &Broadcaster{retry: deliveryRetryConfig(), logger: logger}
	if !cfg.Enabled {
		return b
	}
	if cfg.Webhook.Enabled {
		b.channels = append(b.channels, NewWebhookChannel(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		b.channels = append(b.channels, NewTelegramChannel(cfg.Telegram))
	}
	return b
}

// PublishBuy delivers a buy signal to all enabled channels.
func (b *Broadcaster) PublishBuy(ctx context.Context, signal *models.BuySignal) error {
	for _, ch := range b.channels {
		if !ch.IsEnabled() {
			continue
		}
		err := utils.Retry(ctx, b.retry, func() error {
			return ch.SendBuy(ctx, signal)
		})
		if err != nil {
			b.logger.Warn().
				Err(err).
				Str("channel", ch.Name()).
				Str("ticker", signal.Ticker).
				Msg("buy signal delivery failed")
		}
	}
	return nil
}

// PublishSell delivers a sell signal to all enabled channels.
func (b *Broadcaster) PublishSell(ctx context.Context, signal *models.SellSignal) error {
	for _, ch := range b.channels {
		if !ch.IsEnabled() {
			continue
		}
		err := utils.Retry(ctx, b.retry, func() error {
			return ch.SendSell(ctx, signal)
		})
		if err != nil {
			b.logger.Warn().
				Err(err).
				Str("channel", ch.Name()).
				Str("ticker", signal.Ticker).
				Msg("sell signal delivery failed")
		}
	}
	return nil
}
