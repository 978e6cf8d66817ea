// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "krx-trader", "logs", "trader.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithStock adds a stock ID to the logger context.
func WithStock(logger zerolog.Logger, stockID string) zerolog.Logger {
	return logger.With().Str("stock_id", stockID).Logger()
}

// WithStrategy adds a strategy name to the logger context.
func WithStrategy(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("strategy", name).Logger()
}

// LogOrder logs an order dispatch.
func LogOrder(logger zerolog.Logger, stockID, side, orderType string, qty int, price float64) {
	logger.Info().
		Str("event", "order").
		Str("stock_id", stockID).
		Str("side", side).
		Str("order_type", orderType).
		Int("quantity", qty).
		Float64("price", price).
		Msg("Order dispatched")
}

// LogScenario logs a scenario evaluation outcome.
func LogScenario(logger zerolog.Logger, stockID, decision string, score, minScore int) {
	logger.Info().
		Str("event", "scenario").
		Str("stock_id", stockID).
		Str("decision", decision).
		Int("score", score).
		Int("min_score", minScore).
		Msg("Scenario evaluated")
}

// LogSellDecision logs a sell decision.
func LogSellDecision(logger zerolog.Logger, stockID string, shouldSell bool, reason string, confidence float64) {
	logger.Info().
		Str("event", "sell_decision").
		Str("stock_id", stockID).
		Bool("should_sell", shouldSell).
		Str("reason", reason).
		Float64("confidence", confidence).
		Msg("Sell decision")
}

// LogSkip logs a skipped candidate with its reason code.
func LogSkip(logger zerolog.Logger, stockID, reason string) {
	logger.Warn().
		Str("event", "skip").
		Str("stock_id", stockID).
		Str("reason", reason).
		Msg("Candidate skipped")
}
