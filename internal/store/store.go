// Package store provides durable persistence for positions, trade history,
// and performance metrics.
package store

import (
	"context"
	"time"

	"krx-trader/internal/models"
)

// PositionStore is the durable record of holdings and trade history. It is
// the only mutable shared resource in the engine; implementations must keep
// every mutation atomic with respect to Snapshot.
type PositionStore interface {
	// Open records a new position and its buy trade. Fails with
	// DuplicatePositionError if the stock already has an open position.
	Open(ctx context.Context, position *models.Position) error

	// Close removes the position, archives the sell to trade history, and
	// returns the archived record. Fails with NoSuchPositionError if no
	// position is open for the stock.
	Close(ctx context.Context, stockID string, exitPrice float64, reason string, now time.Time) (*models.TradeRecord, error)

	// Snapshot returns the current portfolio view. A snapshot never
	// observes a partially applied open or close.
	Snapshot(ctx context.Context) (*models.Portfolio, error)

	// History returns trade records ordered oldest first. An empty stockID
	// returns the full journal.
	History(ctx context.Context, stockID string) ([]models.TradeRecord, error)

	// RecordSkip documents a candidate the cycle could not process.
	RecordSkip(ctx context.Context, skip *models.SkipRecord) error

	// Skips returns the most recent skip records, newest first.
	Skips(ctx context.Context, limit int) ([]models.SkipRecord, error)

	// Performance computes realized performance over the sell history and
	// persists the snapshot.
	Performance(ctx context.Context, now time.Time) (*models.PerformanceMetrics, error)

	// Close releases the underlying database.
	Shutdown() error
}
