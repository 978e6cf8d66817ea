package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"krx-trader/internal/errors"
	"krx-trader/internal/models"
)

// SQLiteStore implements PositionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and initializes
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	// Single-writer discipline: the batch pipeline is sequential, so one
	// connection serializes all mutations against snapshot reads.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrStoreUnavailable, "schema init: %v", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Open positions, one row per occupied slot
	CREATE TABLE IF NOT EXISTS positions (
		stock_id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		sector TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		entry_date TEXT NOT NULL,
		target_price REAL NOT NULL,
		stop_loss REAL NOT NULL,
		horizon TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	-- Trade journal, every confirmed buy and sell
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stock_id TEXT NOT NULL,
		company_name TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		reason TEXT,
		profit_loss REAL,
		profit_loss_rate REAL,
		holding_days INTEGER,
		traded_at TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_stock ON trades(stock_id, traded_at);

	-- Candidates a cycle could not process
	CREATE TABLE IF NOT EXISTS skips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stock_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		reason TEXT NOT NULL,
		detail TEXT,
		occurred_at TEXT NOT NULL
	);

	-- Realized performance snapshots
	CREATE TABLE IF NOT EXISTS performance_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		calculation_date TEXT NOT NULL,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		losing_trades INTEGER NOT NULL,
		win_rate REAL NOT NULL,
		cumulative_return REAL NOT NULL,
		avg_return_per_trade REAL NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := s.db.Exec(schema)
	return err
}

// Open records a new position and its buy trade atomically.
func (s *SQLiteStore) Open(ctx context.Context, position *models.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM positions WHERE stock_id = ?", position.StockID).Scan(&exists)
	if err != nil {
		return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	if exists > 0 {
		return &errors.DuplicatePositionError{StockID: position.StockID}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO positions (stock_id, company_name, sector, quantity, entry_price, entry_date, target_price, stop_loss, horizon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		position.StockID, position.CompanyName, position.Sector, position.Quantity,
		position.EntryPrice, position.EntryDate.Format(time.RFC3339),
		position.TargetPrice, position.StopLoss, string(position.Horizon))
	if err != nil {
		return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades (stock_id, company_name, side, quantity, price, reason, traded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		position.StockID, position.CompanyName, string(models.OrderSideBuy),
		position.Quantity, position.EntryPrice, "", position.EntryDate.Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// Close removes the position and archives the sell atomically.
func (s *SQLiteStore) Close(ctx context.Context, stockID string, exitPrice float64, reason string, now time.Time) (*models.TradeRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	defer tx.Rollback()

	position, err := scanPosition(tx.QueryRowContext(ctx, `
		SELECT stock_id, company_name, sector, quantity, entry_price, entry_date, target_price, stop_loss, horizon
		FROM positions WHERE stock_id = ?`, stockID))
	if err == sql.ErrNoRows {
		return nil, &errors.NoSuchPositionError{StockID: stockID}
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	profitLoss := (exitPrice - position.EntryPrice) * float64(position.Quantity)
	profitRate := 0.0
	if position.EntryPrice > 0 {
		profitRate = (exitPrice/position.EntryPrice - 1) * 100
	}
	holdingDays := position.HoldingDays(now)

	record := &models.TradeRecord{
		StockID:     position.StockID,
		CompanyName: position.CompanyName,
		Side:        models.OrderSideSell,
		Quantity:    position.Quantity,
		Price:       exitPrice,
		Reason:      reason,
		ProfitLoss:  profitLoss,
		ProfitRate:  profitRate,
		HoldingDays: holdingDays,
		TradedAt:    now,
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO trades (stock_id, company_name, side, quantity, price, reason, profit_loss, profit_loss_rate, holding_days, traded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.StockID, record.CompanyName, string(record.Side), record.Quantity,
		record.Price, record.Reason, record.ProfitLoss, record.ProfitRate,
		record.HoldingDays, now.Format(time.RFC3339))
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	record.ID, _ = result.LastInsertId()

	if _, err := tx.ExecContext(ctx, "DELETE FROM positions WHERE stock_id = ?", stockID); err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return record, nil
}

// Snapshot returns the current portfolio view.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*models.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stock_id, company_name, sector, quantity, entry_price, entry_date, target_price, stop_loss, horizon
		FROM positions ORDER BY entry_date`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	defer rows.Close()

	portfolio := &models.Portfolio{}
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
		}
		portfolio.Positions = append(portfolio.Positions, *position)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return portfolio, nil
}

// History returns trade records oldest first; empty stockID returns all.
func (s *SQLiteStore) History(ctx context.Context, stockID string) ([]models.TradeRecord, error) {
	query := `
		SELECT id, stock_id, company_name, side, quantity, price,
		       COALESCE(reason, ''), COALESCE(profit_loss, 0),
		       COALESCE(profit_loss_rate, 0), COALESCE(holding_days, 0), traded_at
		FROM trades`
	args := []any{}
	if stockID != "" {
		query += " WHERE stock_id = ?"
		args = append(args, stockID)
	}
	query += " ORDER BY traded_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	defer rows.Close()

	var records []models.TradeRecord
	for rows.Next() {
		var r models.TradeRecord
		var side, tradedAt string
		if err := rows.Scan(&r.ID, &r.StockID, &r.CompanyName, &side, &r.Quantity,
			&r.Price, &r.Reason, &r.ProfitLoss, &r.ProfitRate, &r.HoldingDays, &tradedAt); err != nil {
			return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
		}
		r.Side = models.OrderSide(side)
		r.TradedAt, _ = time.Parse(time.RFC3339, tradedAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return records, nil
}

// RecordSkip documents a candidate the cycle could not process.
func (s *SQLiteStore) RecordSkip(ctx context.Context, skip *models.SkipRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skips (stock_id, stage, reason, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		skip.StockID, skip.Stage, skip.Reason, skip.Detail,
		skip.OccurredAt.Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// Skips returns the most recent skip records, newest first.
func (s *SQLiteStore) Skips(ctx context.Context, limit int) ([]models.SkipRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stock_id, stage, reason, COALESCE(detail, ''), occurred_at
		FROM skips ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	defer rows.Close()

	var skips []models.SkipRecord
	for rows.Next() {
		var rec models.SkipRecord
		var occurredAt string
		if err := rows.Scan(&rec.ID, &rec.StockID, &rec.Stage, &rec.Reason, &rec.Detail, &occurredAt); err != nil {
			return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
		}
		rec.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
		skips = append(skips, rec)
	}
	return skips, rows.Err()
}

// Performance computes realized performance over the sell history and
// persists the snapshot.
func (s *SQLiteStore) Performance(ctx context.Context, now time.Time) (*models.PerformanceMetrics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN profit_loss > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN profit_loss <= 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(profit_loss_rate), 0),
		       COALESCE(AVG(profit_loss_rate), 0)
		FROM trades WHERE side = ?`, string(models.OrderSideSell))

	metrics := &models.PerformanceMetrics{CalculationDate: now}
	err := row.Scan(&metrics.TotalTrades, &metrics.WinningTrades, &metrics.LosingTrades,
		&metrics.CumulativeReturn, &metrics.AvgReturnPerTrade)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	if metrics.TotalTrades > 0 {
		metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO performance_metrics (calculation_date, total_trades, winning_trades, losing_trades, win_rate, cumulative_return, avg_return_per_trade)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		now.Format(time.RFC3339), metrics.TotalTrades, metrics.WinningTrades,
		metrics.LosingTrades, metrics.WinRate, metrics.CumulativeReturn, metrics.AvgReturnPerTrade)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStoreUnavailable, err.Error())
	}
	return metrics, nil
}

// Shutdown releases the underlying database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	var entryDate, horizon string
	err := row.Scan(&p.StockID, &p.CompanyName, &p.Sector, &p.Quantity,
		&p.EntryPrice, &entryDate, &p.TargetPrice, &p.StopLoss, &horizon)
	if err != nil {
		return nil, err
	}
	p.EntryDate, err = time.Parse(time.RFC3339, entryDate)
	if err != nil {
		return nil, fmt.Errorf("parse entry date: %w", err)
	}
	p.Horizon = models.Horizon(horizon)
	return &p, nil
}
