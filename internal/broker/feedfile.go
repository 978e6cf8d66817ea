package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"krx-trader/internal/models"
)

// FileFeed is a PriceFeed backed by a JSON snapshot file, used in paper mode
// where no live market-data collaborator is wired.
//
// File shape: {"005930": {"price": 70000, "closes": [68000, 68500, ...]}}
// with closes ordered oldest first, one per trading session.
type FileFeed struct {
	quotes map[string]fileQuote
	asOf   time.Time
}

type fileQuote struct {
	Price  float64   `json:"price"`
	Closes []float64 `json:"closes"`
}

// NewFileFeed loads the snapshot file.
func NewFileFeed(path string) (*FileFeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading price feed: %w", err)
	}

	quotes := make(map[string]fileQuote)
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("parsing price feed: %w", err)
	}

	info, err := os.Stat(path)
	asOf := time.Now()
	if err == nil {
		asOf = info.ModTime()
	}

	return &FileFeed{quotes: quotes, asOf: asOf}, nil
}

// CurrentPrice returns the snapshot price for the stock.
func (f *FileFeed) CurrentPrice(ctx context.Context, stockID string) (float64, error) {
	quote, ok := f.quotes[stockID]
	if !ok || quote.Price <= 0 {
		return 0, fmt.Errorf("no price for %s in feed snapshot", stockID)
	}
	return quote.Price, nil
}

// Candles reconstructs daily candles from the snapshot closes, oldest first.
func (f *FileFeed) Candles(ctx context.Context, stockID string, days int) ([]models.Candle, error) {
	quote, ok := f.quotes[stockID]
	if !ok {
		return nil, fmt.Errorf("no candles for %s in feed snapshot", stockID)
	}

	closes := quote.Closes
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}

	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Date:  f.asOf.AddDate(0, 0, -(len(closes) - 1 - i)),
			Close: c,
		}
	}
	return candles, nil
}

// Stocks lists the stock IDs present in the snapshot, sorted.
func (f *FileFeed) Stocks() []string {
	ids := make([]string, 0, len(f.quotes))
	for id := range f.quotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
