package analysis

import (
	"math"

	"krx-trader/internal/errors"
	"krx-trader/internal/models"
)

// DefaultTrendWindow is the number of trailing sessions used when the
// caller does not configure one.
const DefaultTrendWindow = 7

// EstimateTrend fits an ordinary least-squares line through the closing
// prices of the trailing window sessions and classifies the market regime
// from the slope. Candles must be ordered oldest first.
func EstimateTrend(candles []models.Candle, window int) (*models.TrendSignal, error) {
	if window <= 1 {
		window = DefaultTrendWindow
	}
	if len(candles) < window {
		return nil, errors.Wrapf(errors.ErrInsufficientData,
			"trend estimation needs %d sessions, have %d", window, len(candles))
	}

	recent := candles[len(candles)-window:]

	// OLS slope of close against session index 0..window-1.
	n := float64(window)
	var sumX, sumY, sumXY, sumXX float64
	for i, c := range recent {
		x := float64(i)
		sumX += x
		sumY += c.Close
		sumXY += x * c.Close
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil, errors.Wrap(errors.ErrInsufficientData, "degenerate trend window")
	}
	slope := (n*sumXY - sumX*sumY) / denom
	meanPrice := sumY / n

	signal := &models.TrendSignal{Slope: slope}
	if meanPrice > 0 {
		signal.Strength = math.Abs(slope) / meanPrice
	}

	// Flat band scaled to price level; a slope below one-tenth of a
	// percent of mean price per session is noise, not trend.
	epsilon := 0.001 * meanPrice
	switch {
	case slope > epsilon:
		signal.Direction = models.TrendUp
	case slope < -epsilon:
		signal.Direction = models.TrendDown
	default:
		signal.Direction = models.TrendFlat
	}

	return signal, nil
}

// Regime maps a trend signal onto the market regime used to select
// entry thresholds. Only a clear uptrend counts as bullish.
func Regime(signal *models.TrendSignal) models.MarketRegime {
	if signal != nil && signal.Direction == models.TrendUp {
		return models.RegimeBull
	}
	return models.RegimeBearOrSideways
}
