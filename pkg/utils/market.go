package utils

import (
	"time"

	"krx-trader/internal/models"
)

// KoreaLocation is the timezone for the Korean exchange.
var KoreaLocation *time.Location

func init() {
	var err error
	KoreaLocation, err = time.LoadLocation("Asia/Seoul")
	if err != nil {
		// Fallback to UTC+9
		KoreaLocation = time.FixedZone("KST", 9*60*60)
	}
}

// SessionBand classifies a wall-clock time into the order-type band used by
// the order router: 09:00-15:30 regular session, 15:40-16:00 closing-price
// auction, anything else queues a reserved order for the next session.
func SessionBand(t time.Time) models.OrderType {
	local := t.In(KoreaLocation)
	minutes := local.Hour()*60 + local.Minute()

	switch {
	case minutes >= 540 && minutes <= 930: // 09:00 - 15:30
		return models.OrderTypeMarket
	case minutes >= 940 && minutes <= 960: // 15:40 - 16:00
		return models.OrderTypeClosingPrice
	default:
		return models.OrderTypeReserved
	}
}

// IsRegularSession returns true during the 09:00-15:30 continuous session.
func IsRegularSession(t time.Time) bool {
	return SessionBand(t) == models.OrderTypeMarket
}

// IsTradingDay returns false on weekends. Exchange holidays are not modeled;
// reserved orders placed on a holiday simply queue for the next session.
func IsTradingDay(t time.Time) bool {
	wd := t.In(KoreaLocation).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextSessionOpen returns the next 09:00 KST session open after t.
func NextSessionOpen(t time.Time) time.Time {
	local := t.In(KoreaLocation)
	next := time.Date(local.Year(), local.Month(), local.Day(), 9, 0, 0, 0, KoreaLocation)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SessionClose returns the 15:30 KST close of t's trading day.
func SessionClose(t time.Time) time.Time {
	local := t.In(KoreaLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 15, 30, 0, 0, KoreaLocation)
}
