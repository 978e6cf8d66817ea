package utils

import (
	"testing"
	"time"
)

// 2026-08-28 is a Friday, 2026-08-29/30 the following weekend.
func kstDate(day, hour, minute int) time.Time {
	return time.Date(2026, 8, day, hour, minute, 0, 0, KoreaLocation)
}

func TestIsTradingDay(t *testing.T) {
	if !IsTradingDay(kstDate(28, 10, 0)) {
		t.Error("Friday should be a trading day")
	}
	if IsTradingDay(kstDate(29, 10, 0)) {
		t.Error("Saturday should not be a trading day")
	}
	if IsTradingDay(kstDate(30, 10, 0)) {
		t.Error("Sunday should not be a trading day")
	}
}

func TestIsRegularSession(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{8, 59, false},
		{9, 0, true},
		{15, 30, true},
		{15, 45, false}, // closing-price auction, not the regular session
		{16, 30, false},
	}
	for _, tt := range tests {
		if got := IsRegularSession(kstDate(28, tt.hour, tt.minute)); got != tt.want {
			t.Errorf("IsRegularSession(%02d:%02d) = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func TestNextSessionOpen(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"before open same day", kstDate(28, 8, 0), kstDate(28, 9, 0)},
		{"after open skips weekend", kstDate(28, 10, 0), kstDate(31, 9, 0)},
		{"saturday rolls to monday", kstDate(29, 12, 0), kstDate(31, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSessionOpen(tt.at); !got.Equal(tt.want) {
				t.Errorf("NextSessionOpen(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSessionClose(t *testing.T) {
	got := SessionClose(kstDate(28, 10, 0))
	if got.Hour() != 15 || got.Minute() != 30 || got.Day() != 28 {
		t.Errorf("SessionClose = %v, want 15:30 same day", got)
	}
}
