package market

import (
	"testing"
	"time"
)

func fixedClock(hour, min int, weekday time.Weekday) *Clock {
	c := DefaultClock()
	// 2026-08-03 is a Monday; shift to the requested weekday.
	base := time.Date(2026, 8, 3, hour, min, 0, 0, IST)
	offset := int(weekday - base.Weekday())
	base = base.AddDate(0, 0, offset)
	c.Now = func() time.Time { return base }
	return c
}

func TestClockWindows(t *testing.T) {
	tests := []struct {
		name      string
		hour, min int
		weekday   time.Weekday
		trading   bool
		signals   bool
		squareOff bool
	}{
		{"pre-open", 9, 0, time.Monday, false, false, false},
		{"open", 9, 15, time.Monday, true, true, false},
		{"midday", 12, 0, time.Wednesday, true, true, false},
		{"after signal cutoff", 14, 45, time.Thursday, true, false, false},
		{"square-off", 15, 15, time.Friday, true, false, true},
		{"after close", 15, 45, time.Monday, false, false, false},
		{"weekend", 12, 0, time.Saturday, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixedClock(tt.hour, tt.min, tt.weekday)
			if got := c.IsTradingTime(); got != tt.trading {
				t.Fatalf("IsTradingTime=%v, expected %v", got, tt.trading)
			}
			if got := c.IsSignalTime(); got != tt.signals {
				t.Fatalf("IsSignalTime=%v, expected %v", got, tt.signals)
			}
			if got := c.IsSquareOffTime(); got != tt.squareOff {
				t.Fatalf("IsSquareOffTime=%v, expected %v", got, tt.squareOff)
			}
		})
	}
}
