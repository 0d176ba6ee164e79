package market

import (
	"time"
)

// IST is the exchange timezone (NSE).
var IST = time.FixedZone("IST", 5*3600+30*60)

// Window is a daily time-of-day interval, inclusive on both ends.
type Window struct {
	StartHour   int `yaml:"start_hour"`
	StartMinute int `yaml:"start_minute"`
	EndHour     int `yaml:"end_hour"`
	EndMinute   int `yaml:"end_minute"`
}

// Contains reports whether t (converted to IST) falls inside the window.
func (w Window) Contains(t time.Time) bool {
	t = t.In(IST)
	start := time.Date(t.Year(), t.Month(), t.Day(), w.StartHour, w.StartMinute, 0, 0, IST)
	end := time.Date(t.Year(), t.Month(), t.Day(), w.EndHour, w.EndMinute, 0, 0, IST)
	return !t.Before(start) && !t.After(end)
}

// Clock answers session-timing questions for the evaluation loop.
type Clock struct {
	Trading   Window // full market session
	Signals   Window // new entries allowed only inside this window
	SquareOff Window // positions force-closed once inside this window

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// DefaultClock returns NSE hours: 09:15-15:30 session, signals until 14:30,
// square-off from 15:10.
func DefaultClock() *Clock {
	return &Clock{
		Trading:   Window{9, 15, 15, 30},
		Signals:   Window{9, 15, 14, 30},
		SquareOff: Window{15, 10, 15, 30},
	}
}

func (c *Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// NowIST returns the current session time in exchange timezone.
func (c *Clock) NowIST() time.Time {
	return c.now().In(IST)
}

// IsTradingTime reports whether we are inside market hours on a weekday.
func (c *Clock) IsTradingTime() bool {
	t := c.now().In(IST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return c.Trading.Contains(t)
}

// IsSignalTime reports whether new entries may still be generated.
func (c *Clock) IsSignalTime() bool {
	return c.IsTradingTime() && c.Signals.Contains(c.now())
}

// IsSquareOffTime reports whether the session expiry exit applies.
func (c *Clock) IsSquareOffTime() bool {
	return c.IsTradingTime() && c.SquareOff.Contains(c.now())
}
