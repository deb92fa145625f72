package domain

// Timings is the process-wide hour-of-day configuration driving the
// time-window gate. Hours are 0-23; each window is half-open [start, end)
// and a start greater than its end wraps past midnight.
type Timings struct {
	PostingWindowStart int `json:"postingWindowStart"`
	PostingWindowEnd   int `json:"postingWindowEnd"`
	NightModeStart     int `json:"nightModeStart"`
	NightModeEnd       int `json:"nightModeEnd"`
}

// DefaultTimings mirrors the values served when no configuration has
// ever been written.
func DefaultTimings() Timings {
	return Timings{
		PostingWindowStart: 0,
		PostingWindowEnd:   5,
		NightModeStart:     0,
		NightModeEnd:       6,
	}
}

// ValidHour reports whether h is a valid hour-of-day.
func ValidHour(h int) bool {
	return h >= 0 && h <= 23
}

// Valid checks every configured hour; no further validation is applied.
func (t Timings) Valid() bool {
	return ValidHour(t.PostingWindowStart) && ValidHour(t.PostingWindowEnd) &&
		ValidHour(t.NightModeStart) && ValidHour(t.NightModeEnd)
}

// InRange reports whether hour falls inside [start, end). A range with
// start > end wraps past midnight (start=22, end=6 covers 22:00-05:59);
// start == end is the empty range.
func InRange(hour, start, end int) bool {
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// PostingAllowed evaluates the posting window at the given hour.
func (t Timings) PostingAllowed(hour int) bool {
	return InRange(hour, t.PostingWindowStart, t.PostingWindowEnd)
}

// NightMode evaluates the night-mode window at the given hour.
func (t Timings) NightMode(hour int) bool {
	return InRange(hour, t.NightModeStart, t.NightModeEnd)
}
