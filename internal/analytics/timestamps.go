package analytics

import (
	"time"

	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
)

const (
	// DefaultWindow is used when the caller gives no start.
	DefaultWindow = 30 * 24 * time.Hour
	// MaxWindow caps how far back a single summary reaches.
	MaxWindow = 366 * 24 * time.Hour
)

// ResolveWindow fills in a missing end (now) and start (end - DefaultWindow)
// and rejects inverted or oversized windows. Results are UTC.
func ResolveWindow(start, end, now time.Time) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.Add(-DefaultWindow)
	}
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	if end.Sub(start) > MaxWindow {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "window must not exceed 366 days")
	}
	return start, end, nil
}

// DayBucket formats t as its UTC calendar date.
func DayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
