package contracts

import (
	"fmt"
	"time"
)

// compact date layout used for all external date parameters
const CompactDateLayout = "20060102"

// TimeWindow is a date range. Whether the bounds are half-open or closed is
// the caller's concern; invariant Start <= End.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a window and enforces Start <= End
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if start.After(end) {
		return TimeWindow{}, fmt.Errorf("invalid window: start %s after end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Contains reports whether t falls within [Start, End] inclusive, with the
// end bound normalized to 23:59:59 so same-day entries carrying a
// time-of-day component are kept.
func (w TimeWindow) Contains(t time.Time) bool {
	end := time.Date(w.End.Year(), w.End.Month(), w.End.Day(), 23, 59, 59, 0, w.End.Location())
	return !t.Before(w.Start) && !t.After(end)
}

// ParseCompactDate parses an 8-digit YYYYMMDD date string
func ParseCompactDate(s string) (time.Time, error) {
	t, err := time.Parse(CompactDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYYMMDD): %w", s, err)
	}
	return t, nil
}
