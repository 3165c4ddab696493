package ledger

import "time"

// Viewport is the fixed month window summaries are computed over, truncated
// to month boundaries on both ends.
type Viewport struct {
	Start time.Time
	End   time.Time
}

// NewViewport builds a viewport spanning monthsBack whole months before now
// through monthsForward whole months after it.
func NewViewport(now time.Time, monthsBack, monthsForward int) Viewport {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Viewport{
		Start: first.AddDate(0, -monthsBack, 0),
		End:   first.AddDate(0, monthsForward, 0),
	}
}

// Months returns the number of whole months between start and end.
func (v Viewport) Months() int {
	return (v.End.Year()-v.Start.Year())*12 + int(v.End.Month()) - int(v.Start.Month())
}

// Month returns the first day of the month at the given index into the
// viewport.
func (v Viewport) Month(index int) time.Time {
	return v.Start.AddDate(0, index, 0)
}
