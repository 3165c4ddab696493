// Package ledger is the pure computation core: it expands recurrence rules
// into dated occurrences, merges them with one-off entries into a sorted
// ledger, and aggregates that ledger into per-month financial summaries.
// Nothing in this package touches the store; it is deterministic over its
// inputs and recomputed from scratch on every relevant change.
package ledger

import (
	"time"

	"tally/internal/models"
)

// generationCeiling bounds how many frequency units an unbounded series may
// expand to. The caps (20 years / 240 months / 1248 weeks) all cover roughly
// two decades; they exist to keep generation finite and are not a
// user-visible limit. Bounded series are capped at the same ceiling.
var generationCeiling = map[models.Frequency]int{
	models.FrequencyYear:  20,
	models.FrequencyMonth: 240,
	models.FrequencyWeek:  1248,
}

// Occurrence is one non-deleted scheduled instance of a recurring series.
// Index is the 1-based slot ordinal; it counts slots considered, so a
// deleted slot still consumes an index and later occurrences never renumber.
// ModifiedEntry is nil for a plain ghost occurrence.
type Occurrence struct {
	Index         int
	Date          time.Time
	ExclusionID   string
	ModifiedEntry *models.Entry
}

// Span is the effective length of a series in frequency units, expressed as
// a tagged value instead of the stored "0 means unbounded" sentinel.
type Span struct {
	units     int
	unbounded bool
}

// FiniteSpan is a series that ends after the given number of units.
func FiniteSpan(units int) Span { return Span{units: units} }

// UnboundedSpan is a series with no user-defined end.
func UnboundedSpan() Span { return Span{unbounded: true} }

// Unbounded reports whether the span has no finite length.
func (s Span) Unbounded() bool { return s.unbounded }

// Units returns the finite length; zero for unbounded spans.
func (s Span) Units() int { return s.units }

// SpanOf reads a config's stored interval into a Span.
func SpanOf(config *models.RecurringConfig) Span {
	if config.Interval == 0 {
		return UnboundedSpan()
	}
	return FiniteSpan(config.Interval)
}

// stickyOverride carries an "apply to subsequents" modification forward:
// every later slot without an override of its own shows this amount, resets
// fulfilled, and (when dayOfMonth is set) drifts to that day of the month.
type stickyOverride struct {
	amount     string
	dayOfMonth int // 0 = keep the slot's own day
}

// Expand generates the concrete occurrences of a recurring series, honoring
// per-occurrence deletions and modifications. The start date is anchored at
// local noon so that repeatedly adding calendar units never slips a day
// across DST transitions. Exclusions match a slot by calendar day or by
// occurrence index; the index match is authoritative because a modified
// occurrence's date may itself have moved.
func Expand(config *models.RecurringConfig, exclusions []models.Exclusion) []Occurrence {
	occurrences := []Occurrence{}
	if config == nil || config.StartDate.IsZero() {
		return occurrences
	}
	ceiling, ok := generationCeiling[config.Frequency]
	if !ok {
		return occurrences
	}

	every := config.Every
	if every < 1 {
		// every=0 would loop forever; treat as 1
		every = 1
	}

	start := atNoon(config.StartDate)

	units := ceiling
	if span := SpanOf(config); !span.Unbounded() {
		units = span.Units()
	}
	if units < 0 {
		units = 0
	}
	if units > ceiling {
		units = ceiling
	}

	var sticky *stickyOverride

	index := 0
	for i := 0; i < units; i += every {
		index++
		slotDate := addUnits(start, config.Frequency, i)

		deletion := matchExclusion(exclusions, slotDate, index, models.ExclusionReasonDeletion)
		modification := matchExclusion(exclusions, slotDate, index, models.ExclusionReasonModification)

		if modification != nil && modification.ApplyToSubsequents && modification.ModifiedEntry != nil {
			s := &stickyOverride{amount: modification.ModifiedEntry.Amount}
			if modification.ModifiedDate != nil {
				s.dayOfMonth = modification.ModifiedDate.Day()
			}
			sticky = s
		}

		if deletion != nil {
			continue
		}

		var details *models.Entry
		switch {
		case modification != nil && modification.ModifiedEntry != nil:
			clone := *modification.ModifiedEntry
			details = &clone
		case sticky != nil && config.OriginEntry != nil:
			clone := *config.OriginEntry
			clone.ID = "" // synthesized, not materialized
			clone.Amount = sticky.amount
			clone.Fulfilled = false
			details = &clone
		}

		// Name, group and tag are series-wide: they always come from the
		// origin entry, even on a modified occurrence.
		if details != nil && config.OriginEntry != nil {
			details.Name = config.OriginEntry.Name
			details.GroupID = config.OriginEntry.GroupID
			details.TagID = config.OriginEntry.TagID
		}

		occDate := slotDate
		hasOwnDate := modification != nil && modification.ModifiedDate != nil
		if hasOwnDate {
			occDate = *modification.ModifiedDate
		} else if sticky != nil && sticky.dayOfMonth > 0 {
			occDate = withDayOfMonth(slotDate, sticky.dayOfMonth)
		}

		exclusionID := ""
		if modification != nil {
			exclusionID = modification.ID
		}

		occurrences = append(occurrences, Occurrence{
			Index:         index,
			Date:          occDate,
			ExclusionID:   exclusionID,
			ModifiedEntry: details,
		})
	}

	return occurrences
}

func matchExclusion(exclusions []models.Exclusion, slotDate time.Time, index int, reason models.ExclusionReason) *models.Exclusion {
	for i := range exclusions {
		e := &exclusions[i]
		if e.Reason != reason {
			continue
		}
		if sameDay(e.Date, slotDate) || (e.Index != nil && *e.Index == index) {
			return e
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func atNoon(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

// addUnits advances by n frequency units from start. Month and year steps
// clamp to the last day of the target month (Jan 31 + 1 month = Feb 28/29,
// never Mar 2).
func addUnits(start time.Time, freq models.Frequency, n int) time.Time {
	switch freq {
	case models.FrequencyWeek:
		return start.AddDate(0, 0, 7*n)
	case models.FrequencyMonth:
		return addMonthsClamped(start, n)
	case models.FrequencyYear:
		return addMonthsClamped(start, 12*n)
	}
	return start
}

func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := t.Day()
	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 12, 0, 0, 0, t.Location()).Day()
}

// withDayOfMonth moves t to the given day of its month, clamping to the last
// day when the month is shorter than the target day.
func withDayOfMonth(t time.Time, day int) time.Time {
	if last := lastDayOfMonth(t); day > last {
		day = last
	}
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
