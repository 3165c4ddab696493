package ledger

import (
	"sort"
	"time"

	"tally/internal/models"
)

// RecurringRef ties a populated entry back to the series slot it came from,
// carrying the lineage needed for later mutation.
type RecurringRef struct {
	ConfigID    string
	Config      *models.RecurringConfig
	Index       int    // 1-based occurrence ordinal
	ExclusionID string // empty when the occurrence is unmodified
}

// PopulatedEntry is one row of the expanded ledger. Recurring is nil for
// one-off entries; EntryID is empty for ghost occurrences that have never
// been materialized. Details holds the effective display data either way.
type PopulatedEntry struct {
	EntryID   string
	Date      time.Time
	Recurring *RecurringRef
	Details   models.Entry
}

// IsGhost reports whether the row is an occurrence without a materialized
// entry of its own.
func (p PopulatedEntry) IsGhost() bool {
	return p.Recurring != nil && p.EntryID == ""
}

// Populate merges one-off entries with the expanded occurrences of every
// recurring config into a single ledger sorted ascending by date. The sort
// is stable, so same-date rows keep insertion order and results are
// reproducible.
func Populate(oneOff []models.Entry, configs []models.RecurringConfig) []PopulatedEntry {
	populated := make([]PopulatedEntry, 0, len(oneOff))

	for ci := range configs {
		config := &configs[ci]
		if config.OriginEntry == nil {
			continue
		}

		for _, occ := range Expand(config, config.Exclusions) {
			var details models.Entry
			entryID := ""
			if occ.ModifiedEntry != nil {
				details = *occ.ModifiedEntry
				entryID = occ.ModifiedEntry.ID
			} else {
				// ghost: synthesized from the origin template, never fulfilled
				details = *config.OriginEntry
				details.ID = ""
				details.Fulfilled = false
			}

			populated = append(populated, PopulatedEntry{
				EntryID: entryID,
				Date:    occ.Date,
				Recurring: &RecurringRef{
					ConfigID:    config.ID,
					Config:      config,
					Index:       occ.Index,
					ExclusionID: occ.ExclusionID,
				},
				Details: details,
			})
		}
	}

	for i := range oneOff {
		populated = append(populated, PopulatedEntry{
			EntryID: oneOff[i].ID,
			Date:    oneOff[i].Date,
			Details: oneOff[i],
		})
	}

	sort.SliceStable(populated, func(i, j int) bool {
		return populated[i].Date.Before(populated[j].Date)
	})

	return populated
}
