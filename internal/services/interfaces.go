package services

import (
	"context"
	"time"

	"tally/internal/ledger"
	"tally/internal/models"
	"tally/internal/notify"
	"tally/internal/pagination"
)

// RecurrenceInput describes the recurrence preset chosen at entry creation.
// Interval 0 means the series never ends.
type RecurrenceInput struct {
	Frequency models.Frequency
	Interval  int
	Every     int
}

// CreateEntryInput holds the fields of a new entry. Recurrence is nil for
// one-off entries.
type CreateEntryInput struct {
	Name         string
	Type         models.EntryType
	Amount       string
	CurrencyCode string
	Date         time.Time
	Fulfilled    bool
	GroupID      *string
	TagID        *string
	Recurrence   *RecurrenceInput
}

// OccurrenceRef addresses one row of the populated ledger. A one-off or
// already-materialized entry is addressed by EntryID alone; a series
// occurrence (ghost or not) by ConfigID plus its 1-based Index.
type OccurrenceRef struct {
	EntryID  string
	ConfigID string
	Index    int
}

// Series reports whether the ref addresses a recurring occurrence.
func (r OccurrenceRef) Series() bool { return r.ConfigID != "" }

// EntryValues carries the editable fields of an edit operation; nil fields
// are left untouched.
type EntryValues struct {
	Name    *string
	Amount  *string
	Date    *time.Time
	GroupID *string
	TagID   *string
}

// EditResult reports what an edit produced. ClosedConfigID and NewConfigID
// are set only when an apply-to-subsequents edit forked the series.
type EditResult struct {
	EntryID        string `json:"entry_id,omitempty"`
	ClosedConfigID string `json:"closed_config_id,omitempty"`
	NewConfigID    string `json:"new_config_id,omitempty"`
}

// EntryServicer defines the contract for entry mutations: creation and the
// occurrence-aware toggle/delete/edit operations.
type EntryServicer interface {
	CreateEntry(input CreateEntryInput) (*models.Entry, error)
	GetEntryByID(id string) (*models.Entry, error)
	ListOneOffEntries(page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	ToggleFulfilled(ref OccurrenceRef) (*models.Entry, error)
	DeleteEntry(ref OccurrenceRef, withSubsequents bool) error
	EditEntry(ref OccurrenceRef, values EntryValues, applyToSubsequents bool) (*EditResult, error)
}

// LedgerServicer defines the contract for the derived read side: the
// populated ledger and its per-month summaries.
type LedgerServicer interface {
	Populated() ([]ledger.PopulatedEntry, error)
	MonthSummaries(ctx context.Context, groupFilters, tagFilters []string) (map[int]*ledger.MonthSummary, error)
	Lookup(ref OccurrenceRef) (*ledger.PopulatedEntry, error)
	Subscribe(fn func(notify.Event)) func()
}

// GroupServicer defines the contract for group management.
type GroupServicer interface {
	CreateGroup(name string, icon *string) (*models.Group, error)
	ListGroups() ([]models.Group, error)
	UpdateGroup(id, name string, icon *string) (*models.Group, error)
	DeleteGroup(id string) error
}

// TagServicer defines the contract for tag management.
type TagServicer interface {
	CreateTag(name, color string, suggestID *string) (*models.Tag, error)
	ListTags() ([]models.Tag, error)
	UpdateTag(id, name, color string) (*models.Tag, error)
	DeleteTag(id string) error
	SuggestedTags() ([]models.SuggestedTag, error)
}

// RateSource supplies exchange rates against a base currency. The rate is
// the multiplier converting one unit of the keyed currency into the base.
type RateSource interface {
	GetRates(ctx context.Context, base string) (map[string]float64, error)
}
