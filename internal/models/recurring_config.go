package models

import "time"

// Frequency is the calendar unit a recurring series steps in.
type Frequency string

const (
	FrequencyWeek  Frequency = "week"
	FrequencyMonth Frequency = "month"
	FrequencyYear  Frequency = "year"
)

// RecurringConfig is a recurrence rule. Interval is the total occurrence
// span in frequency units; 0 means the series is unbounded (generation is
// still capped, see the ledger package ceilings). Every is the step
// multiplier, at least 1.
//
// The origin entry is the template whose name, amount, currency, group and
// tag apply to every occurrence that has not been individually modified.
type RecurringConfig struct {
	Base
	Frequency     Frequency  `gorm:"not null" json:"frequency"`
	Interval      int        `gorm:"not null;default:0" json:"interval"`
	Every         int        `gorm:"not null;default:1" json:"every"`
	StartDate     time.Time  `gorm:"not null" json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	OriginEntryID *string    `gorm:"type:uuid" json:"origin_entry_id,omitempty"`

	// Relationships
	OriginEntry *Entry      `gorm:"foreignKey:OriginEntryID" json:"origin_entry,omitempty"`
	Exclusions  []Exclusion `gorm:"foreignKey:RecurringID" json:"exclusions,omitempty"`
}

// Unbounded reports whether the series has no user-defined end.
func (c *RecurringConfig) Unbounded() bool {
	return c.Interval == 0
}
