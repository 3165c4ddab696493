package models

import "time"

// ExclusionReason distinguishes a removed occurrence from an overridden one.
type ExclusionReason string

const (
	ExclusionReasonDeletion     ExclusionReason = "deletion"
	ExclusionReasonModification ExclusionReason = "modification"
)

// Exclusion is an exception to one specific occurrence of a RecurringConfig.
// Date is the occurrence's original scheduled date; Index is its 1-based
// ordinal within the series and serves as the authoritative match key when
// the occurrence's own date has been moved.
//
// A deletion exclusion removes that single occurrence from the expanded
// series. A modification exclusion replaces the occurrence's displayed
// details with the referenced materialized entry; with ApplyToSubsequents
// set, its amount and day-of-month propagate to every later occurrence that
// has no override of its own.
type Exclusion struct {
	Base
	RecurringID        string          `gorm:"type:uuid;not null;index" json:"recurring_id"`
	Date               time.Time       `gorm:"not null" json:"date"`
	ModifiedDate       *time.Time      `json:"modified_date,omitempty"`
	Index              *int            `gorm:"column:occurrence_index" json:"index,omitempty"`
	Reason             ExclusionReason `gorm:"not null" json:"reason"`
	ApplyToSubsequents bool            `gorm:"default:false" json:"apply_to_subsequents"`
	ModifiedEntryID    *string         `gorm:"type:uuid" json:"modified_entry_id,omitempty"`

	// Relationships
	ModifiedEntry *Entry `gorm:"foreignKey:ModifiedEntryID" json:"modified_entry,omitempty"`
}
