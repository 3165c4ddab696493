package models

import "time"

// EntryType classifies an entry's direction.
type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
	EntryTypeAssets  EntryType = "assets"
)

// Entry is a single financial transaction. Amount is stored as an exact
// decimal string with 8 fractional digits; it is only ever converted to
// floating point for display and summation, never written back from a float
// without re-quantizing.
//
// An Entry is either a one-off (RecurringID nil), the origin template of a
// recurring series, or a materialized occurrence of one (created the first
// time a ghost occurrence is toggled or edited, referenced by an Exclusion).
type Entry struct {
	Base
	Name         string    `gorm:"not null" json:"name"`
	Type         EntryType `gorm:"not null" json:"type"`
	Amount       string    `gorm:"not null" json:"amount"`
	CurrencyCode string    `gorm:"size:3;not null" json:"currency_code"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	Fulfilled    bool      `gorm:"default:false" json:"fulfilled"`
	RecurringID  *string   `gorm:"type:uuid;index" json:"recurring_id,omitempty"`
	GroupID      *string   `gorm:"type:uuid" json:"group_id,omitempty"`
	TagID        *string   `gorm:"type:uuid" json:"tag_id,omitempty"`

	// Relationships
	Group *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Tag   *Tag   `gorm:"foreignKey:TagID" json:"tag,omitempty"`
}
