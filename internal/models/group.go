package models

// Group is a named bucket for entries (e.g. "Household", "Side projects").
type Group struct {
	Base
	Name string  `gorm:"not null" json:"name"`
	Icon *string `json:"icon,omitempty"`
}
