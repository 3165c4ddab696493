package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"tally/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestEntry creates a fulfilled one-off expense entry on the given date.
func CreateTestEntry(t *testing.T, db *gorm.DB, date time.Time) *models.Entry {
	t.Helper()

	entry := &models.Entry{
		Name:         fmt.Sprintf("Test Entry %d", nextID()),
		Type:         models.EntryTypeExpense,
		Amount:       "100.00000000",
		CurrencyCode: "USD",
		Date:         date,
		Fulfilled:    true,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// CreateTestRecurringConfig creates a recurring config together with its
// origin entry, linked in both directions the way the entry service does it.
func CreateTestRecurringConfig(t *testing.T, db *gorm.DB, frequency models.Frequency, interval int, start time.Time) *models.RecurringConfig {
	t.Helper()

	origin := &models.Entry{
		Name:         fmt.Sprintf("Test Recurring Entry %d", nextID()),
		Type:         models.EntryTypeExpense,
		Amount:       "50.00000000",
		CurrencyCode: "USD",
		Date:         start,
	}
	if err := db.Create(origin).Error; err != nil {
		t.Fatalf("failed to create origin entry: %v", err)
	}

	config := &models.RecurringConfig{
		Frequency:     frequency,
		Interval:      interval,
		Every:         1,
		StartDate:     start,
		OriginEntryID: &origin.ID,
	}
	if err := db.Create(config).Error; err != nil {
		t.Fatalf("failed to create recurring config: %v", err)
	}

	if err := db.Model(origin).Update("recurring_id", config.ID).Error; err != nil {
		t.Fatalf("failed to link origin entry: %v", err)
	}

	config.OriginEntry = origin
	origin.RecurringID = &config.ID
	return config
}

// CreateTestExclusion records a deletion exclusion for the given occurrence.
func CreateTestExclusion(t *testing.T, db *gorm.DB, configID string, date time.Time, index int) *models.Exclusion {
	t.Helper()

	exclusion := &models.Exclusion{
		RecurringID: configID,
		Date:        date,
		Index:       &index,
		Reason:      models.ExclusionReasonDeletion,
	}
	if err := db.Create(exclusion).Error; err != nil {
		t.Fatalf("failed to create test exclusion: %v", err)
	}
	return exclusion
}

// CreateTestGroup creates a group with a unique name.
func CreateTestGroup(t *testing.T, db *gorm.DB) *models.Group {
	t.Helper()

	group := &models.Group{
		Name: fmt.Sprintf("Test Group %d", nextID()),
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateTestTag creates a tag with a unique name.
func CreateTestTag(t *testing.T, db *gorm.DB) *models.Tag {
	t.Helper()

	color := "#ff8800"
	tag := &models.Tag{
		Name:  fmt.Sprintf("Test Tag %d", nextID()),
		Color: &color,
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}
