package services

import (
	"testing"

	"tally/internal/models"
	"tally/internal/testutil"
)

func TestTagService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTagService(db, nil)

	t.Run("creates a tag with color", func(t *testing.T) {
		tag, err := svc.CreateTag("Utilities", "#3366ff", nil)
		testutil.AssertNoError(t, err)
		if tag.Color == nil || *tag.Color != "#3366ff" {
			t.Error("color not stored")
		}
	})

	t.Run("creates a tag without color", func(t *testing.T) {
		tag, err := svc.CreateTag("Plain", "", nil)
		testutil.AssertNoError(t, err)
		if tag.Color != nil {
			t.Errorf("color = %v, want nil for an uncolored tag", *tag.Color)
		}

		var stored models.Tag
		err = db.First(&stored, "id = ?", tag.ID).Error
		testutil.AssertNoError(t, err)
		if stored.Color != nil {
			t.Error("stored color should stay NULL")
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := svc.CreateTag("", "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("updates a tag", func(t *testing.T) {
		tag := testutil.CreateTestTag(t, db)

		updated, err := svc.UpdateTag(tag.ID, "Renamed", "#000000")
		testutil.AssertNoError(t, err)
		if updated.Name != "Renamed" || updated.Color == nil || *updated.Color != "#000000" {
			t.Errorf("tag not updated: %+v", updated)
		}
	})

	t.Run("delete of missing tag fails", func(t *testing.T) {
		err := svc.DeleteTag("00000000-0000-0000-0000-000000000000")
		testutil.AssertAppError(t, err, "TAG_NOT_FOUND")
	})
}

func TestTagService_SuggestedTags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTagService(db, nil)

	t.Run("returns the full catalog initially", func(t *testing.T) {
		suggestions, err := svc.SuggestedTags()
		testutil.AssertNoError(t, err)
		if len(suggestions) != len(models.SuggestedTags) {
			t.Fatalf("suggestion count = %d, want %d", len(suggestions), len(models.SuggestedTags))
		}
	})

	t.Run("hides catalog items already adopted", func(t *testing.T) {
		_, err := svc.CreateTag("Salary", "green", strPtr("salary"))
		testutil.AssertNoError(t, err)

		suggestions, err := svc.SuggestedTags()
		testutil.AssertNoError(t, err)
		if len(suggestions) != len(models.SuggestedTags)-1 {
			t.Fatalf("suggestion count = %d, want %d", len(suggestions), len(models.SuggestedTags)-1)
		}
		for _, s := range suggestions {
			if s.SuggestID == "salary" {
				t.Error("adopted suggestion still listed")
			}
		}
	})
}
