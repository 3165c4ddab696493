package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/notify"
)

type tagService struct {
	db       *gorm.DB
	notifier *notify.Notifier
}

// NewTagService creates a new TagServicer.
func NewTagService(db *gorm.DB, notifier *notify.Notifier) TagServicer {
	return &tagService{db: db, notifier: notifier}
}

func (s *tagService) CreateTag(name, color string, suggestID *string) (*models.Tag, error) {
	if name == "" || len(name) > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
	}

	tag := &models.Tag{Name: name, SuggestID: suggestID}
	if color != "" {
		tag.Color = &color
	}
	if err := s.db.Create(tag).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent("tag.changed", "", ""))
	}
	return tag, nil
}

func (s *tagService) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tags, nil
}

func (s *tagService) UpdateTag(id, name, color string) (*models.Tag, error) {
	if name == "" || len(name) > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
	}

	var tag models.Tag
	err := s.db.First(&tag, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTagNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{"name": name}
	if color != "" {
		updates["color"] = color
		tag.Color = &color
	}
	if err := s.db.Model(&tag).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	tag.Name = name

	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent("tag.changed", "", ""))
	}
	return &tag, nil
}

func (s *tagService) DeleteTag(id string) error {
	result := s.db.Delete(&models.Tag{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTagNotFound
	}

	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent("tag.changed", "", ""))
	}
	return nil
}

// SuggestedTags returns the built-in starter catalog minus the items the
// user has already created a tag from.
func (s *tagService) SuggestedTags() ([]models.SuggestedTag, error) {
	var existing []string
	if err := s.db.Model(&models.Tag{}).
		Where("suggest_id IS NOT NULL").
		Pluck("suggest_id", &existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}

	suggestions := []models.SuggestedTag{}
	for _, item := range models.SuggestedTags {
		if !taken[item.SuggestID] {
			suggestions = append(suggestions, item)
		}
	}
	return suggestions, nil
}
