package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/notify"
)

type groupService struct {
	db       *gorm.DB
	notifier *notify.Notifier
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(db *gorm.DB, notifier *notify.Notifier) GroupServicer {
	return &groupService{db: db, notifier: notifier}
}

func (s *groupService) CreateGroup(name string, icon *string) (*models.Group, error) {
	if name == "" || len(name) > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
	}

	group := &models.Group{Name: name, Icon: icon}
	if err := s.db.Create(group).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent("group.changed", "", ""))
	}
	return group, nil
}

func (s *groupService) ListGroups() ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.Order("name ASC").Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return groups, nil
}

func (s *groupService) UpdateGroup(id, name string, icon *string) (*models.Group, error) {
	if name == "" || len(name) > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
	}

	var group models.Group
	err := s.db.First(&group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrGroupNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{"name": name, "icon": icon}
	if err := s.db.Model(&group).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	group.Name = name
	group.Icon = icon

	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent("group.changed", "", ""))
	}
	return &group, nil
}

// DeleteGroup soft-deletes a group. Entries keep their group_id; the ledger
// resolves a deleted group to "no group" from then on.
func (s *groupService) DeleteGroup(id string) error {
	result := s.db.Delete(&models.Group{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrGroupNotFound
	}

	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent("group.changed", "", ""))
	}
	return nil
}
