package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/ledger"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/notify"
	"tally/internal/pagination"
)

// entryService is the mutation side of the ledger: it translates toggle,
// delete and edit intents on populated rows into the right combination of
// Entry, Exclusion and RecurringConfig writes.
//
// Mutations targeting records that are missing or already soft-deleted are
// treated as benign no-ops rather than errors: edits can race with other
// writers and the read side re-derives everything from the store anyway.
type entryService struct {
	db       *gorm.DB
	notifier *notify.Notifier
}

// NewEntryService creates a new EntryServicer.
func NewEntryService(db *gorm.DB, notifier *notify.Notifier) EntryServicer {
	return &entryService{db: db, notifier: notifier}
}

func (s *entryService) publish(kind, entryID, configID string) {
	if s.notifier != nil {
		s.notifier.Publish(notify.NewEvent(kind, entryID, configID))
	}
}

// CreateEntry creates a one-off entry, or an entry plus its recurring
// config when a recurrence preset is given. The new entry becomes the
// series' origin template.
func (s *entryService) CreateEntry(input CreateEntryInput) (*models.Entry, error) {
	if input.Name == "" || len(input.Name) > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
	}
	switch input.Type {
	case models.EntryTypeIncome, models.EntryTypeExpense, models.EntryTypeAssets:
	default:
		return nil, apperrors.ErrInvalidEntryType
	}
	amount, err := money.Normalize(input.Amount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAmount, err)
	}
	if input.Recurrence != nil {
		switch input.Recurrence.Frequency {
		case models.FrequencyWeek, models.FrequencyMonth, models.FrequencyYear:
		default:
			return nil, apperrors.ErrInvalidFrequency
		}
		if input.Recurrence.Interval < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "interval must not be negative")
		}
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	entry := &models.Entry{
		Name:         input.Name,
		Type:         input.Type,
		Amount:       string(amount),
		CurrencyCode: input.CurrencyCode,
		Date:         date,
		Fulfilled:    input.Fulfilled,
		GroupID:      input.GroupID,
		TagID:        input.TagID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.Recurrence == nil {
			return nil
		}

		every := input.Recurrence.Every
		if every < 1 {
			every = 1
		}
		config := &models.RecurringConfig{
			Frequency:     input.Recurrence.Frequency,
			Interval:      input.Recurrence.Interval,
			Every:         every,
			StartDate:     date,
			OriginEntryID: &entry.ID,
		}
		if err := tx.Create(config).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(entry).Update("recurring_id", config.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		entry.RecurringID = &config.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	configID := ""
	if entry.RecurringID != nil {
		configID = *entry.RecurringID
	}
	s.publish("entry.created", entry.ID, configID)
	return entry, nil
}

// GetEntryByID fetches a single entry.
func (s *entryService) GetEntryByID(id string) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.Preload("Group").Preload("Tag").First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrEntryNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// ListOneOffEntries returns a page of entries that are not part of any
// series, newest first.
func (s *entryService) ListOneOffEntries(page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	page.Defaults()

	base := s.db.Model(&models.Entry{}).Where("recurring_id IS NULL")

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Entry
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ToggleFulfilled flips an entry's fulfilled flag. A ghost occurrence is
// materialized first: a real entry is cloned from the occurrence's details
// and a modification exclusion is created pointing at it.
// Returns nil without error when the target no longer exists.
func (s *entryService) ToggleFulfilled(ref OccurrenceRef) (*models.Entry, error) {
	if !ref.Series() {
		var entry models.Entry
		err := s.db.First(&entry, "id = ?", ref.EntryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Model(&entry).Update("fulfilled", !entry.Fulfilled).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		entry.Fulfilled = !entry.Fulfilled
		s.publish("entry.toggled", entry.ID, "")
		return &entry, nil
	}

	config, err := s.loadConfig(ref.ConfigID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, nil
	}
	occ, ok := findOccurrence(config, ref.Index)
	if !ok {
		return nil, apperrors.ErrOccurrenceNotFound
	}

	// Already materialized: flip the real entry in place.
	if occ.ModifiedEntry != nil && occ.ModifiedEntry.ID != "" {
		entry := occ.ModifiedEntry
		if err := s.db.Model(entry).Update("fulfilled", !entry.Fulfilled).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		entry.Fulfilled = !entry.Fulfilled
		s.publish("entry.toggled", entry.ID, config.ID)
		return entry, nil
	}

	// Ghost: materialize with the flag flipped.
	details := occurrenceDetails(config, occ)
	entry := &models.Entry{
		Name:         details.Name,
		Type:         details.Type,
		Amount:       details.Amount,
		CurrencyCode: details.CurrencyCode,
		Date:         occ.Date,
		Fulfilled:    !details.Fulfilled,
		RecurringID:  &config.ID,
		GroupID:      details.GroupID,
		TagID:        details.TagID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.attachModification(tx, config.ID, occ, entry.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	s.publish("entry.toggled", entry.ID, config.ID)
	return entry, nil
}

// DeleteEntry removes one row of the ledger. One-off entries are
// soft-deleted; series occurrences get (or become) a deletion exclusion so
// the slot disappears without renumbering later occurrences. With
// withSubsequents the series itself is truncated at this occurrence, or
// soft-deleted entirely when the occurrence is the first.
func (s *entryService) DeleteEntry(ref OccurrenceRef, withSubsequents bool) error {
	if !ref.Series() {
		var entry models.Entry
		err := s.db.First(&entry, "id = ?", ref.EntryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Delete(&entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		s.publish("entry.deleted", entry.ID, "")
		return nil
	}

	config, err := s.loadConfig(ref.ConfigID)
	if err != nil {
		return err
	}
	if config == nil {
		return nil
	}
	occ, ok := findOccurrence(config, ref.Index)
	if !ok {
		return apperrors.ErrOccurrenceNotFound
	}

	if withSubsequents {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			return s.closeSeries(tx, config, occ.Date, ref.Index)
		})
		if err != nil {
			return err
		}
		s.publish("entry.deleted", occEntryID(occ), config.ID)
		return nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if occ.ExclusionID != "" {
			res := tx.Model(&models.Exclusion{}).
				Where("id = ?", occ.ExclusionID).
				Update("reason", models.ExclusionReasonDeletion)
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			return nil
		}
		exclusion := &models.Exclusion{
			RecurringID: config.ID,
			Date:        occ.Date,
			Index:       intPtr(occ.Index),
			Reason:      models.ExclusionReasonDeletion,
		}
		if err := tx.Create(exclusion).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish("entry.deleted", occEntryID(occ), config.ID)
	return nil
}

// EditEntry applies new values to one row of the ledger. Name, group and
// tag are series-wide fields and always land on the origin entry; amount
// and date are occurrence-local. With applyToSubsequents the series is
// forked: the old config is closed at this occurrence and a new config
// starting here carries the remaining span with the new values as its
// origin. Returns nil without error when the target no longer exists.
func (s *entryService) EditEntry(ref OccurrenceRef, values EntryValues, applyToSubsequents bool) (*EditResult, error) {
	if values.Amount != nil {
		normalized, err := money.Normalize(*values.Amount)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidAmount, err)
		}
		amount := string(normalized)
		values.Amount = &amount
	}
	if values.Name != nil && (*values.Name == "" || len(*values.Name) > 100) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be between 1 and 100 characters")
	}

	if !ref.Series() {
		return s.editOneOff(ref.EntryID, values)
	}

	config, err := s.loadConfig(ref.ConfigID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, nil
	}
	occ, ok := findOccurrence(config, ref.Index)
	if !ok {
		return nil, apperrors.ErrOccurrenceNotFound
	}

	// Shared fields go to the origin template so every occurrence picks
	// them up, modified or not.
	if config.OriginEntry != nil {
		shared := map[string]interface{}{}
		if values.Name != nil {
			shared["name"] = *values.Name
			config.OriginEntry.Name = *values.Name
		}
		if values.GroupID != nil {
			shared["group_id"] = nilIfEmpty(*values.GroupID)
			config.OriginEntry.GroupID = nilIfEmpty(*values.GroupID)
		}
		if values.TagID != nil {
			shared["tag_id"] = nilIfEmpty(*values.TagID)
			config.OriginEntry.TagID = nilIfEmpty(*values.TagID)
		}
		if len(shared) > 0 {
			if err := s.db.Model(config.OriginEntry).Updates(shared).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}

	localEdit := values.Amount != nil || values.Date != nil
	if !localEdit {
		s.publish("entry.updated", occEntryID(occ), config.ID)
		return &EditResult{EntryID: occEntryID(occ)}, nil
	}

	// Editing the first occurrence of a pristine series already covers
	// every occurrence, so the origin shortcut below applies and no fork
	// is needed.
	pristineFirst := len(config.Exclusions) == 0 && ref.Index == 1 && config.OriginEntry != nil
	if applyToSubsequents && !pristineFirst {
		return s.forkSeries(config, occ, ref.Index, values)
	}

	result, err := s.editOccurrence(config, occ, ref.Index, values)
	if err != nil {
		return nil, err
	}
	s.publish("entry.updated", result.EntryID, config.ID)
	return result, nil
}

// editOneOff patches a standalone entry in place.
func (s *entryService) editOneOff(id string, values EntryValues) (*EditResult, error) {
	var entry models.Entry
	err := s.db.First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{}
	if values.Name != nil {
		updates["name"] = *values.Name
	}
	if values.Amount != nil {
		updates["amount"] = *values.Amount
	}
	if values.Date != nil {
		updates["date"] = *values.Date
	}
	if values.GroupID != nil {
		updates["group_id"] = nilIfEmpty(*values.GroupID)
	}
	if values.TagID != nil {
		updates["tag_id"] = nilIfEmpty(*values.TagID)
	}
	if len(updates) > 0 {
		if err := s.db.Model(&entry).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	s.publish("entry.updated", entry.ID, "")
	return &EditResult{EntryID: entry.ID}, nil
}

// editOccurrence applies an occurrence-local amount/date change to a single
// slot of a series.
func (s *entryService) editOccurrence(config *models.RecurringConfig, occ *ledger.Occurrence, index int, values EntryValues) (*EditResult, error) {
	// First occurrence of a pristine series: editing the origin directly
	// is equivalent and avoids exclusion bookkeeping.
	if len(config.Exclusions) == 0 && index == 1 && config.OriginEntry != nil {
		updates := map[string]interface{}{}
		configUpdates := map[string]interface{}{}
		if values.Amount != nil {
			updates["amount"] = *values.Amount
		}
		if values.Date != nil {
			updates["date"] = *values.Date
			configUpdates["start_date"] = *values.Date
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(config.OriginEntry).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if len(configUpdates) > 0 {
				if err := tx.Model(config).Updates(configUpdates).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &EditResult{EntryID: config.OriginEntry.ID}, nil
	}

	// Already materialized: patch the real entry and the exclusion's date.
	if occ.ModifiedEntry != nil && occ.ModifiedEntry.ID != "" {
		updates := map[string]interface{}{}
		if values.Amount != nil {
			updates["amount"] = *values.Amount
		}
		if values.Date != nil {
			updates["date"] = *values.Date
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(occ.ModifiedEntry).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if values.Date != nil && occ.ExclusionID != "" {
				if err := tx.Model(&models.Exclusion{}).
					Where("id = ?", occ.ExclusionID).
					Update("modified_date", *values.Date).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &EditResult{EntryID: occ.ModifiedEntry.ID}, nil
	}

	// Ghost: materialize with the new values.
	details := occurrenceDetails(config, occ)
	entry := &models.Entry{
		Name:         details.Name,
		Type:         details.Type,
		Amount:       details.Amount,
		CurrencyCode: details.CurrencyCode,
		Date:         occ.Date,
		Fulfilled:    details.Fulfilled,
		RecurringID:  &config.ID,
		GroupID:      details.GroupID,
		TagID:        details.TagID,
	}
	if values.Amount != nil {
		entry.Amount = *values.Amount
	}
	if values.Date != nil {
		entry.Date = *values.Date
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.attachModification(tx, config.ID, occ, entry.ID, values.Date)
	})
	if err != nil {
		return nil, err
	}
	return &EditResult{EntryID: entry.ID}, nil
}

// forkSeries implements "apply to subsequents": close the old series just
// before this occurrence and start a fresh one here carrying the remaining
// span, with the edited values as the new origin template. Write order is
// close old, create new, materialize, so a concurrent reader never sees
// both series covering the same slots.
func (s *entryService) forkSeries(config *models.RecurringConfig, occ *ledger.Occurrence, index int, values EntryValues) (*EditResult, error) {
	newDate := occ.Date
	if values.Date != nil {
		newDate = *values.Date
	}

	remaining := 0
	if !config.Unbounded() {
		remaining = config.Interval - (index - 1)
		if remaining < 0 {
			remaining = 0
		}
	}

	details := occurrenceDetails(config, occ)
	newConfig := &models.RecurringConfig{
		Frequency: config.Frequency,
		Interval:  remaining,
		Every:     config.Every,
		StartDate: newDate,
	}
	newEntry := &models.Entry{
		Name:         details.Name,
		Type:         details.Type,
		Amount:       details.Amount,
		CurrencyCode: details.CurrencyCode,
		Date:         newDate,
		Fulfilled:    details.Fulfilled,
		GroupID:      details.GroupID,
		TagID:        details.TagID,
	}
	if values.Amount != nil {
		newEntry.Amount = *values.Amount
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Exclusions from this occurrence on belong to the closed span.
		if err := tx.Where("recurring_id = ? AND date >= ?", config.ID, occ.Date).
			Delete(&models.Exclusion{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.closeSeries(tx, config, occ.Date, index); err != nil {
			return err
		}
		if err := tx.Create(newConfig).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		newEntry.RecurringID = &newConfig.ID
		if err := tx.Create(newEntry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(newConfig).Update("origin_entry_id", newEntry.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Materialize the edited occurrence against the new series. Without
		// this exclusion, expansion would re-synthesize its first slot as a
		// ghost and drop the entry's fulfilled state.
		firstSlot := &models.Exclusion{
			RecurringID:     newConfig.ID,
			Date:            newDate,
			Index:           intPtr(1),
			Reason:          models.ExclusionReasonModification,
			ModifiedEntryID: &newEntry.ID,
		}
		if err := tx.Create(firstSlot).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("entry.updated", newEntry.ID, newConfig.ID)
	return &EditResult{
		EntryID:        newEntry.ID,
		ClosedConfigID: config.ID,
		NewConfigID:    newConfig.ID,
	}, nil
}

// closeSeries truncates a series so it ends before the occurrence at the
// given index. The first occurrence leaves nothing behind, so the whole
// config and its exclusions are soft-deleted instead.
func (s *entryService) closeSeries(tx *gorm.DB, config *models.RecurringConfig, at time.Time, index int) error {
	if index <= 1 {
		if err := tx.Where("recurring_id = ?", config.ID).Delete(&models.Exclusion{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(config).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	if err := tx.Where("recurring_id = ? AND date > ?", config.ID, at).
		Delete(&models.Exclusion{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(config).Updates(map[string]interface{}{
		"end_date": at,
		"interval": index - 1,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// attachModification links a freshly materialized entry to its occurrence:
// the slot's existing exclusion is repointed if there is one, otherwise a
// modification exclusion is created.
func (s *entryService) attachModification(tx *gorm.DB, configID string, occ *ledger.Occurrence, entryID string, movedTo *time.Time) error {
	if occ.ExclusionID != "" {
		updates := map[string]interface{}{"modified_entry_id": entryID}
		if movedTo != nil {
			updates["modified_date"] = *movedTo
		}
		if err := tx.Model(&models.Exclusion{}).
			Where("id = ?", occ.ExclusionID).
			Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	exclusion := &models.Exclusion{
		RecurringID:     configID,
		Date:            occ.Date,
		ModifiedDate:    movedTo,
		Index:           intPtr(occ.Index),
		Reason:          models.ExclusionReasonModification,
		ModifiedEntryID: &entryID,
	}
	if err := tx.Create(exclusion).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// loadConfig fetches a config with its origin entry and exclusions.
// Returns nil without error when the config is missing or soft-deleted.
func (s *entryService) loadConfig(id string) (*models.RecurringConfig, error) {
	var config models.RecurringConfig
	err := s.db.
		Preload("OriginEntry").
		Preload("Exclusions").
		Preload("Exclusions.ModifiedEntry").
		First(&config, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &config, nil
}

// findOccurrence expands the series and returns the occurrence with the
// given 1-based index. Deleted slots consume indices, so a deleted index is
// simply not found.
func findOccurrence(config *models.RecurringConfig, index int) (*ledger.Occurrence, bool) {
	for _, occ := range ledger.Expand(config, config.Exclusions) {
		if occ.Index == index {
			o := occ
			return &o, true
		}
	}
	return nil, false
}

// occurrenceDetails resolves the effective display data of an occurrence:
// its modification override when present, otherwise a ghost synthesized
// from the origin template.
func occurrenceDetails(config *models.RecurringConfig, occ *ledger.Occurrence) models.Entry {
	if occ.ModifiedEntry != nil {
		return *occ.ModifiedEntry
	}
	if config.OriginEntry == nil {
		return models.Entry{}
	}
	details := *config.OriginEntry
	details.ID = ""
	details.Fulfilled = false
	return details
}

// occEntryID returns the materialized entry id of an occurrence, or empty
// for a ghost.
func occEntryID(occ *ledger.Occurrence) string {
	if occ.ModifiedEntry != nil {
		return occ.ModifiedEntry.ID
	}
	return ""
}

func intPtr(v int) *int { return &v }

// nilIfEmpty maps the empty string to nil so a client can clear a group or
// tag assignment.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
