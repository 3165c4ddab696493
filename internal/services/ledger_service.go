package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/ledger"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/notify"
)

// ledgerService is the read side: it loads the raw rows, expands them into
// the populated ledger and aggregates per-month summaries. Everything is
// recomputed from scratch on each call; the expansion ceiling keeps that
// cheap enough to run on every refresh.
type ledgerService struct {
	db           *gorm.DB
	rateSource   RateSource
	notifier     *notify.Notifier
	mainCurrency string
	monthsBack   int
	monthsFwd    int
	now          func() time.Time
}

// NewLedgerService creates a new LedgerServicer. rateSource may be nil, in
// which case cross-currency totals stay zero.
func NewLedgerService(db *gorm.DB, rateSource RateSource, notifier *notify.Notifier, mainCurrency string, monthsBack, monthsForward int) LedgerServicer {
	return &ledgerService{
		db:           db,
		rateSource:   rateSource,
		notifier:     notifier,
		mainCurrency: mainCurrency,
		monthsBack:   monthsBack,
		monthsFwd:    monthsForward,
		now:          time.Now,
	}
}

// Populated returns the full expanded ledger: every one-off entry plus
// every non-deleted occurrence of every series, sorted by date.
func (s *ledgerService) Populated() ([]ledger.PopulatedEntry, error) {
	oneOff, configs, err := s.loadRows()
	if err != nil {
		return nil, err
	}
	return ledger.Populate(oneOff, configs), nil
}

// MonthSummaries aggregates the populated ledger over the configured
// viewport. A failed rates fetch degrades to the empty rate table instead
// of failing the whole read; the zeroed cross-currency totals signal
// "rates not loaded" to the client.
func (s *ledgerService) MonthSummaries(ctx context.Context, groupFilters, tagFilters []string) (map[int]*ledger.MonthSummary, error) {
	entries, err := s.Populated()
	if err != nil {
		return nil, err
	}

	rates := map[string]float64{}
	if s.rateSource != nil {
		fetched, err := s.rateSource.GetRates(ctx, s.mainCurrency)
		if err != nil {
			logger.Get().Warnw("rates unavailable, totals stay zero", "base", s.mainCurrency, "error", err)
		} else {
			rates = fetched
		}
	}

	return ledger.Aggregate(ledger.AggregateParams{
		Entries:      entries,
		Viewport:     ledger.NewViewport(s.now(), s.monthsBack, s.monthsFwd),
		GroupFilters: groupFilters,
		TagFilters:   tagFilters,
		Rates:        rates,
		MainCurrency: s.mainCurrency,
	}), nil
}

// Lookup finds one row of the populated ledger by reference.
func (s *ledgerService) Lookup(ref OccurrenceRef) (*ledger.PopulatedEntry, error) {
	entries, err := s.Populated()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		e := &entries[i]
		if ref.Series() {
			if e.Recurring != nil && e.Recurring.ConfigID == ref.ConfigID && e.Recurring.Index == ref.Index {
				return e, nil
			}
			continue
		}
		if e.EntryID == ref.EntryID {
			return e, nil
		}
	}
	return nil, apperrors.ErrOccurrenceNotFound
}

// Subscribe registers a callback fired after every ledger mutation.
func (s *ledgerService) Subscribe(fn func(notify.Event)) func() {
	return s.notifier.Subscribe(fn)
}

// loadRows fetches one-off entries and fully hydrated recurring configs.
// Soft-deleted rows are excluded everywhere by the store's default scope.
func (s *ledgerService) loadRows() ([]models.Entry, []models.RecurringConfig, error) {
	var oneOff []models.Entry
	if err := s.db.Where("recurring_id IS NULL").Order("date ASC").Find(&oneOff).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var configs []models.RecurringConfig
	if err := s.db.
		Preload("OriginEntry").
		Preload("Exclusions").
		Preload("Exclusions.ModifiedEntry").
		Find(&configs).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return oneOff, configs, nil
}
