package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/models"
	"tally/internal/notify"
	"tally/internal/testutil"
)

type stubRates struct {
	rates map[string]float64
	err   error
	calls int
}

func (s *stubRates) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func TestLedgerService_Populated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := NewLedgerService(db, nil, notify.NewNotifier(), "USD", 3, 11)

	oneOff := testutil.CreateTestEntry(t, db, date(2024, time.March, 5))
	config := testutil.CreateTestRecurringConfig(t, db, models.FrequencyMonth, 3, date(2024, time.March, 10))

	entries, err := svc.Populated()
	testutil.AssertNoError(t, err)

	// One one-off plus three occurrences.
	if len(entries) != 4 {
		t.Fatalf("populated count = %d, want 4", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Before(entries[i-1].Date) {
			t.Fatal("populated ledger not sorted by date")
		}
	}

	foundOneOff := false
	ghosts := 0
	for _, e := range entries {
		if e.EntryID == oneOff.ID && e.Recurring == nil {
			foundOneOff = true
		}
		if e.IsGhost() {
			ghosts++
			if e.Recurring.ConfigID != config.ID {
				t.Error("ghost carries wrong config lineage")
			}
		}
	}
	if !foundOneOff {
		t.Error("one-off entry missing from ledger")
	}
	// No slot has been edited yet, so every occurrence is a ghost
	// synthesized from the origin template.
	if ghosts != 3 {
		t.Errorf("ghost count = %d, want 3", ghosts)
	}
}

func TestLedgerService_MonthSummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	now := date(2024, time.March, 20)

	t.Run("aggregates over the configured viewport", func(t *testing.T) {
		src := &stubRates{rates: map[string]float64{"USD": 1}}
		svc := NewLedgerService(db, src, notify.NewNotifier(), "USD", 3, 11).(*ledgerService)
		svc.now = func() time.Time { return now }

		testutil.CreateTestEntry(t, db, date(2024, time.March, 5))

		summaries, err := svc.MonthSummaries(context.Background(), nil, nil)
		testutil.AssertNoError(t, err)

		// Viewport spans 3 months back through 11 forward: indices 0..14.
		if len(summaries) != 15 {
			t.Fatalf("summary count = %d, want 15", len(summaries))
		}

		march := summaries[3]
		if march.Month.Month() != time.March {
			t.Fatalf("index 3 month = %v, want March", march.Month)
		}
		if len(march.Expense) != 1 {
			t.Errorf("march expenses = %d, want 1", len(march.Expense))
		}
		if march.InMainCurrency.Actual.Expense != 100 {
			t.Errorf("march actual expense = %f, want 100", march.InMainCurrency.Actual.Expense)
		}
	})

	t.Run("rates failure degrades to zero totals", func(t *testing.T) {
		src := &stubRates{err: errors.New("upstream down")}
		svc := NewLedgerService(db, src, notify.NewNotifier(), "EUR", 3, 11).(*ledgerService)
		svc.now = func() time.Time { return now }

		summaries, err := svc.MonthSummaries(context.Background(), nil, nil)
		testutil.AssertNoError(t, err)

		// Entries are in USD with main currency EUR and no rates: totals zero.
		march := summaries[3]
		if march.InMainCurrency.Actual.Expense != 0 {
			t.Errorf("expense = %f, want 0 without rates", march.InMainCurrency.Actual.Expense)
		}
		if len(march.Expense) != 1 {
			t.Error("per-currency listing should survive missing rates")
		}
	})
}

func TestLedgerService_Lookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	svc := NewLedgerService(db, nil, notify.NewNotifier(), "USD", 3, 11)

	oneOff := testutil.CreateTestEntry(t, db, date(2024, time.March, 5))
	config := testutil.CreateTestRecurringConfig(t, db, models.FrequencyMonth, 6, date(2024, time.April, 1))

	t.Run("finds a one-off by entry id", func(t *testing.T) {
		found, err := svc.Lookup(OccurrenceRef{EntryID: oneOff.ID})
		testutil.AssertNoError(t, err)
		if found.Recurring != nil {
			t.Error("one-off should have no recurring lineage")
		}
	})

	t.Run("finds an occurrence by config and index", func(t *testing.T) {
		found, err := svc.Lookup(OccurrenceRef{ConfigID: config.ID, Index: 3})
		testutil.AssertNoError(t, err)
		if !found.IsGhost() {
			t.Error("unmaterialized occurrence should be a ghost")
		}
		if !found.Date.Equal(date(2024, time.June, 1)) {
			t.Errorf("occurrence date = %v, want June 1", found.Date)
		}
	})

	t.Run("unknown reference is not found", func(t *testing.T) {
		_, err := svc.Lookup(OccurrenceRef{ConfigID: config.ID, Index: 99})
		testutil.AssertAppError(t, err, "OCCURRENCE_NOT_FOUND")
	})
}

func TestLedgerService_Subscribe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifier := notify.NewNotifier()
	ledgerSvc := NewLedgerService(db, nil, notifier, "USD", 3, 11)
	entrySvc := NewEntryService(db, notifier)

	var events []notify.Event
	cancel := ledgerSvc.Subscribe(func(e notify.Event) { events = append(events, e) })
	defer cancel()

	_, err := entrySvc.CreateEntry(CreateEntryInput{
		Name:         "Coffee",
		Type:         models.EntryTypeExpense,
		Amount:       "4.5",
		CurrencyCode: "USD",
		Date:         date(2024, time.March, 1),
	})
	testutil.AssertNoError(t, err)

	if len(events) != 1 || events[0].Kind != "entry.created" {
		t.Fatalf("expected one entry.created event, got %+v", events)
	}
}
