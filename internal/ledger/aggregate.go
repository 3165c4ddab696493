package ledger

import (
	"time"

	"tally/internal/models"
	"tally/internal/money"
)

// Filter sentinels matching entries with no group or tag assigned.
const (
	NoGroup = "no-group"
	NoTag   = "no-tag"
)

// CurrencyBucket accumulates one entry type's amounts for a single currency
// within a month. Expected counts every entry, Fulfilled only realized ones,
// Remaining is the gap between the two.
type CurrencyBucket struct {
	Entries   []PopulatedEntry `json:"entries"`
	Expected  float64          `json:"expected"`
	Fulfilled float64          `json:"fulfilled"`
	Remaining float64          `json:"remaining"`
}

// VisionTotals is a signed income/expense/total triple in the main currency.
type VisionTotals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Total   float64 `json:"total"`
}

// MainCurrencyResult holds both accounting views consolidated into the main
// currency: actual uses only fulfilled amounts, foresight the full expected
// amounts regardless of fulfillment.
type MainCurrencyResult struct {
	Actual    VisionTotals `json:"actual"`
	Foresight VisionTotals `json:"foresight"`
}

// MonthSummary is the full financial picture of one viewport month.
type MonthSummary struct {
	Month   time.Time        `json:"month"`
	Income  []PopulatedEntry `json:"income"`
	Expense []PopulatedEntry `json:"expense"`
	Assets  []PopulatedEntry `json:"assets"`

	// Grouped buckets per entry type and currency.
	Grouped map[models.EntryType]map[string]*CurrencyBucket `json:"grouped"`

	// Signed per-currency running totals.
	Actual    map[string]float64 `json:"actual"`
	Foresight map[string]float64 `json:"foresight"`

	InMainCurrency MainCurrencyResult `json:"in_main_currency"`
}

// AggregateParams bundles the inputs of one aggregation run. Rates maps a
// currency code to the factor converting one unit of that currency into the
// main currency; an empty map is the legitimate "rates not loaded yet"
// state, not an error.
type AggregateParams struct {
	Entries      []PopulatedEntry
	Viewport     Viewport
	GroupFilters []string
	TagFilters   []string
	Rates        map[string]float64
	MainCurrency string
}

// Aggregate computes a MonthSummary per viewport month index. Group and tag
// filters are each an inclusive OR; an empty filter keeps everything, and
// the NoGroup/NoTag sentinels match entries with a nil group or tag.
func Aggregate(p AggregateParams) map[int]*MonthSummary {
	out := make(map[int]*MonthSummary)
	entries := applyFilters(p.Entries, p.GroupFilters, p.TagFilters)
	months := p.Viewport.Months()

	for i := 0; i <= months; i++ {
		month := p.Viewport.Month(i)
		summary := newMonthSummary(month)
		out[i] = summary

		used := make(map[string]bool)

		for _, entry := range entries {
			if entry.Date.Year() != month.Year() || entry.Date.Month() != month.Month() {
				continue
			}

			currency := entry.Details.CurrencyCode
			entryType := entry.Details.Type
			amount := money.Amount(entry.Details.Amount).Float64()
			actualAmount := 0.0
			if entry.Details.Fulfilled {
				actualAmount = amount
			}

			switch entryType {
			case models.EntryTypeIncome:
				summary.Income = append(summary.Income, entry)
			case models.EntryTypeExpense:
				summary.Expense = append(summary.Expense, entry)
			case models.EntryTypeAssets:
				summary.Assets = append(summary.Assets, entry)
			default:
				continue
			}

			used[currency] = true

			bucket := summary.bucket(entryType, currency)
			bucket.Entries = append(bucket.Entries, entry)
			bucket.Expected += amount
			bucket.Fulfilled += actualAmount
			bucket.Remaining += amount - actualAmount

			// Asset entries are listed and bucketed but stay out of the
			// income/expense vision totals.
			if entryType == models.EntryTypeAssets {
				continue
			}

			sign := 1.0
			if entryType == models.EntryTypeExpense {
				sign = -1.0
			}
			summary.Actual[currency] += sign * actualAmount
			summary.Foresight[currency] += sign * amount

			switch entryType {
			case models.EntryTypeIncome:
				summary.InMainCurrency.Actual.Income += actualAmount
				summary.InMainCurrency.Foresight.Income += amount
			case models.EntryTypeExpense:
				summary.InMainCurrency.Actual.Expense += actualAmount
				summary.InMainCurrency.Foresight.Expense += amount
			}
		}

		foreign := false
		for currency := range used {
			if currency != p.MainCurrency {
				foreign = true
				break
			}
		}

		switch {
		case !foreign:
			// Everything is already in the main currency: direct readout.
			summary.InMainCurrency.Actual.Total = summary.InMainCurrency.Actual.Income - summary.InMainCurrency.Actual.Expense
			summary.InMainCurrency.Foresight.Total = summary.InMainCurrency.Foresight.Income - summary.InMainCurrency.Foresight.Expense
		case len(p.Rates) > 0:
			summary.InMainCurrency = convert(summary, p.Rates)
		default:
			// Rates not loaded yet: report zero instead of guessing.
			summary.InMainCurrency = MainCurrencyResult{}
		}
	}

	return out
}

func newMonthSummary(month time.Time) *MonthSummary {
	return &MonthSummary{
		Month:   month,
		Income:  []PopulatedEntry{},
		Expense: []PopulatedEntry{},
		Assets:  []PopulatedEntry{},
		Grouped: map[models.EntryType]map[string]*CurrencyBucket{
			models.EntryTypeIncome:  {},
			models.EntryTypeExpense: {},
			models.EntryTypeAssets:  {},
		},
		Actual:    map[string]float64{},
		Foresight: map[string]float64{},
	}
}

func (s *MonthSummary) bucket(entryType models.EntryType, currency string) *CurrencyBucket {
	byCurrency := s.Grouped[entryType]
	b, ok := byCurrency[currency]
	if !ok {
		b = &CurrencyBucket{Entries: []PopulatedEntry{}}
		byCurrency[currency] = b
	}
	return b
}

// convert rebuilds the main-currency totals from the per-currency buckets
// using the rate table. A currency missing from the table contributes zero,
// never NaN.
func convert(s *MonthSummary, rates map[string]float64) MainCurrencyResult {
	var r MainCurrencyResult
	for currency, b := range s.Grouped[models.EntryTypeIncome] {
		r.Actual.Income += b.Fulfilled * rates[currency]
		r.Foresight.Income += b.Expected * rates[currency]
	}
	for currency, b := range s.Grouped[models.EntryTypeExpense] {
		r.Actual.Expense += b.Fulfilled * rates[currency]
		r.Foresight.Expense += b.Expected * rates[currency]
	}
	r.Actual.Total = r.Actual.Income - r.Actual.Expense
	r.Foresight.Total = r.Foresight.Income - r.Foresight.Expense
	return r
}

func applyFilters(entries []PopulatedEntry, groupFilters, tagFilters []string) []PopulatedEntry {
	if len(groupFilters) == 0 && len(tagFilters) == 0 {
		return entries
	}
	filtered := make([]PopulatedEntry, 0, len(entries))
	for _, entry := range entries {
		if len(groupFilters) > 0 && !matchesFilter(groupFilters, entry.Details.GroupID, NoGroup) {
			continue
		}
		if len(tagFilters) > 0 && !matchesFilter(tagFilters, entry.Details.TagID, NoTag) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func matchesFilter(filters []string, id *string, sentinel string) bool {
	value := sentinel
	if id != nil {
		value = *id
	}
	for _, f := range filters {
		if f == value {
			return true
		}
	}
	return false
}
