package analysis

import (
	"maps"
	"slices"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// PeriodCount is the number of events in one year or month, split by
// tsunami indicator.
type PeriodCount struct {
	Period    int `json:"period"`
	Tsunami   int `json:"tsunami"`
	NoTsunami int `json:"no_tsunami"`
	Total     int `json:"total"`
}

// Temporal holds event counts per year and per calendar month.
type Temporal struct {
	ByYear  []PeriodCount `json:"by_year"`
	ByMonth []PeriodCount `json:"by_month"`
}

// TemporalBreakdown counts events by Year and by Month, each split by
// tsunami indicator. Periods without events are omitted; both lists are in
// ascending period order.
func TemporalBreakdown(t *domain.Table) Temporal {
	years := make(map[int]*PeriodCount)
	months := make(map[int]*PeriodCount)

	for _, e := range t.Events() {
		tally(years, e.Year, e.Tsunami)
		tally(months, e.Month, e.Tsunami)
	}

	return Temporal{
		ByYear:  sortedCounts(years),
		ByMonth: sortedCounts(months),
	}
}

func tally(counts map[int]*PeriodCount, period int, tsunami bool) {
	pc, ok := counts[period]
	if !ok {
		pc = &PeriodCount{Period: period}
		counts[period] = pc
	}
	if tsunami {
		pc.Tsunami++
	} else {
		pc.NoTsunami++
	}
	pc.Total++
}

func sortedCounts(counts map[int]*PeriodCount) []PeriodCount {
	out := make([]PeriodCount, 0, len(counts))
	for _, period := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, *counts[period])
	}
	return out
}
