package analysis

import (
	"math"
	"slices"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// Coverage describes events recorded with sparse station coverage: fewer
// stations than the 25th percentile of nst, or a nearest station farther than
// the 75th percentile of dmin.
type Coverage struct {
	Events        *domain.Table `json:"-"`
	Count         int           `json:"count"`
	Share         float64       `json:"share"` // percent of all events
	TsunamiEvents int           `json:"tsunami_events"`
	NstQ25        Float         `json:"nst_q25"`
	DminQ75       Float         `json:"dmin_q75"`
}

// LowCoverage selects the sparsely covered events of t. Missing nst or dmin
// values never satisfy their threshold.
func LowCoverage(t *domain.Table) Coverage {
	events := t.Events()

	nstQ25 := presentQuantile(events, func(e *domain.Event) float64 { return float64(e.Nst) }, 0.25)
	dminQ75 := presentQuantile(events, func(e *domain.Event) float64 { return float64(e.Dmin) }, 0.75)

	var selected []domain.Event
	tsunamis := 0
	for _, e := range events {
		// Comparisons against NaN are false, so missing values drop out.
		if float64(e.Nst) < nstQ25 || float64(e.Dmin) > dminQ75 {
			selected = append(selected, e)
			if e.Tsunami {
				tsunamis++
			}
		}
	}

	c := Coverage{
		Events:        domain.NewTable(selected),
		Count:         len(selected),
		TsunamiEvents: tsunamis,
		NstQ25:        Float(nstQ25),
		DminQ75:       Float(dminQ75),
	}
	if len(events) > 0 {
		c.Share = float64(len(selected)) / float64(len(events)) * 100
	}
	return c
}

func presentQuantile(events []domain.Event, fn accessor, p float64) float64 {
	values := make([]float64, 0, len(events))
	for i := range events {
		if v := fn(&events[i]); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return quantile(values, p)
}
