package analysis

import (
	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// Summary holds the headline figures for a table.
type Summary struct {
	TotalEvents     int     `json:"total_events"`
	TsunamiEvents   int     `json:"tsunami_events"`
	TsunamiRate     float64 `json:"tsunami_rate"` // percent
	AvgMagnitude    float64 `json:"avg_magnitude"`
	MaxMagnitude    float64 `json:"max_magnitude"`
	AvgDepth        float64 `json:"avg_depth"`
	YearsCovered    int     `json:"years_covered"`
	UniqueLocations int     `json:"unique_locations"`
}

// Summarize computes the headline figures. An empty table yields a zero Summary.
func Summarize(t *domain.Table) Summary {
	events := t.Events()
	if len(events) == 0 {
		return Summary{}
	}

	mags := make([]float64, len(events))
	depths := make([]float64, len(events))
	locations := make(map[[2]float64]struct{}, len(events))
	minYear, maxYear := events[0].Year, events[0].Year
	tsunamis := 0

	for i, e := range events {
		mags[i] = e.Magnitude
		depths[i] = e.Depth
		locations[[2]float64{e.Latitude, e.Longitude}] = struct{}{}
		minYear = min(minYear, e.Year)
		maxYear = max(maxYear, e.Year)
		if e.Tsunami {
			tsunamis++
		}
	}

	// Inputs are non-empty and finite, so the stats calls cannot fail.
	avgMag, _ := stats.Mean(mags)
	maxMag, _ := stats.Max(mags)
	avgDepth, _ := stats.Mean(depths)

	return Summary{
		TotalEvents:     len(events),
		TsunamiEvents:   tsunamis,
		TsunamiRate:     float64(tsunamis) / float64(len(events)) * 100,
		AvgMagnitude:    avgMag,
		MaxMagnitude:    maxMag,
		AvgDepth:        avgDepth,
		YearsCovered:    maxYear - minYear + 1,
		UniqueLocations: len(locations),
	}
}
