// Package analysis computes the descriptive aggregations shown alongside a
// filtered catalog: headline summary, per-column statistics, rank
// correlations, temporal breakdowns and monitoring-coverage gaps.
//
// Every function accepts an empty table and returns zero values rather than
// an error. Missing optional measurements (nst, dmin, gap) are skipped.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// ErrUnknownColumn is returned for a column name that is not numeric or does
// not exist.
var ErrUnknownColumn = errors.New("unknown column")

type accessor func(e *domain.Event) float64

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var accessors = map[string]accessor{
	domain.ColMagnitude: func(e *domain.Event) float64 { return e.Magnitude },
	domain.ColDepth:     func(e *domain.Event) float64 { return e.Depth },
	domain.ColLatitude:  func(e *domain.Event) float64 { return e.Latitude },
	domain.ColLongitude: func(e *domain.Event) float64 { return e.Longitude },
	domain.ColSig:       func(e *domain.Event) float64 { return float64(e.Sig) },
	domain.ColNst:       func(e *domain.Event) float64 { return float64(e.Nst) },
	domain.ColDmin:      func(e *domain.Event) float64 { return float64(e.Dmin) },
	domain.ColGap:       func(e *domain.Event) float64 { return float64(e.Gap) },
	domain.ColCdi:       func(e *domain.Event) float64 { return e.Cdi },
	domain.ColMmi:       func(e *domain.Event) float64 { return e.Mmi },
	domain.ColYear:      func(e *domain.Event) float64 { return float64(e.Year) },
	domain.ColMonth:     func(e *domain.Event) float64 { return float64(e.Month) },
	domain.ColTsunami:   func(e *domain.Event) float64 { return boolValue(e.Tsunami) },
}

// NumericColumns lists the columns accepted by Describe and Spearman.
var NumericColumns = []string{
	domain.ColMagnitude, domain.ColDepth, domain.ColLatitude, domain.ColLongitude,
	domain.ColSig, domain.ColNst, domain.ColDmin, domain.ColGap, domain.ColCdi,
	domain.ColMmi, domain.ColYear, domain.ColMonth, domain.ColTsunami,
}

// CorrelationColumns is the default column set for Spearman.
var CorrelationColumns = []string{
	domain.ColMagnitude, domain.ColDepth, domain.ColSig, domain.ColNst,
	domain.ColDmin, domain.ColGap, domain.ColCdi, domain.ColMmi,
	domain.ColYear, domain.ColMonth, domain.ColTsunami,
}

func lookup(column string) (accessor, error) {
	fn, ok := accessors[column]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}
	return fn, nil
}

// column returns the values of one column in table order, NaN where missing.
func column(t *domain.Table, name string) ([]float64, error) {
	fn, err := lookup(name)
	if err != nil {
		return nil, err
	}
	events := t.Events()
	out := make([]float64, len(events))
	for i := range events {
		out[i] = fn(&events[i])
	}
	return out, nil
}

// present drops missing values.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
