package analysis

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// Description is the distribution summary of one numeric column.
type Description struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
	IQR    float64 `json:"iqr"`
}

// Describe summarizes column over the present values of t. Std is the sample
// standard deviation and is 0 for fewer than two values. Quartiles use linear
// interpolation between closest ranks.
func Describe(t *domain.Table, columnName string) (Description, error) {
	raw, err := column(t, columnName)
	if err != nil {
		return Description{}, err
	}

	data := present(raw)
	d := Description{Column: columnName, Count: len(data)}
	if len(data) == 0 {
		return d, nil
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	d.Mean, _ = stats.Mean(data)
	d.Min, _ = stats.Min(data)
	d.Max, _ = stats.Max(data)
	d.Median, _ = stats.Median(data)
	if len(data) > 1 {
		d.Std, _ = stats.StandardDeviationSample(data)
	}
	d.Q25 = quantile(sorted, 0.25)
	d.Q75 = quantile(sorted, 0.75)
	d.IQR = d.Q75 - d.Q25
	return d, nil
}

// quantile returns the p-quantile of sorted, interpolating linearly between
// the two closest ranks. It returns NaN for empty input.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := p * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
