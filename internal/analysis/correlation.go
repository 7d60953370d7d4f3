package analysis

import (
	"encoding/json"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

// Float is a statistic that may be undefined, such as the correlation of a
// constant column. NaN encodes as null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// Defined reports whether f has a value.
func (f Float) Defined() bool { return !math.IsNaN(float64(f)) }

// Matrix is a symmetric rank-correlation matrix. N holds the number of rows
// with both values present for each pair.
type Matrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Float `json:"values"`
	N       [][]int   `json:"n"`
}

// Pair is one off-diagonal entry of a Matrix.
type Pair struct {
	A      string `json:"a"`
	B      string `json:"b"`
	R      Float  `json:"r"`
	N      int    `json:"n"`
	PValue Float  `json:"p_value"`
}

// Spearman computes the rank correlation between every pair of columns using
// pairwise-complete rows. Tied values share their average rank. A nil column
// list selects CorrelationColumns.
func Spearman(t *domain.Table, columns []string) (*Matrix, error) {
	if columns == nil {
		columns = CorrelationColumns
	}

	data := make([][]float64, len(columns))
	for i, name := range columns {
		xs, err := column(t, name)
		if err != nil {
			return nil, err
		}
		data[i] = xs
	}

	k := len(columns)
	m := &Matrix{
		Columns: slices.Clone(columns),
		Values:  make([][]Float, k),
		N:       make([][]int, k),
	}
	for i := range k {
		m.Values[i] = make([]Float, k)
		m.N[i] = make([]int, k)
	}

	for i := range k {
		for j := i; j < k; j++ {
			r, n := spearmanPair(data[i], data[j])
			m.Values[i][j], m.Values[j][i] = r, r
			m.N[i][j], m.N[j][i] = n, n
		}
	}
	return m, nil
}

func spearmanPair(x, y []float64) (Float, int) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	if n < 2 {
		return Float(math.NaN()), n
	}
	return Float(stat.Correlation(ranks(xs), ranks(ys), nil)), n
}

// ranks returns 1-based ranks of xs with ties given their average rank.
func ranks(xs []float64) []float64 {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	out := make([]float64, len(xs))
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && xs[order[end]] == xs[order[start]] {
			end++
		}
		avg := float64(start+end+1) / 2
		for _, idx := range order[start:end] {
			out[idx] = avg
		}
		start = end
	}
	return out
}

// StrongestPairs returns the off-diagonal pairs of m ordered by descending
// absolute correlation. Undefined coefficients are left out. n <= 0 returns
// every pair.
func StrongestPairs(m *Matrix, n int) []Pair {
	var pairs []Pair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if !r.Defined() {
				continue
			}
			pairs = append(pairs, Pair{
				A:      m.Columns[i],
				B:      m.Columns[j],
				R:      r,
				N:      m.N[i][j],
				PValue: correlationPValue(float64(r), m.N[i][j]),
			})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(float64(pairs[a].R)) > math.Abs(float64(pairs[b].R))
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// correlationPValue is the two-sided p-value of r under the null hypothesis
// of no correlation, using the t approximation with n-2 degrees of freedom.
func correlationPValue(r float64, n int) Float {
	if n < 3 {
		return Float(math.NaN())
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	tStat := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return Float(2 * (1 - dist.CDF(math.Abs(tStat))))
}
