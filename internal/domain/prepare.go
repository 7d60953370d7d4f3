package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errMissingValue = errors.New("missing value")
	errNotBoolean   = errors.New("expected 0 or 1")
	errNotFinite    = errors.New("not a finite number")
)

// columnIndex maps header names to positions. Names are matched exactly.
type columnIndex map[string]int

func indexHeader(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// ValidateSchema returns a *SchemaError naming every required column absent
// from header, or nil.
func ValidateSchema(header []string) error {
	idx := indexHeader(header)
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Prepare validates raw against the required schema and returns the enriched
// table. It never drops or reorders rows and never mutates raw. On failure no
// table is returned: the error is a *SchemaError or a *PreparationError.
func Prepare(raw RawTable) (*Table, error) {
	if err := ValidateSchema(raw.Header); err != nil {
		return nil, err
	}

	idx := indexHeader(raw.Header)
	events := make([]Event, len(raw.Rows))
	for i, row := range raw.Rows {
		event, err := parseRow(idx, row, i)
		if err != nil {
			return nil, err
		}
		events[i] = EnrichEvent(event)
	}
	return &Table{events: events}, nil
}

// EnrichEvent computes every derived field of a parsed event.
func EnrichEvent(event Event) Event {
	event.Shallow = isShallow(event.Depth)
	event.HighMagnitude = isHighMagnitude(event.Magnitude)
	event.RingOfFire = InRingOfFire(event.Latitude, event.Longitude)

	event.MagCategory = classifyMagnitude(event.Magnitude)
	event.DepthCategory = classifyDepth(event.Depth)

	if math.IsNaN(event.Cdi) {
		event.Cdi = 0
	}
	if math.IsNaN(event.Mmi) {
		event.Mmi = 0
	}
	return event
}

// rowReader pulls typed cells out of one raw row, remembering the first failure.
type rowReader struct {
	idx columnIndex
	row []string
	num int
	err error
}

func (r *rowReader) cell(col string) (string, bool) {
	i, ok := r.idx[col]
	if !ok || i >= len(r.row) {
		return "", false
	}
	v := strings.TrimSpace(r.row[i])
	return v, v != ""
}

func (r *rowReader) fail(col string, err error) {
	if r.err == nil {
		r.err = &PreparationError{Row: r.num, Column: col, Err: err}
	}
}

func (r *rowReader) number(col string) float64 {
	s, ok := r.cell(col)
	if !ok {
		r.fail(col, errMissingValue)
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.fail(col, errNotFinite)
		return 0
	}
	return v
}

// integer accepts integral floats ("2011.0") since spreadsheet exports often write them.
func (r *rowReader) integer(col string) int {
	v := r.number(col)
	if r.err != nil {
		return 0
	}
	if v != math.Trunc(v) {
		r.fail(col, fmt.Errorf("expected integer, got %g", v))
		return 0
	}
	return int(v)
}

func (r *rowReader) flag(col string) bool {
	switch v := r.number(col); {
	case r.err != nil:
		return false
	case v == 0:
		return false
	case v == 1:
		return true
	default:
		r.fail(col, errNotBoolean)
		return false
	}
}

// optional returns NaN for an absent column or empty cell.
func (r *rowReader) optional(col string) float64 {
	s, ok := r.cell(col)
	if !ok {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, err)
		return math.NaN()
	}
	if math.IsInf(v, 0) {
		r.fail(col, errNotFinite)
		return math.NaN()
	}
	return v
}

func parseRow(idx columnIndex, row []string, num int) (Event, error) {
	r := &rowReader{idx: idx, row: row, num: num}

	event := Event{
		Row:       num,
		Magnitude: r.number(ColMagnitude),
		Depth:     r.number(ColDepth),
		Latitude:  r.number(ColLatitude),
		Longitude: r.number(ColLongitude),
		Tsunami:   r.flag(ColTsunami),
		Year:      r.integer(ColYear),
		Month:     r.integer(ColMonth),
		Sig:       r.integer(ColSig),
		Nst:       Quality(r.optional(ColNst)),
		Dmin:      Quality(r.optional(ColDmin)),
		Gap:       Quality(r.optional(ColGap)),
		Cdi:       r.optional(ColCdi),
		Mmi:       r.optional(ColMmi),
	}
	if r.err != nil {
		return Event{}, r.err
	}
	event.ID = generateID(event.Year, event.Month, event.Latitude, event.Longitude, event.Depth, event.Magnitude)
	return event, nil
}

// generateID produces a deterministic ID from the event's key fields so that
// re-preparing the same catalog yields the same IDs.
func generateID(year, month int, lat, lon, depth, magnitude float64) string {
	input := fmt.Sprintf("%d|%d|%.4f|%.4f|%.3f|%g", year, month, lat, lon, depth, magnitude)
	hash := sha256.Sum256([]byte(input))
	return "quake-" + hex.EncodeToString(hash[:8])
}
