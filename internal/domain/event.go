package domain

import (
	"encoding/json"
	"math"
	"slices"
)

// Column names as they appear in the source header.
const (
	ColMagnitude = "magnitude"
	ColDepth     = "depth"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColTsunami   = "tsunami"
	ColYear      = "Year"
	ColMonth     = "Month"
	ColSig       = "sig"
	ColNst       = "nst"
	ColDmin      = "dmin"
	ColGap       = "gap"
	ColCdi       = "cdi"
	ColMmi       = "mmi"
)

// RequiredColumns lists the columns every source must provide, in the order
// they are reported when missing.
var RequiredColumns = []string{
	ColMagnitude, ColDepth, ColLatitude, ColLongitude,
	ColTsunami, ColYear, ColMonth, ColSig,
}

// RawTable is the untyped tabular data read from a source, header first.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (r RawTable) Len() int { return len(r.Rows) }

// Event is one prepared row of the catalog.
type Event struct {
	ID  string `json:"id"`
	Row int    `json:"row"`

	Magnitude float64 `json:"magnitude"`
	Depth     float64 `json:"depth"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Tsunami   bool    `json:"tsunami"`
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Sig       int     `json:"sig"`

	// Monitoring quality. Cdi and Mmi are 0 when the source has no value.
	Nst  Quality `json:"nst"`
	Dmin Quality `json:"dmin"`
	Gap  Quality `json:"gap"`
	Cdi  float64 `json:"cdi"`
	Mmi  float64 `json:"mmi"`

	Shallow       bool          `json:"shallow"`
	HighMagnitude bool          `json:"high_magnitude"`
	RingOfFire    bool          `json:"ring_of_fire"`
	MagCategory   MagCategory   `json:"mag_category,omitempty"`
	DepthCategory DepthCategory `json:"depth_category,omitempty"`
}

// Table is an immutable, ordered set of prepared events.
type Table struct {
	events []Event
}

// NewTable wraps events in a Table. The slice is copied.
func NewTable(events []Event) *Table {
	return &Table{events: slices.Clone(events)}
}

// Len returns the number of events.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.events)
}

// At returns the i-th event.
func (t *Table) At(i int) Event { return t.events[i] }

// Events returns a copy of the events in table order.
func (t *Table) Events() []Event {
	if t == nil {
		return nil
	}
	return slices.Clone(t.events)
}

// Quality is an optional measurement. NaN marks a missing value and encodes as null.
type Quality float64

// MissingQuality returns the missing-value marker.
func MissingQuality() Quality { return Quality(math.NaN()) }

// Valid reports whether the value is present.
func (q Quality) Valid() bool { return !math.IsNaN(float64(q)) }

func (q Quality) MarshalJSON() ([]byte, error) {
	if !q.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(q))
}

func (q *Quality) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = MissingQuality()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*q = Quality(f)
	return nil
}
