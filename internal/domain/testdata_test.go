package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testHeader = []string{
	"title", "magnitude", "cdi", "mmi", "sig", "nst", "dmin", "gap",
	"depth", "latitude", "longitude", "Year", "Month", "tsunami",
}

// scenarioRaw is the three-event catalog used across the domain tests.
func scenarioRaw() RawTable {
	return RawTable{
		Header: testHeader,
		Rows: [][]string{
			{"M 7.2 - Honshu", "7.2", "8", "7", "1200", "", "0.5", "20", "30", "35", "139", "2011", "3", "1"},
			{"M 6.0 - Gulf of Guinea", "6.0", "", "", "554", "110", "", "", "500", "0", "10", "2015", "7", "0"},
			{"M 8.0 - Northern Chile", "8.0", "6", "", "1500", "", "", "", "10", "-20", "-70", "2020", "1", "1"},
		},
	}
}

func mustPrepare(t *testing.T, raw RawTable) *Table {
	t.Helper()
	table, err := Prepare(raw)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	return table
}

func rowsOf(t *Table) []int {
	rows := make([]int, 0, t.Len())
	for _, e := range t.Events() {
		rows = append(rows, e.Row)
	}
	return rows
}

// cmpQuality treats two missing measurements as equal.
var cmpQuality = cmp.Comparer(func(a, b Quality) bool {
	return a == b || (!a.Valid() && !b.Valid())
})
