// Command quakestat prepares an earthquake catalog file and prints summary
// statistics, optionally restricted by the same filters the API accepts.
//
// Usage:
//
//	go run ./cmd/quakestat \
//	  -data data/earthquake_data_tsunami.csv \
//	  -magnitude 7.5: -tsunami only \
//	  -describe depth -correlations 5
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-data-explorer/internal/analysis"
	"github.com/couchcryptid/quake-data-explorer/internal/domain"
	"github.com/couchcryptid/quake-data-explorer/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// report is the -json output.
type report struct {
	Source      string                `json:"source"`
	Filters     map[string]string     `json:"filters,omitempty"`
	Summary     analysis.Summary      `json:"summary"`
	Description *analysis.Description `json:"description,omitempty"`
	Strongest   []analysis.Pair       `json:"strongest,omitempty"`
	Coverage    analysis.Coverage     `json:"coverage"`
}

func run() error {
	var cfg domain.FilterConfig
	given := map[string]string{} // filter flags as typed, for the report

	dataPath := flag.String("data", "data/earthquake_data_tsunami.csv", "catalog file (.csv, .tsv or .xlsx)")
	describe := flag.String("describe", "", "numeric column to describe")
	topPairs := flag.Int("correlations", 0, "print the N strongest Spearman correlations")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	out := flag.String("out", "", "also write the filtered events as a JSON fixture to this path")
	flag.Func("years", "inclusive year range MIN:MAX", func(s string) error {
		given["years"] = s
		r, err := parseRange(s, strconv.Atoi)
		cfg.Years = r
		return err
	})
	flag.Func("magnitude", "inclusive magnitude range MIN:MAX", func(s string) error {
		given["magnitude"] = s
		r, err := parseRange(s, parseFloat)
		cfg.Magnitude = r
		return err
	})
	flag.Func("depth", "inclusive depth range in km MIN:MAX", func(s string) error {
		given["depth"] = s
		r, err := parseRange(s, parseFloat)
		cfg.Depth = r
		return err
	})
	flag.Func("months", "comma-separated month numbers", func(s string) error {
		given["months"] = s
		cfg.Months = []int{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			m, err := strconv.Atoi(part)
			if err != nil {
				return err
			}
			cfg.Months = append(cfg.Months, m)
		}
		return nil
	})
	tsunami := flag.String("tsunami", "all", "all | only | none")
	region := flag.String("region", "all", "all | ring_of_fire | outside")
	flag.Parse()

	if *tsunami != "all" {
		given["tsunami"] = *tsunami
		cfg.Tsunami = domain.TsunamiFilter(*tsunami)
	}
	if *region != "all" {
		given["region"] = *region
		cfg.Region = domain.RegionFilter(*region)
	}

	src := source.NewFile(*dataPath)
	raw, err := src.Load(context.Background())
	if err != nil {
		return err
	}
	table, err := domain.Prepare(raw)
	if err != nil {
		return err
	}
	filtered, err := domain.Apply(table, cfg)
	if err != nil {
		return err
	}

	rep := report{
		Source:   *dataPath,
		Filters:  given,
		Summary:  analysis.Summarize(filtered),
		Coverage: analysis.LowCoverage(filtered),
	}
	if *describe != "" {
		d, err := analysis.Describe(filtered, *describe)
		if err != nil {
			return err
		}
		rep.Description = &d
	}
	if *topPairs > 0 {
		m, err := analysis.Spearman(filtered, nil)
		if err != nil {
			return err
		}
		rep.Strongest = analysis.StrongestPairs(m, *topPairs)
	}

	if *out != "" {
		if err := writeJSON(*out, filtered.Events()); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote %d events to %s", filtered.Len(), *out)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(rep, table.Len())
	return nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, err
}

// parseRange reads "MIN:MAX". Either side may be empty to leave it open.
func parseRange[T int | float64](s string, parse func(string) (T, error)) (*domain.Range[T], error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("%q: want MIN:MAX", s)
	}
	r := &domain.Range[T]{Min: lowest[T](), Max: highest[T]()}
	var err error
	if lo = strings.TrimSpace(lo); lo != "" {
		if r.Min, err = parse(lo); err != nil {
			return nil, err
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if r.Max, err = parse(hi); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func lowest[T int | float64]() T {
	var v T
	switch p := any(&v).(type) {
	case *int:
		*p = math.MinInt
	case *float64:
		*p = math.Inf(-1)
	}
	return v
}

func highest[T int | float64]() T {
	var v T
	switch p := any(&v).(type) {
	case *int:
		*p = math.MaxInt
	case *float64:
		*p = math.Inf(1)
	}
	return v
}

func printReport(rep report, total int) {
	s := rep.Summary
	fmt.Printf("source: %s (%d events, %d matched)\n", rep.Source, total, s.TotalEvents)
	fmt.Printf("  tsunami events:   %d (%.1f%%)\n", s.TsunamiEvents, s.TsunamiRate)
	fmt.Printf("  magnitude:        avg %.2f, max %.1f\n", s.AvgMagnitude, s.MaxMagnitude)
	fmt.Printf("  average depth:    %.1f km\n", s.AvgDepth)
	fmt.Printf("  years covered:    %d\n", s.YearsCovered)
	fmt.Printf("  unique locations: %d\n", s.UniqueLocations)
	fmt.Printf("  low coverage:     %d events (%.1f%%), %d with tsunami\n",
		rep.Coverage.Count, rep.Coverage.Share, rep.Coverage.TsunamiEvents)

	if d := rep.Description; d != nil {
		fmt.Printf("\n%s: n=%d mean=%.3f std=%.3f\n", d.Column, d.Count, d.Mean, d.Std)
		fmt.Printf("  min=%.3f q25=%.3f median=%.3f q75=%.3f max=%.3f iqr=%.3f\n",
			d.Min, d.Q25, d.Median, d.Q75, d.Max, d.IQR)
	}

	if len(rep.Strongest) > 0 {
		fmt.Println("\nstrongest correlations (spearman):")
		for _, p := range rep.Strongest {
			fmt.Printf("  %-10s %-10s r=%+.3f n=%d p=%.3g\n", p.A, p.B, float64(p.R), p.N, float64(p.PValue))
		}
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
