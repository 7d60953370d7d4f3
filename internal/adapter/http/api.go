package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/quake-data-explorer/internal/analysis"
	"github.com/couchcryptid/quake-data-explorer/internal/catalog"
	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	defaultTopPairs   = 10
)

// meta describes the snapshot a response was computed from.
type meta struct {
	Generation uint64    `json:"generation"`
	PreparedAt time.Time `json:"prepared_at"`
	Total      int       `json:"total"`
	Matched    int       `json:"matched"`
}

func newMeta(snap *catalog.Snapshot, filtered *domain.Table) meta {
	return meta{
		Generation: snap.Generation,
		PreparedAt: snap.PreparedAt,
		Total:      snap.Table.Len(),
		Matched:    filtered.Len(),
	}
}

// filtered parses the filter parameters and applies them to the current
// snapshot. On failure the error response has already been written.
func (s *Server) filtered(w http.ResponseWriter, r *http.Request) (*catalog.Snapshot, *domain.Table, bool) {
	cfg, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	snap, table, err := s.catalog.Filter(r.Context(), cfg)
	if err != nil {
		s.writeError(w, r, err)
		return nil, nil, false
	}
	return snap, table, true
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, table, ok := s.filtered(w, r)
	if !ok {
		return
	}

	events := table.Events()
	if events == nil {
		events = []domain.Event{}
	}
	start := min(offset, len(events))
	end := min(start+limit, len(events))

	writeJSON(w, http.StatusOK, map[string]any{
		"meta":   newMeta(snap, table),
		"offset": start,
		"limit":  limit,
		"events": events[start:end],
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, table, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meta":    newMeta(snap, table),
		"summary": analysis.Summarize(table),
	})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	snap, table, ok := s.filtered(w, r)
	if !ok {
		return
	}
	d, err := analysis.Describe(table, chi.URLParam(r, "column"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meta":        newMeta(snap, table),
		"description": d,
	})
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var columns []string
	if v := strings.TrimSpace(q.Get("columns")); v != "" {
		for _, c := range strings.Split(v, ",") {
			columns = append(columns, strings.TrimSpace(c))
		}
	}
	top := defaultTopPairs
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, &domain.ConfigError{Field: "top", Reason: "must be a non-negative integer"})
			return
		}
		top = n
	}

	snap, table, ok := s.filtered(w, r)
	if !ok {
		return
	}
	m, err := analysis.Spearman(table, columns)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meta":      newMeta(snap, table),
		"matrix":    m,
		"strongest": analysis.StrongestPairs(m, top),
	})
}

func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	snap, table, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meta":     newMeta(snap, table),
		"temporal": analysis.TemporalBreakdown(table),
	})
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	snap, table, ok := s.filtered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meta":     newMeta(snap, table),
		"coverage": analysis.LowCoverage(table),
	})
}

// handleRisk scores a hypothetical event. Ring of Fire membership comes from
// ring_of_fire, or from latitude and longitude when both are given.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mag, hasMag, err := floatParam(q, "magnitude")
	if err == nil && !hasMag {
		err = &domain.ConfigError{Field: "magnitude", Reason: "required"}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	depth, hasDepth, err := floatParam(q, "depth")
	if err == nil && !hasDepth {
		err = &domain.ConfigError{Field: "depth", Reason: "required"}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ring, err := boolParam(q, "ring_of_fire")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lat, hasLat, err := floatParam(q, "latitude")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lon, hasLon, err := floatParam(q, "longitude")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if hasLat && hasLon {
		ring = domain.InRingOfFire(lat, lon)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"magnitude":    mag,
		"depth":        depth,
		"ring_of_fire": ring,
		"assessment":   domain.AssessTsunamiRisk(mag, depth, ring),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Reload(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("catalog reloaded on request", "generation", snap.Generation, "rows", snap.Table.Len())
	writeJSON(w, http.StatusOK, map[string]any{
		"generation":  snap.Generation,
		"prepared_at": snap.PreparedAt,
		"rows":        snap.Table.Len(),
	})
}

func page(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit, offset = defaultEventLimit, 0

	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxEventLimit {
			return 0, 0, &domain.ConfigError{Field: "limit", Reason: "must be between 1 and " + strconv.Itoa(maxEventLimit)}
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, &domain.ConfigError{Field: "offset", Reason: "must be a non-negative integer"}
		}
	}
	return limit, offset, nil
}

// writeError maps failures to status codes: bad input is 400, an unavailable
// or malformed data source is 503, and preparation or other failures are 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var (
		cfgErr    *domain.ConfigError
		schemaErr *domain.SchemaError
		srcErr    *domain.SourceUnavailableError
	)
	switch {
	case errors.As(err, &cfgErr), errors.Is(err, analysis.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.As(err, &schemaErr), errors.As(err, &srcErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
