// Package api — option-chain endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/faststock/internal/analytics"
	"github.com/seenimoa/faststock/internal/options"
	"github.com/seenimoa/faststock/pkg/symbols"
)

const chainCallTimeout = 30 * time.Second

// OptionFetchRequest is the body for POST /options/fetch and
// POST /options/fetch/expiry.
type OptionFetchRequest struct {
	Index      string `json:"index"`
	Expiry     string `json:"expiry,omitempty"` // DDMMYY or DD-MMM-YYYY
	NumStrikes int    `json:"num_strikes,omitempty"`
}

func (s *Server) handleOptionExpiries(w http.ResponseWriter, r *http.Request) {
	index := symbols.Normalize(r.URL.Query().Get("index"))
	if index == "" {
		writeError(w, http.StatusBadRequest, "index query parameter is required")
		return
	}

	ctx, cancel := requestCtx(r, chainCallTimeout)
	defer cancel()

	expiries, err := s.pipeline.Expiries(ctx, index)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":    index,
		"expiries": expiries,
	})
}

func (s *Server) handleIndexPrice(w http.ResponseWriter, r *http.Request) {
	index := symbols.Normalize(r.URL.Query().Get("index"))
	if index == "" {
		writeError(w, http.StatusBadRequest, "index query parameter is required")
		return
	}
	if s.index == nil {
		writeError(w, http.StatusNotImplemented, "no index price source configured")
		return
	}

	ctx, cancel := requestCtx(r, adapterCallTimeout)
	defer cancel()

	q, err := s.index.IndexQuote(ctx, index)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleOptionFetch persists a snapshot for the nearest expiry.
func (s *Server) handleOptionFetch(w http.ResponseWriter, r *http.Request) {
	s.fetchSnapshot(w, r, false)
}

// handleOptionFetchExpiry persists a snapshot for a caller-chosen
// expiry.
func (s *Server) handleOptionFetchExpiry(w http.ResponseWriter, r *http.Request) {
	s.fetchSnapshot(w, r, true)
}

func (s *Server) fetchSnapshot(w http.ResponseWriter, r *http.Request, requireExpiry bool) {
	var req OptionFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	index := symbols.Normalize(req.Index)
	if index == "" {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	if requireExpiry && req.Expiry == "" {
		writeError(w, http.StatusBadRequest, "expiry is required")
		return
	}
	numStrikes := req.NumStrikes
	if numStrikes <= 0 {
		numStrikes = s.cfg.Options.NumStrikes
	}

	ctx, cancel := requestCtx(r, chainCallTimeout)
	defer cancel()

	meta, err := s.pipeline.FetchAndPersist(ctx, index, req.Expiry, numStrikes)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": uuid.NewString(),
		"meta":   meta,
	})
}

// handleOptionAnalytics computes analytics over the most recent
// persisted snapshot for an index.
func (s *Server) handleOptionAnalytics(w http.ResponseWriter, r *http.Request) {
	index := symbols.Normalize(r.URL.Query().Get("index"))
	if index == "" {
		writeError(w, http.StatusBadRequest, "index query parameter is required")
		return
	}

	chain, meta, err := s.pipeline.LoadLatest(index)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	summary := analytics.Summarize(index, chain, s.cfg.Options.TopN)
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":  meta,
		"analytics": summary,
	})
}

// handleOptionLiveAnalytics computes the same analytics from a live
// chain fetch without persisting anything.
func (s *Server) handleOptionLiveAnalytics(w http.ResponseWriter, r *http.Request) {
	index := symbols.Normalize(r.URL.Query().Get("index"))
	if index == "" {
		writeError(w, http.StatusBadRequest, "index query parameter is required")
		return
	}
	numStrikes := intQuery(r, "num_strikes", s.cfg.Options.NumStrikes)

	ctx, cancel := requestCtx(r, chainCallTimeout)
	defer cancel()

	chain, meta, err := s.pipeline.FetchLive(ctx, index, r.URL.Query().Get("expiry"), numStrikes)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	summary := analytics.Summarize(index, chain, s.cfg.Options.TopN)
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":  meta,
		"analytics": summary,
	})
}

// handleOptionLatest returns the newest persisted snapshot: metadata
// plus its rows.
func (s *Server) handleOptionLatest(w http.ResponseWriter, r *http.Request) {
	index := symbols.Normalize(r.URL.Query().Get("index"))
	if index == "" {
		writeError(w, http.StatusBadRequest, "index query parameter is required")
		return
	}

	chain, meta, err := s.pipeline.LoadLatest(index)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	rows := chainRows(chain)
	if limit := intQuery(r, "limit", 0); limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	path, _ := s.pipeline.Latest(index)
	writeJSON(w, http.StatusOK, map[string]any{
		"file": filepath.Base(path),
		"meta": meta,
		"rows": rows,
	})
}

// chainRows renders rows as flat JSON objects in column form.
func chainRows(chain *options.Chain) []map[string]any {
	out := make([]map[string]any, 0, len(chain.Rows))
	for _, row := range chain.Rows {
		m := make(map[string]any, len(row.Fields)+2)
		m["strikePrice"] = row.Strike
		m["expiryDate"] = row.Expiry
		for k, v := range row.Fields {
			m[k] = v
		}
		out = append(out, m)
	}
	return out
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
