// Package api — quote, historical, and subscription endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/faststock/internal/config"
	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/pkg/symbols"
	"github.com/seenimoa/faststock/pkg/utils"
)

const adapterCallTimeout = 15 * time.Second

// requestCtx bounds an adapter call made on behalf of a request.
func requestCtx(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"market_status": utils.MarketStatus(),
		"time_ist":      utils.FormatDateTimeIST(utils.NowIST()),
	})
}

// handleQuote serves the latest cached quote; it never touches an
// upstream.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Normalize(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	q, ok := s.cache.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "no cached quote for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleFetch bypasses the cache: it routes the symbol to its adapter,
// fetches live, caches the result, and returns it.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Normalize(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := requestCtx(r, adapterCallTimeout)
	defer cancel()

	q, err := s.rtr.Route(symbol).Quote(ctx, symbol)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.cache.Set(symbol, *q)
	writeJSON(w, http.StatusOK, q)
}

// handleQuotes returns a point-in-time snapshot of the whole cache.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(snap),
		"quotes": snap,
	})
}

// handleQuotesFetch fetches several symbols live in one call:
// GET /quotes/fetch?symbols=BTCUSDT,INFY.NS. Best effort; symbols that
// fail are simply absent from the response.
func (s *Server) handleQuotesFetch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}
	var list []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	if len(list) == 0 {
		writeError(w, http.StatusBadRequest, "symbols query parameter is empty")
		return
	}

	ctx, cancel := requestCtx(r, adapterCallTimeout)
	defer cancel()

	quotes, err := s.rtr.MultiQuote(ctx, list)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	for symbol, q := range quotes {
		s.cache.Set(symbol, q)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requested": len(list),
		"fetched":   len(quotes),
		"quotes":    quotes,
	})
}

// handleHistorical serves OHLCV candles from the routed adapter.
// Period and interval default to one month of dailies.
func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Normalize(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1mo"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	ctx, cancel := requestCtx(r, 30*time.Second)
	defer cancel()

	bars, err := s.rtr.Route(symbol).Historical(ctx, symbol, period, interval)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":   symbol,
		"period":   period,
		"interval": interval,
		"count":    len(bars),
		"bars":     bars,
	})
}

// SubscribeRequest is the body for POST /subscribe.
type SubscribeRequest struct {
	Symbol string `json:"symbol"`
}

// handleSubscribe adds a symbol to the poll list. Idempotent: repeat
// calls for the same symbol report subscribed without duplicating it.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol := symbols.Normalize(req.Symbol)
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	inserted := s.subs.Add(symbol)
	if err := s.subs.Save(); err != nil {
		writeError(w, http.StatusInternalServerError, "persist subscriptions: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":     symbol,
		"subscribed": true,
		"added":      inserted,
		"total":      s.subs.Len(),
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Normalize(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if !s.subs.Remove(symbol) {
		writeError(w, http.StatusNotFound, symbol+" is not subscribed")
		return
	}
	if err := s.subs.Save(); err != nil {
		writeError(w, http.StatusInternalServerError, "persist subscriptions: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":     symbol,
		"subscribed": false,
		"total":      s.subs.Len(),
	})
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	list := s.subs.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(list),
		"symbols": list,
	})
}

// handleCryptoStats serves rolling 24h statistics when the crypto
// adapter supports them.
func (s *Server) handleCryptoStats(w http.ResponseWriter, r *http.Request) {
	symbol := symbols.Normalize(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	stats, ok := s.rtr.Crypto().(provider.StatsProvider)
	if !ok {
		writeError(w, http.StatusNotImplemented, "24h statistics not supported by the crypto adapter")
		return
	}

	ctx, cancel := requestCtx(r, adapterCallTimeout)
	defer cancel()

	out, err := stats.Stats24h(ctx, symbol)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleConfigKeys reports which provider credentials are configured,
// masked for display.
func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": config.CheckAPIKeys(s.cfg),
	})
}
