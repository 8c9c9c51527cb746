// Package poller drives the background refresh loop: every interval it
// walks the subscription list, routes each symbol to its adapter, and
// writes successful quotes into the cache.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/internal/cache"
	"github.com/seenimoa/faststock/internal/metrics"
	"github.com/seenimoa/faststock/internal/provider"
	"github.com/seenimoa/faststock/internal/router"
	"github.com/seenimoa/faststock/internal/subs"
)

// Poller is the single long-lived background worker. One instance per
// process.
type Poller struct {
	router      *router.Router
	cache       *cache.Store
	subs        *subs.Store
	interval    time.Duration
	symbolDelay time.Duration
	callTimeout time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// Config wires a Poller.
type Config struct {
	Router      *router.Router
	Cache       *cache.Store
	Subs        *subs.Store
	Interval    time.Duration // time between passes
	SymbolDelay time.Duration // pause between symbols within a pass
	CallTimeout time.Duration // per-adapter-call deadline
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

// New creates a poller. Zero durations fall back to the service
// defaults (60s interval, 200ms inter-symbol delay, 15s call timeout).
func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.SymbolDelay <= 0 {
		cfg.SymbolDelay = 200 * time.Millisecond
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Poller{
		router:      cfg.Router,
		cache:       cfg.Cache,
		subs:        cfg.Subs,
		interval:    cfg.Interval,
		symbolDelay: cfg.SymbolDelay,
		callTimeout: cfg.CallTimeout,
		metrics:     cfg.Metrics,
		log:         cfg.Logger.With().Str("component", "poller").Logger(),
	}
}

// Run loops until ctx is cancelled. Cancellation is observed at the top
// of each pass, between symbols, and when an in-flight adapter call
// returns; the call itself is bounded by the per-call timeout.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First pass immediately so the cache is warm before the first tick.
	p.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.pass(ctx)
		}
	}
}

// pass refreshes every subscribed symbol once. One symbol's failure
// never aborts the pass: every error kind is logged and skipped, and
// the symbol stays subscribed. There are no within-pass retries — the
// next tick is the retry.
func (p *Poller) pass(ctx context.Context) {
	symbols := p.subs.List()
	if len(symbols) == 0 {
		p.log.Debug().Msg("no subscriptions, idling")
		return
	}

	start := time.Now()
	fetched := 0

	for i, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if p.fetchOne(ctx, symbol) {
			fetched++
		}
		if p.metrics != nil {
			p.metrics.CacheSize.Set(float64(p.cache.Len()))
		}

		// Small pause between symbols so upstreams see a trickle, not
		// a burst. Skipped after the last symbol.
		if i < len(symbols)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.symbolDelay):
			}
		}
	}

	if err := p.subs.Save(); err != nil {
		p.log.Error().Err(err).Msg("persist subscriptions")
	}

	if p.metrics != nil {
		p.metrics.PollPasses.Inc()
		p.metrics.PollDuration.Observe(time.Since(start).Seconds())
	}
	p.log.Info().
		Int("symbols", len(symbols)).
		Int("fetched", fetched).
		Dur("elapsed", time.Since(start)).
		Msg("pass complete")
}

// fetchOne refreshes a single symbol. It reports whether the cache was
// updated.
func (p *Poller) fetchOne(ctx context.Context, symbol string) bool {
	adapter := p.router.Route(symbol)

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	q, err := adapter.Quote(callCtx, symbol)
	if err != nil {
		kind := provider.KindOf(err)
		if p.metrics != nil {
			p.metrics.FetchErrors.WithLabelValues(adapter.Name(), kind.String()).Inc()
		}
		p.log.Warn().
			Str("symbol", symbol).
			Str("provider", adapter.Name()).
			Str("kind", kind.String()).
			Err(err).
			Msg("fetch failed, skipping symbol")
		return false
	}

	if prev, ok := p.cache.Get(symbol); ok && q.Timestamp.Before(prev.Timestamp) {
		// Out-of-order upstream response. Accepted, but worth a note.
		p.log.Debug().
			Str("symbol", symbol).
			Time("prev", prev.Timestamp).
			Time("new", q.Timestamp).
			Msg("timestamp went backwards")
	}

	p.cache.Set(symbol, *q)
	if p.metrics != nil {
		p.metrics.QuotesFetched.WithLabelValues(adapter.Name()).Inc()
	}
	return true
}
