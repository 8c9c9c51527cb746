package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
)

const binanceBaseURL = "https://api.binance.com"

// Binance serves crypto spot quotes, klines, 24h statistics, and batch
// prices from the Binance public REST API.
type Binance struct {
	client  *Client
	baseURL string
}

// NewBinance creates the Binance adapter.
func NewBinance(log zerolog.Logger) *Binance {
	return &Binance{
		client:  NewClient("binance", 10, 10, log),
		baseURL: binanceBaseURL,
	}
}

// WithBaseURL points the adapter at a different host. Used in tests.
func (b *Binance) WithBaseURL(u string) *Binance {
	b.baseURL = u
	return b
}

// Name returns the adapter name.
func (b *Binance) Name() string { return "binance" }

// --- Binance response types ---

// Prices arrive as strings ("43250.12000000").
type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type binanceStats struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	LastPrice          string `json:"lastPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	CloseTime          int64  `json:"closeTime"`
}

// --- Public methods ---

// Quote returns the current spot price for a trading pair.
func (b *Binance) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	const op = "binance.quote"
	symbol = symbols.Normalize(symbol)

	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, url.QueryEscape(symbol))
	var resp binanceTicker
	if err := b.client.GetJSON(ctx, u, nil, &resp); err != nil {
		// Binance answers 400 for unknown symbols, not 404.
		if KindOf(err) == KindPermanent {
			return nil, E(op, symbol, KindNotFound, err)
		}
		return nil, wrap(op, symbol, err)
	}

	price, ok := ToNumber(resp.Price)
	if !ok || price <= 0 {
		return nil, Errorf(op, symbol, KindSchema, "unparseable price %q", resp.Price)
	}

	return &models.Quote{
		Symbol:    strings.ToUpper(resp.Symbol),
		Price:     price,
		Timestamp: time.Now().UTC(),
		Source:    b.Name(),
	}, nil
}

// Historical returns klines. Period selects the candle count, interval
// maps directly onto Binance's interval vocabulary.
func (b *Binance) Historical(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	const op = "binance.historical"
	symbol = symbols.Normalize(symbol)
	if interval == "" {
		interval = "1d"
	}
	limit := klineLimit(period)

	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		b.baseURL, url.QueryEscape(symbol), url.QueryEscape(interval), limit)

	// Klines come back as positional arrays:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]any
	if err := b.client.GetJSON(ctx, u, nil, &raw); err != nil {
		if KindOf(err) == KindPermanent {
			return nil, E(op, symbol, KindNotFound, err)
		}
		return nil, wrap(op, symbol, err)
	}
	if len(raw) == 0 {
		return nil, Errorf(op, symbol, KindNotFound, "no klines for %s", symbol)
	}

	bars := make([]models.Bar, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			return nil, Errorf(op, symbol, KindSchema, "kline with %d fields", len(k))
		}
		openTime, _ := ToNumber(k[0])
		open, ok1 := ToNumber(k[1])
		high, ok2 := ToNumber(k[2])
		low, ok3 := ToNumber(k[3])
		closePx, ok4 := ToNumber(k[4])
		volume, ok5 := ToNumber(k[5])
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			return nil, Errorf(op, symbol, KindSchema, "unparseable kline fields")
		}
		bars = append(bars, models.Bar{
			Timestamp: time.UnixMilli(int64(openTime)).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
		})
	}
	return bars, nil
}

// Stats24h returns rolling 24-hour statistics for a trading pair.
func (b *Binance) Stats24h(ctx context.Context, symbol string) (*models.Stats24h, error) {
	const op = "binance.stats24h"
	symbol = symbols.Normalize(symbol)

	u := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, url.QueryEscape(symbol))
	var resp binanceStats
	if err := b.client.GetJSON(ctx, u, nil, &resp); err != nil {
		if KindOf(err) == KindPermanent {
			return nil, E(op, symbol, KindNotFound, err)
		}
		return nil, wrap(op, symbol, err)
	}

	last, ok := ToNumber(resp.LastPrice)
	if !ok {
		return nil, Errorf(op, symbol, KindSchema, "unparseable lastPrice %q", resp.LastPrice)
	}

	stats := &models.Stats24h{
		Symbol:    strings.ToUpper(resp.Symbol),
		LastPrice: last,
	}
	stats.PriceChange, _ = ToNumber(resp.PriceChange)
	stats.PriceChangePercent, _ = ToNumber(resp.PriceChangePercent)
	stats.OpenPrice, _ = ToNumber(resp.OpenPrice)
	stats.HighPrice, _ = ToNumber(resp.HighPrice)
	stats.LowPrice, _ = ToNumber(resp.LowPrice)
	stats.Volume, _ = ToNumber(resp.Volume)
	stats.QuoteVolume, _ = ToNumber(resp.QuoteVolume)
	return stats, nil
}

// MultiQuote fetches prices for several pairs in one upstream call via
// the batch ticker endpoint.
func (b *Binance) MultiQuote(ctx context.Context, syms []string) ([]models.Quote, error) {
	const op = "binance.multi_quote"
	if len(syms) == 0 {
		return nil, nil
	}

	quoted := make([]string, 0, len(syms))
	for _, s := range syms {
		quoted = append(quoted, `"`+symbols.Normalize(s)+`"`)
	}
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbols=%s",
		b.baseURL, url.QueryEscape("["+strings.Join(quoted, ",")+"]"))

	var resp []binanceTicker
	if err := b.client.GetJSON(ctx, u, nil, &resp); err != nil {
		if KindOf(err) == KindPermanent {
			return nil, E(op, "", KindNotFound, err)
		}
		return nil, wrap(op, "", err)
	}

	now := time.Now().UTC()
	quotes := make([]models.Quote, 0, len(resp))
	for _, t := range resp {
		price, ok := ToNumber(t.Price)
		if !ok {
			return nil, Errorf(op, t.Symbol, KindSchema, "unparseable price %q", t.Price)
		}
		quotes = append(quotes, models.Quote{
			Symbol:    strings.ToUpper(t.Symbol),
			Price:     price,
			Timestamp: now,
			Source:    b.Name(),
		})
	}
	return quotes, nil
}

// klineLimit maps a period string onto a candle count.
func klineLimit(period string) int {
	switch strings.ToLower(period) {
	case "", "1d":
		return 24
	case "5d":
		return 120
	case "1mo":
		return 30
	case "3mo":
		return 90
	case "6mo":
		return 180
	case "1y":
		return 365
	default:
		return 100
	}
}
