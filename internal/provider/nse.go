package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
	"github.com/seenimoa/faststock/pkg/utils"
)

const (
	nseBaseURL   = "https://www.nseindia.com"
	nseCookieTTL = 5 * time.Minute
)

// nseHeaders are required on every API call; NSE rejects requests that
// do not look like they came from its own web frontend.
var nseHeaders = map[string]string{
	"Accept":  "application/json, text/plain, */*",
	"Referer": nseBaseURL + "/option-chain",
}

// NSE is the exchange adapter. It serves raw option-chain documents and
// index/stock quotes from the NSE India site API, managing the session
// cookies the API insists on.
type NSE struct {
	client  *Client
	baseURL string
	apiBase string

	mu           sync.Mutex
	cookieExpiry time.Time
}

// NewNSE creates the NSE adapter with its own cookie jar.
func NewNSE(log zerolog.Logger) *NSE {
	jar, _ := cookiejar.New(nil)
	c := NewClient("nse", 3, 3, log).WithHTTPClient(&http.Client{
		Timeout: 30 * time.Second,
		Jar:     jar,
	})
	return &NSE{
		client:  c,
		baseURL: nseBaseURL,
		apiBase: nseBaseURL + "/api",
	}
}

// WithBaseURL points the adapter at a different host. Used in tests.
func (n *NSE) WithBaseURL(u string) *NSE {
	n.baseURL = u
	n.apiBase = u + "/api"
	return n
}

// Name returns the adapter name.
func (n *NSE) Name() string { return "nse" }

// ensureCookies visits the homepage to refresh the session cookies the
// API endpoints require. Cookies are reused until they expire.
func (n *NSE) ensureCookies(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if time.Now().Before(n.cookieExpiry) {
		return nil
	}
	if _, err := n.client.Get(ctx, n.baseURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}); err != nil {
		return err
	}
	n.cookieExpiry = time.Now().Add(nseCookieTTL)
	return nil
}

// OptionChain returns the raw chain document for an index. The caller
// gets the upstream shape untouched apart from schema validation.
func (n *NSE) OptionChain(ctx context.Context, index string) (*OptionChainDoc, error) {
	const op = "nse.option_chain"
	index = symbols.Normalize(index)

	if err := n.ensureCookies(ctx); err != nil {
		return nil, wrap(op, index, err)
	}

	u := fmt.Sprintf("%s/option-chain-indices?symbol=%s", n.apiBase, url.QueryEscape(index))
	var doc OptionChainDoc
	if err := n.client.GetJSON(ctx, u, nseHeaders, &doc); err != nil {
		return nil, wrap(op, index, err)
	}

	if len(doc.Records.Data) == 0 {
		return nil, Errorf(op, index, KindSchema, "response missing records.data")
	}
	if len(doc.Records.ExpiryDates) == 0 {
		return nil, Errorf(op, index, KindSchema, "response missing records.expiryDates")
	}
	return &doc, nil
}

// nseIndexQuote covers the fields the index quote endpoints expose.
// Prices sometimes arrive as comma-grouped strings.
type nseIndexQuote struct {
	LastPrice       any `json:"lastPrice"`
	UnderlyingValue any `json:"underlyingValue"`
	Change          any `json:"change"`
	PChange         any `json:"pChange"`
	UnderlyingInfo  *struct {
		LastPrice any `json:"lastPrice"`
	} `json:"underlyingInfo"`
	OptTimestamp string `json:"opt_timestamp"`
	Timestamp    string `json:"timestamp"`
}

// IndexQuote returns the current level of an index such as NIFTY.
// Index responses are inconsistent about which key carries the price,
// so several are tried in order.
func (n *NSE) IndexQuote(ctx context.Context, index string) (*models.Quote, error) {
	const op = "nse.index_quote"
	index = symbols.Normalize(index)

	if err := n.ensureCookies(ctx); err != nil {
		return nil, wrap(op, index, err)
	}

	u := fmt.Sprintf("%s/quote-derivative?symbol=%s", n.apiBase, url.QueryEscape(index))
	var resp nseIndexQuote
	if err := n.client.GetJSON(ctx, u, nseHeaders, &resp); err != nil {
		return nil, wrap(op, index, err)
	}

	price, ok := ToNumber(resp.LastPrice)
	if !ok {
		price, ok = ToNumber(resp.UnderlyingValue)
	}
	if !ok && resp.UnderlyingInfo != nil {
		price, ok = ToNumber(resp.UnderlyingInfo.LastPrice)
	}
	if !ok {
		return nil, Errorf(op, index, KindSchema, "no lastPrice or underlyingValue in response")
	}
	if price <= 0 {
		return nil, Errorf(op, index, KindNotFound, "no data for %s", index)
	}

	change, _ := ToNumber(resp.Change)
	pchange, _ := ToNumber(resp.PChange)

	q := &models.Quote{
		Symbol:        index,
		Price:         price,
		Change:        change,
		PercentChange: pchange,
		Timestamp:     nseTimestamp(resp.OptTimestamp, resp.Timestamp),
		Source:        n.Name(),
	}
	return q, nil
}

type nseStockQuote struct {
	Info struct {
		Symbol      string `json:"symbol"`
		CompanyName string `json:"companyName"`
	} `json:"info"`
	PriceInfo struct {
		LastPrice any `json:"lastPrice"`
		Change    any `json:"change"`
		PChange   any `json:"pChange"`
		Open      any `json:"open"`
	} `json:"priceInfo"`
	Metadata struct {
		LastUpdateTime string `json:"lastUpdateTime"`
	} `json:"metadata"`
}

// StockQuote returns a quote for an NSE-listed equity by its bare
// exchange symbol (no ".NS" suffix).
func (n *NSE) StockQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	const op = "nse.stock_quote"
	symbol = symbols.Normalize(symbol)

	if err := n.ensureCookies(ctx); err != nil {
		return nil, wrap(op, symbol, err)
	}

	u := fmt.Sprintf("%s/quote-equity?symbol=%s", n.apiBase, url.QueryEscape(symbol))
	var resp nseStockQuote
	if err := n.client.GetJSON(ctx, u, nseHeaders, &resp); err != nil {
		return nil, wrap(op, symbol, err)
	}

	if resp.Info.Symbol == "" {
		return nil, Errorf(op, symbol, KindNotFound, "no data for %s", symbol)
	}
	price, ok := ToNumber(resp.PriceInfo.LastPrice)
	if !ok || price <= 0 {
		return nil, Errorf(op, symbol, KindSchema, "unparseable lastPrice %v", resp.PriceInfo.LastPrice)
	}
	change, _ := ToNumber(resp.PriceInfo.Change)
	pchange, _ := ToNumber(resp.PriceInfo.PChange)
	open, _ := ToNumber(resp.PriceInfo.Open)

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		PercentChange: pchange,
		Timestamp:     nseTimestamp(resp.Metadata.LastUpdateTime),
		Source:        n.Name(),
		CompanyName:   resp.Info.CompanyName,
		Open:          open,
	}, nil
}

// nseTimestamp parses the first parseable NSE timestamp string
// ("16-Sep-2025 15:30:00", exchange-local time) and falls back to the
// adapter wall clock.
func nseTimestamp(candidates ...string) time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.ParseInLocation("02-Jan-2006 15:04:05", c, utils.IST); err == nil {
			return t.UTC()
		}
		if t, err := time.ParseInLocation("02-Jan-2006", c, utils.IST); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
