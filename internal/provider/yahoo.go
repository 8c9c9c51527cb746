package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/faststock/pkg/models"
	"github.com/seenimoa/faststock/pkg/symbols"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo serves equities (local and foreign), indices, and forex pairs
// through the Yahoo Finance v7 quote and v8 chart APIs.
type Yahoo struct {
	client  *Client
	baseURL string
}

// NewYahoo creates the Yahoo Finance adapter.
func NewYahoo(log zerolog.Logger) *Yahoo {
	return &Yahoo{
		client:  NewClient("yahoo", 5, 5, log),
		baseURL: yahooBaseURL,
	}
}

// WithBaseURL points the adapter at a different host. Used in tests.
func (y *Yahoo) WithBaseURL(u string) *Yahoo {
	y.baseURL = u
	return y
}

// Name returns the adapter name.
func (y *Yahoo) Name() string { return "yahoo" }

// --- Yahoo Finance response types ---

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuoteResult `json:"result"`
		Error  *yahooError        `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	Bid                        float64 `json:"bid"`
	Ask                        float64 `json:"ask"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooError        `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// Quote returns a normalized quote. Index symbols and forex pairs are
// translated to their Yahoo tickers before the call.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	const op = "yahoo.quote"
	symbol = symbols.Normalize(symbol)
	ticker := symbols.ToYahoo(symbol)

	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.baseURL, url.QueryEscape(ticker))
	var resp yahooQuoteResponse
	if err := y.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, wrap(op, symbol, err)
	}

	if resp.QuoteResponse.Error != nil {
		return nil, Errorf(op, symbol, KindPermanent, "upstream error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, Errorf(op, symbol, KindNotFound, "no result for %s", ticker)
	}

	r := resp.QuoteResponse.Result[0]
	if r.RegularMarketPrice <= 0 {
		return nil, Errorf(op, symbol, KindSchema, "missing regularMarketPrice for %s", ticker)
	}

	ts := time.Now().UTC()
	if r.RegularMarketTime > 0 {
		ts = time.Unix(r.RegularMarketTime, 0).UTC()
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         r.RegularMarketPrice,
		Change:        r.RegularMarketChange,
		PercentChange: r.RegularMarketChangePercent,
		Timestamp:     ts,
		Source:        y.Name(),
		CompanyName:   coalesce(r.LongName, r.ShortName),
		Bid:           r.Bid,
		Ask:           r.Ask,
		Open:          r.RegularMarketOpen,
		High:          r.RegularMarketDayHigh,
		Low:           r.RegularMarketDayLow,
		Volume:        r.RegularMarketVolume,
	}, nil
}

// Historical returns OHLCV candles from the v8 chart API. Period and
// interval use Yahoo's vocabulary ("1d", "5d", "1mo" / "1m", "1h", "1d").
func (y *Yahoo) Historical(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	const op = "yahoo.historical"
	symbol = symbols.Normalize(symbol)
	ticker := symbols.ToYahoo(symbol)
	if period == "" {
		period = "1mo"
	}
	if interval == "" {
		interval = "1d"
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		y.baseURL, url.PathEscape(ticker), url.QueryEscape(period), url.QueryEscape(interval))
	var resp yahooChartResponse
	if err := y.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, wrap(op, symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, Errorf(op, symbol, KindNotFound, "upstream error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, Errorf(op, symbol, KindSchema, "chart response missing indicators for %s", ticker)
	}

	r := resp.Chart.Result[0]
	q := r.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// Yahoo pads unclosed candles with nulls; skip incomplete rows.
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		bar := models.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			bar.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			bar.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			bar.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, Errorf(op, symbol, KindNotFound, "no candles for %s", ticker)
	}
	return bars, nil
}

// wrap re-labels a classified client error with the adapter operation
// and symbol while keeping the original Kind.
func wrap(op, symbol string, err error) error {
	kind := KindOf(err)
	if kind == KindUnknown {
		kind = KindTransient
	}
	return E(op, symbol, kind, err)
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
