// Package models defines the shared wire models exchanged between
// providers, the cache, and the HTTP API.
package models

import "time"

// Quote is a normalized real-time quote. Every provider adapter maps its
// upstream payload into this shape; Symbol is always uppercase.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percent_change"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source,omitempty"`

	CompanyName string  `json:"company_name,omitempty"`
	Bid         float64 `json:"bid,omitempty"`
	Ask         float64 `json:"ask,omitempty"`
	Open        float64 `json:"open,omitempty"`
	High        float64 `json:"high,omitempty"`
	Low         float64 `json:"low,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
}

// Bar is a single OHLCV candle.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Stats24h holds rolling 24-hour statistics for a crypto symbol.
type Stats24h struct {
	Symbol             string  `json:"symbol"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
	OpenPrice          float64 `json:"open_price"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	LastPrice          float64 `json:"last_price"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quote_volume"`
}
