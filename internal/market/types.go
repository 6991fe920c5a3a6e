package market

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds every single upstream request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrPairNotFound is returned by a spot provider when the pair does not exist upstream (HTTP 404).
	ErrPairNotFound = errors.New("pair not found")
	// ErrPairUnavailable means neither the direct nor the reciprocal pair could be priced.
	ErrPairUnavailable = errors.New("pair unavailable")
	// ErrUpstreamUnavailable means a market-data snapshot could not be fetched.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ClientConfig configures an upstream HTTP client.
type ClientConfig struct {
	BaseURL            string
	APIKey             string
	UserAgent          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Coin is one row of the CoinGecko markets listing.
type Coin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            int      `json:"market_cap_rank"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
}

type TrendingCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

type GlobalStats struct {
	TotalMarketCapUSD float64 `json:"total_market_cap_usd"`
	TotalVolumeUSD    float64 `json:"total_volume_usd"`
	BTCDominance      float64 `json:"btc_dominance"`
}

// Entry is one ranked line of a market snapshot. Value holds the price,
// the 24h change, or nothing (trending), depending on the snapshot kind.
type Entry struct {
	Rank   int      `json:"rank"`
	Name   string   `json:"name"`
	Symbol string   `json:"symbol"`
	Value  *float64 `json:"value,omitempty"`
}

// SpotPriceProvider prices one unit of base in quote.
type SpotPriceProvider interface {
	SpotPrice(ctx context.Context, base, quote string) (float64, error)
	Name() string
}

// MarketDataProvider serves listings, aggregates and trending coins.
type MarketDataProvider interface {
	Markets(ctx context.Context, perPage int) ([]Coin, error)
	Global(ctx context.Context) (GlobalStats, error)
	Trending(ctx context.Context) ([]TrendingCoin, error)
}

// ChangeSource returns the raw 24h percent change for an upstream coin id.
type ChangeSource interface {
	PriceChange24h(ctx context.Context, id string) (float64, error)
}
