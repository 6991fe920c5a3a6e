package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crypto-convert-bot/internal/metrics"
)

// CoinGecko docs: https://docs.coingecko.com/
// Endpoints used: /coins/markets, /global, /search/trending, /simple/price.
// Auth header "x-cg-pro-api-key" is sent only when an API key is configured.

const (
	coingeckoDefaultURL = "https://api.coingecko.com/api/v3"
	vsCurrency          = "usd"
)

type CoinGeckoProvider struct {
	baseURL   string
	apiKey    string
	userAgent string
	client    *http.Client
	metrics   *metrics.Metrics
}

type globalResp struct {
	Data struct {
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
		TotalVolume         map[string]float64 `json:"total_volume"`
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

type trendingResp struct {
	Coins []struct {
		Item TrendingCoin `json:"item"`
	} `json:"coins"`
}

type simplePriceResp map[string]map[string]float64

func NewCoinGeckoProvider(cfg ClientConfig, m *metrics.Metrics) *CoinGeckoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = coingeckoDefaultURL
	}
	return &CoinGeckoProvider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: cfg.UserAgent,
		client:    newHTTPClient(cfg.Timeout, cfg.InsecureSkipVerify),
		metrics:   m,
	}
}

func (c *CoinGeckoProvider) Name() string { return "coingecko" }

// Markets returns the first page of coins ordered by market cap, descending.
func (c *CoinGeckoProvider) Markets(ctx context.Context, perPage int) ([]Coin, error) {
	if perPage <= 0 {
		return nil, fmt.Errorf("perPage must be positive")
	}
	q := url.Values{}
	q.Set("vs_currency", vsCurrency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	var coins []Coin
	if err := c.get(ctx, "markets", "/coins/markets", q, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

func (c *CoinGeckoProvider) Global(ctx context.Context) (GlobalStats, error) {
	var payload globalResp
	if err := c.get(ctx, "global", "/global", nil, &payload); err != nil {
		return GlobalStats{}, err
	}
	capUSD, ok := payload.Data.TotalMarketCap[vsCurrency]
	if !ok {
		return GlobalStats{}, fmt.Errorf("coingecko: missing total_market_cap.%s", vsCurrency)
	}
	volUSD, ok := payload.Data.TotalVolume[vsCurrency]
	if !ok {
		return GlobalStats{}, fmt.Errorf("coingecko: missing total_volume.%s", vsCurrency)
	}
	btc, ok := payload.Data.MarketCapPercentage["btc"]
	if !ok {
		return GlobalStats{}, fmt.Errorf("coingecko: missing market_cap_percentage.btc")
	}
	return GlobalStats{TotalMarketCapUSD: capUSD, TotalVolumeUSD: volUSD, BTCDominance: btc}, nil
}

func (c *CoinGeckoProvider) Trending(ctx context.Context) ([]TrendingCoin, error) {
	var payload trendingResp
	if err := c.get(ctx, "trending", "/search/trending", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]TrendingCoin, 0, len(payload.Coins))
	for _, coin := range payload.Coins {
		out = append(out, coin.Item)
	}
	return out, nil
}

// PriceChange24h returns the unrounded 24h change in percent for a coin id.
func (c *CoinGeckoProvider) PriceChange24h(ctx context.Context, id string) (float64, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", vsCurrency)
	q.Set("include_24hr_change", "true")

	var payload simplePriceResp
	if err := c.get(ctx, "simple_price", "/simple/price", q, &payload); err != nil {
		return 0, err
	}
	m, ok := payload[id]
	if !ok {
		return 0, fmt.Errorf("coingecko: missing %q key", id)
	}
	change, ok := m[vsCurrency+"_24h_change"]
	if !ok {
		return 0, fmt.Errorf("coingecko: missing 24h change for %q", id)
	}
	return change, nil
}

func (c *CoinGeckoProvider) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return getJSON(ctx, c.client, c.metrics, c.Name(), endpoint, u, map[string]string{
		"Accept":           "application/json",
		"User-Agent":       c.userAgent,
		"x-cg-pro-api-key": c.apiKey,
	}, out)
}
