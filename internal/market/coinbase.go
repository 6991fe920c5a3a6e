package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crypto-convert-bot/internal/metrics"
)

const (
	coinbaseDefaultURL       = "https://api.coinbase.com/v2"
	coinbaseDefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36"
)

// CoinbaseProvider reads spot prices from the public Coinbase API:
// GET /v2/prices/{BASE}-{QUOTE}/spot
type CoinbaseProvider struct {
	baseURL   string
	userAgent string
	client    *http.Client
	metrics   *metrics.Metrics
}

type coinbaseSpotResp struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}

func NewCoinbaseProvider(cfg ClientConfig, m *metrics.Metrics) *CoinbaseProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = coinbaseDefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = coinbaseDefaultUserAgent
	}
	return &CoinbaseProvider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    newHTTPClient(cfg.Timeout, cfg.InsecureSkipVerify),
		metrics:   m,
	}
}

func (p *CoinbaseProvider) Name() string { return "coinbase" }

func (p *CoinbaseProvider) SpotPrice(ctx context.Context, base, quote string) (float64, error) {
	pair := strings.ToUpper(base) + "-" + strings.ToUpper(quote)
	u := fmt.Sprintf("%s/prices/%s/spot", p.baseURL, url.PathEscape(pair))

	var payload coinbaseSpotResp
	err := getJSON(ctx, p.client, p.metrics, p.Name(), "spot", u, map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
		"User-Agent":   p.userAgent,
	}, &payload)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return 0, fmt.Errorf("coinbase %s: %w", pair, ErrPairNotFound)
		}
		return 0, fmt.Errorf("coinbase %s: %w", pair, err)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(payload.Data.Amount), 64)
	if err != nil {
		return 0, fmt.Errorf("coinbase %s: invalid amount %q", pair, payload.Data.Amount)
	}
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("coinbase %s: invalid price %v", pair, price)
	}
	return price, nil
}
