package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	snapshotSize = 10
	rankingPage  = 100
)

// Kind names a ranked snapshot list.
type Kind string

const (
	KindTop      Kind = "top10"
	KindGainers  Kind = "gainers"
	KindLosers   Kind = "losers"
	KindTrending Kind = "trending"
)

var ErrUnknownKind = errors.New("unknown snapshot kind")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTop, KindGainers, KindLosers, KindTrending:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Snapshots builds the ranked market lists. Each call is one fresh upstream
// request; failures wrap ErrUpstreamUnavailable.
type Snapshots struct {
	source  MarketDataProvider
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewSnapshots(source MarketDataProvider, timeout time.Duration, log logrus.FieldLogger) *Snapshots {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Snapshots{source: source, timeout: timeout, log: log}
}

// Top returns the top coins by market cap in provider order, with prices.
func (s *Snapshots) Top(ctx context.Context) ([]Entry, error) {
	coins, err := s.markets(ctx, snapshotSize, "top coins")
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, snapshotSize)
	for i, c := range coins {
		if i == snapshotSize {
			break
		}
		out = append(out, Entry{Rank: i + 1, Name: c.Name, Symbol: strings.ToUpper(c.Symbol), Value: c.CurrentPrice})
	}
	return out, nil
}

// Gainers re-sorts a market-cap page by 24h change, highest first.
func (s *Snapshots) Gainers(ctx context.Context) ([]Entry, error) {
	coins, err := s.markets(ctx, rankingPage, "gainers")
	if err != nil {
		return nil, err
	}
	return rankByChange(coins, true), nil
}

// Losers re-sorts a market-cap page by 24h change, lowest first.
func (s *Snapshots) Losers(ctx context.Context) ([]Entry, error) {
	coins, err := s.markets(ctx, rankingPage, "losers")
	if err != nil {
		return nil, err
	}
	return rankByChange(coins, false), nil
}

// Trending keeps the provider's order.
func (s *Snapshots) Trending(ctx context.Context) ([]Entry, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: market data provider not configured", ErrUpstreamUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coins, err := s.source.Trending(ctx)
	if err != nil {
		s.log.WithError(err).Error("fetch trending coins failed")
		return nil, fmt.Errorf("%w: trending: %w", ErrUpstreamUnavailable, err)
	}
	out := make([]Entry, 0, snapshotSize)
	for i, c := range coins {
		if i == snapshotSize {
			break
		}
		out = append(out, Entry{Rank: i + 1, Name: c.Name, Symbol: strings.ToUpper(c.Symbol)})
	}
	return out, nil
}

// List dispatches to the fetcher for kind.
func (s *Snapshots) List(ctx context.Context, kind Kind) ([]Entry, error) {
	switch kind {
	case KindTop:
		return s.Top(ctx)
	case KindGainers:
		return s.Gainers(ctx)
	case KindLosers:
		return s.Losers(ctx)
	case KindTrending:
		return s.Trending(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Snapshots) Global(ctx context.Context) (GlobalStats, error) {
	if s.source == nil {
		return GlobalStats{}, fmt.Errorf("%w: market data provider not configured", ErrUpstreamUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.source.Global(ctx)
	if err != nil {
		s.log.WithError(err).Error("fetch global info failed")
		return GlobalStats{}, fmt.Errorf("%w: global: %w", ErrUpstreamUnavailable, err)
	}
	return stats, nil
}

func (s *Snapshots) markets(ctx context.Context, perPage int, what string) ([]Coin, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: market data provider not configured", ErrUpstreamUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coins, err := s.source.Markets(ctx, perPage)
	if err != nil {
		s.log.WithError(err).Errorf("fetch %s failed", what)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, what, err)
	}
	return coins, nil
}

// rankByChange sorts a copy of coins by 24h change and keeps the first ten.
// Coins without a change value go last in either direction.
func rankByChange(coins []Coin, desc bool) []Entry {
	sorted := make([]Coin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PriceChangePercentage24h, sorted[j].PriceChangePercentage24h
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		if desc {
			return *a > *b
		}
		return *a < *b
	})

	n := min(len(sorted), snapshotSize)
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		c := sorted[i]
		out = append(out, Entry{Rank: i + 1, Name: c.Name, Symbol: strings.ToUpper(c.Symbol), Value: c.PriceChangePercentage24h})
	}
	return out
}
