package market

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarketData struct {
	coins    []Coin
	trending []TrendingCoin
	global   GlobalStats
	err      error
	perPage  []int
}

func (f *fakeMarketData) Markets(_ context.Context, perPage int) ([]Coin, error) {
	f.perPage = append(f.perPage, perPage)
	if f.err != nil {
		return nil, f.err
	}
	if perPage < len(f.coins) {
		return f.coins[:perPage], nil
	}
	return f.coins, nil
}

func (f *fakeMarketData) Global(context.Context) (GlobalStats, error) {
	return f.global, f.err
}

func (f *fakeMarketData) Trending(context.Context) ([]TrendingCoin, error) {
	return f.trending, f.err
}

func pf(v float64) *float64 { return &v }

func pageOfCoins(n int) []Coin {
	coins := make([]Coin, 0, n)
	for i := 0; i < n; i++ {
		// changes: 0, 1, -2, 3, -4, ... so gainers and losers are distinct.
		change := float64(i)
		if i%2 == 0 {
			change = -change
		}
		coins = append(coins, Coin{
			ID:                       fmt.Sprintf("c%d", i),
			Symbol:                   fmt.Sprintf("c%d", i),
			Name:                     fmt.Sprintf("Coin %d", i),
			CurrentPrice:             pf(float64(1000 - i)),
			PriceChangePercentage24h: pf(change),
		})
	}
	return coins
}

func TestSnapshotsTopKeepsProviderOrder(t *testing.T) {
	src := &fakeMarketData{coins: pageOfCoins(100)}
	s := NewSnapshots(src, time.Second, quietLogger())

	top, err := s.Top(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 10)
	assert.Equal(t, []int{10}, src.perPage)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, "Coin 0", top[0].Name)
	assert.Equal(t, "C0", top[0].Symbol)
	assert.Equal(t, 1000.0, *top[0].Value)
	assert.Equal(t, "Coin 9", top[9].Name)
}

func TestSnapshotsGainersAndLosers(t *testing.T) {
	src := &fakeMarketData{coins: pageOfCoins(100)}
	s := NewSnapshots(src, time.Second, quietLogger())

	gainers, err := s.Gainers(context.Background())
	require.NoError(t, err)
	require.Len(t, gainers, 10)
	assert.Equal(t, 99.0, *gainers[0].Value)
	assert.Equal(t, 97.0, *gainers[1].Value)
	for i := 1; i < len(gainers); i++ {
		assert.GreaterOrEqual(t, *gainers[i-1].Value, *gainers[i].Value)
		assert.Equal(t, i+1, gainers[i].Rank)
	}

	losers, err := s.Losers(context.Background())
	require.NoError(t, err)
	require.Len(t, losers, 10)
	assert.Equal(t, -98.0, *losers[0].Value)
	for i := 1; i < len(losers); i++ {
		assert.LessOrEqual(t, *losers[i-1].Value, *losers[i].Value)
	}

	assert.Equal(t, []int{100, 100}, src.perPage)
	assert.Equal(t, "Coin 0", src.coins[0].Name, "ranking must not reorder the provider slice")
}

func TestRankByChangeMissingValuesGoLast(t *testing.T) {
	coins := []Coin{
		{Name: "none"},
		{Name: "up", PriceChangePercentage24h: pf(5)},
		{Name: "down", PriceChangePercentage24h: pf(-5)},
	}

	desc := rankByChange(coins, true)
	assert.Equal(t, []string{"up", "down", "none"}, names(desc))

	asc := rankByChange(coins, false)
	assert.Equal(t, []string{"down", "up", "none"}, names(asc))
}

func TestSnapshotsTrendingCapsAtTen(t *testing.T) {
	trending := make([]TrendingCoin, 15)
	for i := range trending {
		trending[i] = TrendingCoin{Name: fmt.Sprintf("T%d", i), Symbol: "t"}
	}
	s := NewSnapshots(&fakeMarketData{trending: trending}, time.Second, quietLogger())

	out, err := s.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 10)
	assert.Equal(t, "T0", out[0].Name)
	assert.Nil(t, out[0].Value)
}

func TestSnapshotsUpstreamFailure(t *testing.T) {
	s := NewSnapshots(&fakeMarketData{err: errors.New("boom")}, time.Second, quietLogger())
	ctx := context.Background()

	_, err := s.Gainers(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	_, err = s.Losers(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	_, err = s.Top(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	_, err = s.Trending(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	_, err = s.Global(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestParseKindAndList(t *testing.T) {
	k, err := ParseKind(" Gainers ")
	require.NoError(t, err)
	assert.Equal(t, KindGainers, k)

	_, err = ParseKind("global")
	assert.ErrorIs(t, err, ErrUnknownKind)

	src := &fakeMarketData{coins: pageOfCoins(100)}
	s := NewSnapshots(src, time.Second, quietLogger())
	out, err := s.List(context.Background(), KindTop)
	require.NoError(t, err)
	assert.Len(t, out, 10)

	_, err = s.List(context.Background(), Kind("nope"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}
