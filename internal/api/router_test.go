package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-convert-bot/internal/convert"
	"crypto-convert-bot/internal/market"
	"crypto-convert-bot/internal/metrics"
)

type stubConverter struct {
	calls int
	err   error
}

func (s *stubConverter) Convert(_ context.Context, req convert.Request) (convert.Result, string, error) {
	s.calls++
	if s.err != nil {
		return convert.Result{}, "", s.err
	}
	res := convert.Result{Amount: req.Amount, From: req.From, To: req.To, Rate: 2, ConvertedValue: req.Amount * 2}
	return res, fmt.Sprintf("<code>%v %s = %s %s</code>", req.Amount, req.From, convert.FormatValue(res.ConvertedValue), req.To), nil
}

type stubSnapshots struct {
	entries []market.Entry
	global  market.GlobalStats
	err     error
}

func (s *stubSnapshots) List(context.Context, market.Kind) ([]market.Entry, error) {
	return s.entries, s.err
}

func (s *stubSnapshots) Global(context.Context) (market.GlobalStats, error) {
	return s.global, s.err
}

func newServer(d Deps) *server.Hertz {
	h := server.New()
	RegisterRoutes(h, d)
	return h
}

func TestHealthz(t *testing.T) {
	h := newServer(Deps{BotName: "convbot"})
	w := ut.PerformRequest(h.Engine, http.MethodGet, "/healthz", nil)
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"ok":true,"bot":"convbot"}`, string(resp.Body()))
}

func TestConvertRoute(t *testing.T) {
	conv := &stubConverter{}
	h := newServer(Deps{Converter: conv})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/convert?amount=1.5&from=usd&to=eur", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `"text":"1.5 USD = 3.000000 EUR"`)
	assert.Contains(t, string(resp.Body()), `"converted_value":3`)
	assert.Equal(t, 1, conv.calls)
}

func TestConvertRouteRejectsBadAmount(t *testing.T) {
	conv := &stubConverter{}
	h := newServer(Deps{Converter: conv})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/convert?amount=-2&from=usd&to=eur", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Zero(t, conv.calls)
}

func TestConvertRoutePairUnavailable(t *testing.T) {
	h := newServer(Deps{Converter: &stubConverter{err: market.ErrPairUnavailable}})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/convert?amount=1&from=foo&to=bar", nil)
	assert.Equal(t, http.StatusBadGateway, w.Result().StatusCode())
}

func TestSnapshotsRoute(t *testing.T) {
	v := 1.5
	h := newServer(Deps{Snapshots: &stubSnapshots{entries: []market.Entry{{Rank: 1, Name: "Bitcoin", Symbol: "BTC", Value: &v}}}})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/snapshots/gainers", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"ok":true,"kind":"gainers","entries":[{"rank":1,"name":"Bitcoin","symbol":"BTC","value":1.5}]}`, string(resp.Body()))

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/snapshots/moon", nil)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())
}

func TestSnapshotsRouteUpstreamFailure(t *testing.T) {
	h := newServer(Deps{Snapshots: &stubSnapshots{err: fmt.Errorf("%w: boom", market.ErrUpstreamUnavailable)}})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/snapshots/top10", nil)
	assert.Equal(t, http.StatusBadGateway, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/global", nil)
	assert.Equal(t, http.StatusBadGateway, w.Result().StatusCode())
}

func TestGlobalRoute(t *testing.T) {
	h := newServer(Deps{Snapshots: &stubSnapshots{global: market.GlobalStats{TotalMarketCapUSD: 2e12, TotalVolumeUSD: 1e11, BTCDominance: 50}}})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/api/v1/global", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `"btc_dominance":50`)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Command("conv", "ok")
	h := newServer(Deps{Gatherer: reg})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/metrics", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `cryptobot_commands_total{command="conv",outcome="ok"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(convert.ErrAmount))
	assert.Equal(t, http.StatusBadGateway, statusFor(market.ErrPairUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
