package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"crypto-convert-bot/internal/convert"
	"crypto-convert-bot/internal/market"
)

type Converter interface {
	Convert(ctx context.Context, req convert.Request) (convert.Result, string, error)
}

type Snapshots interface {
	List(ctx context.Context, kind market.Kind) ([]market.Entry, error)
	Global(ctx context.Context) (market.GlobalStats, error)
}

type ConvertResponse struct {
	OK     bool            `json:"ok"`
	Result *convert.Result `json:"result,omitempty"`
	Text   string          `json:"text,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Deps struct {
	Converter Converter
	Snapshots Snapshots
	Gatherer  prometheus.Gatherer
	BotName   string
	Logger    logrus.FieldLogger
}

// RegisterRoutes mounts the ops endpoints: health, metrics and read-only
// views of the same conversions and snapshots the bot serves.
func RegisterRoutes(h *server.Hertz, d Deps) {
	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]any{"ok": true, "bot": d.BotName})
	})

	if d.Gatherer != nil {
		h.GET("/metrics", adaptor.HertzHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	h.GET("/api/v1/convert", func(ctx context.Context, c *app.RequestContext) {
		if d.Converter == nil {
			c.JSON(http.StatusInternalServerError, ConvertResponse{Error: "converter not configured"})
			return
		}
		req, err := convert.ParseArgs([]string{c.Query("amount"), c.Query("from"), c.Query("to")})
		if err != nil {
			c.JSON(http.StatusBadRequest, ConvertResponse{Error: err.Error()})
			return
		}

		res, text, err := d.Converter.Convert(ctx, req)
		if err != nil {
			log.WithError(err).WithField("route", "convert").Warn("conversion failed")
			c.JSON(statusFor(err), ConvertResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, ConvertResponse{OK: true, Result: &res, Text: convert.PlainText(text)})
	})

	h.GET("/api/v1/snapshots/:kind", func(ctx context.Context, c *app.RequestContext) {
		if d.Snapshots == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{"ok": false, "error": "snapshots not configured"})
			return
		}
		kind, err := market.ParseKind(c.Param("kind"))
		if err != nil {
			c.JSON(http.StatusNotFound, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		entries, err := d.Snapshots.List(ctx, kind)
		if err != nil {
			log.WithError(err).WithField("route", "snapshots").Warn("snapshot failed")
			c.JSON(statusFor(err), map[string]any{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, map[string]any{"ok": true, "kind": kind, "entries": entries})
	})

	h.GET("/api/v1/global", func(ctx context.Context, c *app.RequestContext) {
		if d.Snapshots == nil {
			c.JSON(http.StatusInternalServerError, map[string]any{"ok": false, "error": "snapshots not configured"})
			return
		}
		stats, err := d.Snapshots.Global(ctx)
		if err != nil {
			log.WithError(err).WithField("route", "global").Warn("global stats failed")
			c.JSON(statusFor(err), map[string]any{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, map[string]any{"ok": true, "global": stats})
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, convert.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrPairUnavailable), errors.Is(err, market.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
