package convert

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"crypto-convert-bot/internal/market"
)

type RateResolver interface {
	ResolveRate(ctx context.Context, from, to string) (float64, error)
}

type ChangeTracker interface {
	ChangePercent(ctx context.Context, symbol string) (float64, bool)
}

type Names interface {
	DisplayName(code string) string
}

// Service prices conversion requests.
type Service struct {
	rates   RateResolver
	changes ChangeTracker
	names   Names
	loc     *time.Location
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewService(rates RateResolver, changes ChangeTracker, names Names, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		rates:   rates,
		changes: changes,
		names:   names,
		loc:     loc,
		now:     time.Now,
		log:     log,
	}
}

// WithClock replaces the time source, mostly for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Convert resolves the rate for req and renders the result. Invalid requests
// fail with ErrInvalidInput before any upstream call. A missing 24h change
// never fails the conversion.
func (s *Service) Convert(ctx context.Context, req Request) (Result, string, error) {
	if err := req.Validate(); err != nil {
		return Result{}, "", err
	}
	rate, err := s.rates.ResolveRate(ctx, req.From, req.To)
	if err != nil {
		return Result{}, "", fmt.Errorf("convert %s %s->%s: %w", formatAmount(req.Amount), req.From, req.To, err)
	}

	value := req.Amount * rate
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return Result{}, "", fmt.Errorf("convert %s %s->%s: %w: converted value out of range", formatAmount(req.Amount), req.From, req.To, market.ErrPairUnavailable)
	}

	res := Result{
		Amount:         req.Amount,
		From:           req.From,
		To:             req.To,
		Rate:           rate,
		ConvertedValue: value,
		RenderedAt:     s.now().In(s.loc),
	}
	if s.changes != nil {
		if pct, ok := s.changes.ChangePercent(ctx, req.From); ok {
			res.ChangePercent = &pct
		}
	}

	name := req.From
	if s.names != nil {
		name = s.names.DisplayName(req.From)
	}
	s.log.WithFields(logrus.Fields{
		"from": req.From,
		"to":   req.To,
		"rate": rate,
	}).Debug("conversion priced")
	return res, Format(res, name), nil
}
