package market

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IDLookup maps a ticker to an upstream coin id.
type IDLookup interface {
	UpstreamID(code string) (string, bool)
}

// ChangeTracker looks up the 24h percent change of a symbol. It never fails:
// a missing id or any upstream problem degrades to "no data".
type ChangeTracker struct {
	ids     IDLookup
	source  ChangeSource
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewChangeTracker(ids IDLookup, source ChangeSource, timeout time.Duration, log logrus.FieldLogger) *ChangeTracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChangeTracker{ids: ids, source: source, timeout: timeout, log: log}
}

// ChangePercent returns the change rounded to two decimals. ok is false when
// no data is available.
func (t *ChangeTracker) ChangePercent(ctx context.Context, symbol string) (change float64, ok bool) {
	if t == nil || t.ids == nil || t.source == nil {
		return 0, false
	}
	id, known := t.ids.UpstreamID(symbol)
	if !known {
		t.log.WithField("symbol", symbol).Debug("24h change not available for symbol")
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	raw, err := t.source.PriceChange24h(ctx, id)
	if err != nil {
		t.log.WithError(err).WithField("symbol", symbol).Warn("fetch 24h change failed")
		return 0, false
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, false
	}
	rounded, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	return rounded, true
}
