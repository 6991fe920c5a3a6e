package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// RateResolver prices a pair directly and, failing that, through its
// reciprocal. Exactly two attempts at most, each with its own timeout.
type RateResolver struct {
	provider SpotPriceProvider
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewRateResolver(provider SpotPriceProvider, timeout time.Duration, log logrus.FieldLogger) *RateResolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RateResolver{provider: provider, timeout: timeout, log: log}
}

// ResolveRate returns how many units of to one unit of from buys.
func (r *RateResolver) ResolveRate(ctx context.Context, from, to string) (float64, error) {
	if r.provider == nil {
		return 0, fmt.Errorf("spot price provider not configured")
	}

	rate, directErr := r.attempt(ctx, from, to)
	if directErr == nil {
		return rate, nil
	}
	r.log.WithError(directErr).WithField("pair", from+"-"+to).Warn("direct pair failed, trying reciprocal")

	inverse, inverseErr := r.attempt(ctx, to, from)
	if inverseErr == nil {
		rate = 1 / inverse
		if !math.IsInf(rate, 0) && !math.IsNaN(rate) && rate > 0 {
			return rate, nil
		}
		inverseErr = fmt.Errorf("%s %s-%s: reciprocal of %v is not finite", r.provider.Name(), to, from, inverse)
	}
	r.log.WithError(inverseErr).WithField("pair", to+"-"+from).Warn("reciprocal pair failed")

	return 0, fmt.Errorf("%w: %s-%s (direct: %v; reciprocal: %v)", ErrPairUnavailable, from, to, directErr, inverseErr)
}

func (r *RateResolver) attempt(ctx context.Context, base, quote string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	price, err := r.provider.SpotPrice(ctx, base, quote)
	if err != nil {
		return 0, err
	}
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("%s %s-%s: invalid price %v", r.provider.Name(), base, quote, price)
	}
	return price, nil
}
