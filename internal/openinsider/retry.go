package openinsider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrRetriesExhausted = errors.New("openinsider: retries exhausted")

// RetryPolicy retries NetworkErrors. Attempts counts the first try; the
// wait before retry n is BaseDelay * 2^(n-1).
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	OnRetry   func(attempt int, err error, wait time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 2 * time.Second}
}

// Retry runs op until it succeeds, returns a non-network error, the
// context ends, or the attempts run out.
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = maxWait(p)
	exp.MaxElapsedTime = 0
	exp.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.Attempts-1)), ctx)

	attempt := 0
	var last error
	err := backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
	})
	if err == nil {
		return nil
	}

	var netErr *NetworkError
	if errors.As(last, &netErr) && attempt >= p.Attempts {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, last)
	}
	return err
}

func maxWait(p RetryPolicy) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	shift := p.Attempts
	if shift > 30 {
		shift = 30
	}
	d := float64(p.BaseDelay) * math.Pow(2, float64(shift))
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
