// Package retry re-runs optimistic store operations that lost a version race.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"storefront/internal/domain"
	"storefront/internal/metrics"
)

// Policy bounds how often a conflicting operation is attempted.
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Metrics  *metrics.Metrics
}

func DefaultPolicy(attempts int, m *metrics.Metrics) Policy {
	return Policy{Attempts: attempts, Initial: 5 * time.Millisecond, Max: 100 * time.Millisecond, Metrics: m}
}

// OnConflict calls fn until it succeeds, fails with an error other than
// domain.ErrVersionConflict, or the attempts are used up. An exhausted budget
// is reported as domain.ErrTransientConflict.
func (p Policy) OnConflict(ctx context.Context, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Initial
	exp.MaxInterval = p.Max
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	err := backoff.Retry(func() error {
		err := fn()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrVersionConflict):
			p.Metrics.StoreConflict(op)
			return err
		default:
			return backoff.Permanent(err)
		}
	}, b)
	if errors.Is(err, domain.ErrVersionConflict) {
		return fmt.Errorf("%s: %w", op, domain.ErrTransientConflict)
	}
	return err
}
