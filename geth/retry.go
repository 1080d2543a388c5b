package geth

import (
	"context"
	"errors"
	"time"

	"github.com/eth2030/eclipsemonitor/events"
	"github.com/eth2030/eclipsemonitor/log"
)

// RetryConfig controls Retrying.
type RetryConfig struct {
	// Attempts is the total number of tries per call, at least 1.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Jitter returns a random duration in [0, d). Nil disables jitter.
	Jitter func(d time.Duration) time.Duration
}

// DefaultRetryConfig retries for roughly half a minute.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 6, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}
}

// Retrying wraps a Bridge and retries calls that fail with
// events.ErrHostUnavailable, backing off exponentially.
type Retrying struct {
	inner Bridge
	cfg   RetryConfig
	log   *log.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps inner.
func NewRetrying(inner Bridge, cfg RetryConfig, logger *log.Logger) *Retrying {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Retrying{inner: inner, cfg: cfg, log: logger.Module("host"), sleep: sleepContext}
}

// Backoff returns the delay before retry attempt (0-based), jitter included.
func (r *Retrying) Backoff(attempt int) time.Duration {
	d := r.cfg.BaseDelay
	for i := 0; i < attempt && d < r.cfg.MaxDelay; i++ {
		d *= 2
	}
	if r.cfg.MaxDelay > 0 && d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	if r.cfg.Jitter != nil && d > 0 {
		d += r.cfg.Jitter(d / 2)
	}
	return d
}

func (r *Retrying) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return retry(ctx, r, "latest block number", func() (uint64, error) {
		return r.inner.LatestBlockNumber(ctx)
	})
}

func (r *Retrying) RawHeaderByNumber(ctx context.Context, number uint64) ([]byte, error) {
	return retry(ctx, r, "raw header", func() ([]byte, error) {
		return r.inner.RawHeaderByNumber(ctx, number)
	})
}

func (r *Retrying) ReceiptsByNumber(ctx context.Context, number uint64) ([][]byte, error) {
	return retry(ctx, r, "receipts", func() ([][]byte, error) {
		return r.inner.ReceiptsByNumber(ctx, number)
	})
}

func retry[T any](ctx context.Context, r *Retrying, op string, fn func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		if v, err = fn(); err == nil || !errors.Is(err, events.ErrHostUnavailable) {
			return v, err
		}
		if attempt == r.cfg.Attempts-1 {
			break
		}
		delay := r.Backoff(attempt)
		r.log.Warn("host call failed, retrying", "op", op, "attempt", attempt+1, "delay", delay, "err", err)
		if serr := r.sleep(ctx, delay); serr != nil {
			return v, errors.Join(err, serr)
		}
	}
	return v, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
