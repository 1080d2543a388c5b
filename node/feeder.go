package node

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/eth2030/eclipsemonitor/consensus"
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/events"
	"github.com/eth2030/eclipsemonitor/log"
)

// HeaderSource serves raw headers and the chain tip.
type HeaderSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	RawHeaderByNumber(ctx context.Context, number uint64) ([]byte, error)
}

// Updater consumes headers in order.
type Updater interface {
	Update(ctx context.Context, raw []byte) error
	LastValidated() (uint64, bool)
}

// FeederConfig controls a Feeder.
type FeederConfig struct {
	Start        uint64
	Concurrency  int
	Batch        int
	PollInterval time.Duration
	RetryDelay   time.Duration
}

// Feeder walks the chain from Start, prefetching raw headers concurrently
// and handing them to the monitor strictly in block order.
type Feeder struct {
	source  HeaderSource
	monitor Updater
	cfg     FeederConfig
	pool    pond.ResultPool[fetched]
	log     *log.Logger

	lastProgress atomic.Int64
	hostTip      atomic.Uint64
	sleep        func(ctx context.Context, d time.Duration) error
}

type fetched struct {
	number uint64
	raw    []byte
	err    error
}

func NewFeeder(source HeaderSource, mon Updater, cfg FeederConfig, logger *log.Logger) *Feeder {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Batch < 1 {
		cfg.Batch = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = cfg.PollInterval
	}
	if logger == nil {
		logger = log.Discard()
	}
	f := &Feeder{
		source:  source,
		monitor: mon,
		cfg:     cfg,
		pool:    pond.NewResultPool[fetched](cfg.Concurrency),
		log:     logger.Module("feeder"),
		sleep:   sleepContext,
	}
	f.lastProgress.Store(time.Now().UnixNano())
	return f
}

// LastProgress returns when a header was last accepted, or when the feeder
// was created.
func (f *Feeder) LastProgress() time.Time { return time.Unix(0, f.lastProgress.Load()) }

// HostTip returns the last tip the feeder saw.
func (f *Feeder) HostTip() uint64 { return f.hostTip.Load() }

// Run feeds headers until ctx is cancelled.
func (f *Feeder) Run(ctx context.Context) error {
	defer f.pool.StopAndWait()
	for {
		next := f.next()
		tip, err := f.source.LatestBlockNumber(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.log.Warn("tip query failed", "err", err)
			if f.sleep(ctx, f.cfg.RetryDelay) != nil {
				return nil
			}
			continue
		}
		f.hostTip.Store(tip)
		if tip < next {
			if f.sleep(ctx, f.cfg.PollInterval) != nil {
				return nil
			}
			continue
		}
		end := min(tip, next+uint64(f.cfg.Batch)-1)
		if err := f.feed(ctx, next, end); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if f.sleep(ctx, f.cfg.RetryDelay) != nil {
				return nil
			}
		}
	}
}

func (f *Feeder) next() uint64 {
	if n, ok := f.monitor.LastValidated(); ok {
		return n + 1
	}
	return f.cfg.Start
}

// feed fetches [from, to] and delivers it. It returns at the first header
// that is not accepted.
func (f *Feeder) feed(ctx context.Context, from, to uint64) error {
	group := f.pool.NewGroupContext(ctx)
	for n := from; n <= to; n++ {
		group.Submit(func() fetched {
			raw, err := f.source.RawHeaderByNumber(ctx, n)
			return fetched{number: n, raw: raw, err: err}
		})
	}
	batch, err := group.Wait()
	if err != nil {
		return err
	}
	for _, b := range batch {
		if b.err != nil {
			f.log.Warn("header fetch failed", "number", b.number, "err", b.err)
			return b.err
		}
		if err := f.deliver(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// deliver hands one header to the monitor. Errors reported after the header
// was committed are logged and do not stop the batch.
func (f *Feeder) deliver(ctx context.Context, b fetched) error {
	err := f.monitor.Update(ctx, b.raw)
	if last, ok := f.monitor.LastValidated(); ok && last == b.number {
		f.lastProgress.Store(time.Now().UnixNano())
		if err != nil {
			f.log.Warn("header accepted with errors", "number", b.number, "err", err)
		}
		return nil
	}
	if err == nil {
		err = errors.New("node: header not accepted")
	}

	var (
		verr *consensus.ValidationError
		perr *types.ParseError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &perr):
		f.log.Error("host sent an invalid header", "number", b.number, "err", err)
	case errors.Is(err, events.ErrIntegrity):
		f.log.Error("host sent forged receipts", "number", b.number, "err", err)
	case errors.Is(err, events.ErrHostUnavailable):
		f.log.Warn("host unavailable", "number", b.number, "err", err)
	default:
		f.log.Warn("header not accepted", "number", b.number, "err", err)
	}
	return err
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
