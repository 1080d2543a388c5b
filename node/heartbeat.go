package node

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/robfig/cron/v3"

	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/monitor"
	"github.com/eth2030/eclipsemonitor/notify"
)

// StatusSource is the part of the monitor the heartbeat reads.
type StatusSource interface {
	Status() monitor.Status
}

// Heartbeat periodically publishes the encoded security state.
type Heartbeat struct {
	cron   *cron.Cron
	status StatusSource
	sink   notify.Sink
	log    *log.Logger
	now    func() time.Time
	ctx    context.Context
}

// NewHeartbeat schedules a beat on spec, a standard cron spec or descriptor
// such as "@every 30s".
func NewHeartbeat(spec string, status StatusSource, sink notify.Sink, logger *log.Logger) (*Heartbeat, error) {
	if logger == nil {
		logger = log.Discard()
	}
	h := &Heartbeat{
		status: status,
		sink:   sink,
		log:    logger.Module("heartbeat"),
		now:    time.Now,
		ctx:    context.Background(),
	}
	h.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{h.log})))
	if _, err := h.cron.AddFunc(spec, func() { h.Beat(h.ctx) }); err != nil {
		return nil, err
	}
	return h, nil
}

// Beat publishes one heartbeat.
func (h *Heartbeat) Beat(ctx context.Context) {
	s := h.status.Status()
	hb := notify.Heartbeat{
		Time:          h.now().UTC(),
		Phase:         s.Phase.String(),
		LastValidated: s.LastNumber,
		Iteration:     s.SecState.CheckpointIteration,
		SecState:      hexutil.Encode(s.SecState.Encode()),
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := h.sink.PublishHeartbeat(ctx, hb); err != nil {
		h.log.Warn("heartbeat publish failed", "err", err)
	}
}

// Run starts the schedule and stops it when ctx is cancelled, waiting for a
// running beat to finish.
func (h *Heartbeat) Run(ctx context.Context) error {
	h.ctx = ctx
	h.cron.Start()
	h.log.Info("heartbeat started", "entries", len(h.cron.Entries()))
	<-ctx.Done()
	<-h.cron.Stop().Done()
	return nil
}

// cronLogger adapts log.Logger to cron.Logger.
type cronLogger struct {
	log *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
