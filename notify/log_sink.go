package notify

import (
	"context"

	"github.com/eth2030/eclipsemonitor/log"
)

// LogSink writes events and heartbeats to a logger.
type LogSink struct {
	log *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{log: logger.Module("notify")}
}

func (s *LogSink) PublishEvent(_ context.Context, e Event) error {
	s.log.Info("event",
		"subscription", e.Subscription,
		"block", e.Block,
		"tx", e.TxIndex,
		"log", e.LogIndex,
		"address", e.Address,
		"topics", e.Topics,
		"data", e.Data,
	)
	return nil
}

func (s *LogSink) PublishHeartbeat(_ context.Context, h Heartbeat) error {
	s.log.Info("heartbeat",
		"phase", h.Phase,
		"last", h.LastValidated,
		"iteration", h.Iteration,
		"secstate", h.SecState,
	)
	return nil
}

func (s *LogSink) Close() error { return nil }
