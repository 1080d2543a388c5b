// Package notify publishes matched events and periodic heartbeats to
// external sinks.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/events"
)

// Event is the published form of one log delivered to a listener.
type Event struct {
	Subscription string   `json:"subscription"`
	Listener     uint64   `json:"listener"`
	Block        uint64   `json:"block"`
	BlockHash    string   `json:"blockHash"`
	TxIndex      uint     `json:"txIndex"`
	LogIndex     uint     `json:"logIndex"`
	Address      string   `json:"address"`
	Topics       []string `json:"topics"`
	Data         string   `json:"data"`
}

// NewEvent renders a delivered log.
func NewEvent(subscription string, hdr *types.HeaderRecord, l *types.Log, id events.ListenerID) Event {
	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.Hex()
	}
	return Event{
		Subscription: subscription,
		Listener:     uint64(id),
		Block:        hdr.Number(),
		BlockHash:    hdr.Hash().Hex(),
		TxIndex:      l.TxIndex,
		LogIndex:     l.Index,
		Address:      l.Address.Hex(),
		Topics:       topics,
		Data:         hexutil.Encode(l.Data),
	}
}

// Heartbeat is the periodic liveness record. SecState is the hex of the
// RLP-encoded security state.
type Heartbeat struct {
	Time          time.Time `json:"time"`
	Phase         string    `json:"phase"`
	LastValidated uint64    `json:"lastValidated"`
	Iteration     uint64    `json:"checkpointIteration"`
	SecState      string    `json:"secState"`
}

// Sink receives events and heartbeats.
type Sink interface {
	PublishEvent(ctx context.Context, e Event) error
	PublishHeartbeat(ctx context.Context, h Heartbeat) error
	Close() error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) PublishEvent(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.PublishEvent(ctx, e))
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishHeartbeat(ctx context.Context, h Heartbeat) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.PublishHeartbeat(ctx, h))
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
