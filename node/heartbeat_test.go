package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/monitor"
)

type staticStatus monitor.Status

func (s staticStatus) Status() monitor.Status { return monitor.Status(s) }

func TestHeartbeatBeat(t *testing.T) {
	status := staticStatus{
		Phase:      monitor.Runtime,
		LastNumber: 1234,
		Validated:  true,
		SecState: monitor.SecState{
			GenesisHash:         types.Hash{0x01},
			CheckpointHash:      types.Hash{0x02},
			CheckpointNumber:    []byte{0x04, 0xd0},
			CheckpointIteration: 7,
		},
	}
	sink := &recordingSink{}
	h, err := NewHeartbeat("@every 1h", status, sink, nil)
	if err != nil {
		t.Fatalf("NewHeartbeat: %v", err)
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.now = func() time.Time { return at }
	h.Beat(context.Background())

	_, hbs := sink.snapshot()
	if len(hbs) != 1 {
		t.Fatalf("published %d heartbeats, want 1", len(hbs))
	}
	hb := hbs[0]
	if !hb.Time.Equal(at) || hb.Phase != "runtime" || hb.LastValidated != 1234 || hb.Iteration != 7 {
		t.Fatalf("heartbeat = %+v", hb)
	}
	raw, err := hexutil.Decode(hb.SecState)
	if err != nil {
		t.Fatalf("decode secstate hex: %v", err)
	}
	got, err := monitor.DecodeSecState(raw)
	if err != nil {
		t.Fatalf("DecodeSecState: %v", err)
	}
	if got.CheckpointIteration != 7 || got.CheckpointHash != status.SecState.CheckpointHash {
		t.Fatalf("decoded secstate = %+v", got)
	}
}

func TestHeartbeatPublishErrorIsLogged(t *testing.T) {
	sink := &recordingSink{err: errors.New("down")}
	h, err := NewHeartbeat("@every 1h", staticStatus{}, sink, nil)
	if err != nil {
		t.Fatalf("NewHeartbeat: %v", err)
	}
	h.Beat(context.Background())
	if _, hbs := sink.snapshot(); len(hbs) != 1 {
		t.Fatalf("published %d heartbeats, want 1", len(hbs))
	}
}

func TestHeartbeatBadSpec(t *testing.T) {
	if _, err := NewHeartbeat("not a spec", staticStatus{}, &recordingSink{}, nil); err == nil {
		t.Fatal("NewHeartbeat accepted a bad spec")
	}
}

func TestHeartbeatRun(t *testing.T) {
	sink := &recordingSink{}
	h, err := NewHeartbeat("@every 1s", staticStatus{Phase: monitor.Sync}, sink, nil)
	if err != nil {
		t.Fatalf("NewHeartbeat: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.Run(ctx) }()
	waitFor(t, "a heartbeat", func() bool { _, hbs := sink.snapshot(); return len(hbs) > 0 })
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, hbs := sink.snapshot(); hbs[0].Phase != "sync" {
		t.Fatalf("phase = %q, want sync", hbs[0].Phase)
	}
}
