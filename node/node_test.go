package node

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/eth2030/eclipsemonitor/log"
	"github.com/eth2030/eclipsemonitor/monitor"
)

func testNodeConfig() Config {
	cfg := DefaultConfig()
	cfg.Host.URL = "http://127.0.0.1:8545"
	cfg.Host.PollInterval = Duration{time.Millisecond}
	cfg.Host.RetryBase = Duration{time.Millisecond}
	cfg.Host.Concurrency = 4
	cfg.Host.Batch = 8
	cfg.Metrics.Addr = ""
	cfg.Heartbeat.Spec = ""
	cfg.Monitor.StartBlock = 100
	cfg.Monitor.CheckpointInterval = 5
	cfg.Subscriptions = []SubscriptionConfig{{
		Name:    "watched",
		Address: watched.Hex(),
		Topics:  []string{topicA.Hex()},
	}}
	return cfg
}

func TestNodeRun(t *testing.T) {
	bridge := newFakeBridge(t, 100, 150, 120, 145)
	bridge.failNext(131, 1)
	sink := &recordingSink{}
	n, err := newNode(testNodeConfig(), bridge, sink, testClock(), log.Discard())
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	if got := n.Monitor().Status().Listeners; got != 1 {
		t.Fatalf("listeners = %d, want 1", got)
	}
	if n.Health().OverallStatus != StatusDegraded {
		t.Fatalf("health before runtime = %s, want %s", n.Health().OverallStatus, StatusDegraded)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- n.Run(ctx) }()
	waitFor(t, "block 150", func() bool { return n.Monitor().Status().LastNumber == 150 })
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("node did not stop")
	}

	if n.Monitor().Phase() != monitor.Runtime {
		t.Fatalf("phase = %v, want %v", n.Monitor().Phase(), monitor.Runtime)
	}
	if got := n.Health().OverallStatus; got != StatusHealthy {
		t.Fatalf("health = %s, want %s", got, StatusHealthy)
	}

	evs, _ := sink.snapshot()
	var blocks []uint64
	for _, e := range evs {
		if e.Subscription != "watched" || e.Data != "0xbeef" || e.Address != watched.Hex() {
			t.Fatalf("unexpected event %+v", e)
		}
		blocks = append(blocks, e.Block)
	}
	if diff := cmp.Diff([]uint64{120, 145}, blocks); diff != "" {
		t.Fatalf("event blocks (-want +got):\n%s", diff)
	}

	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sink.closed {
		t.Fatal("sink was not closed")
	}
}

func TestNodePublishFailureKeepsListener(t *testing.T) {
	bridge := newFakeBridge(t, 100, 150, 110, 111)
	sink := &recordingSink{err: errors.New("redis down")}
	n, err := newNode(testNodeConfig(), bridge, sink, testClock(), nil)
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- n.Run(ctx) }()
	waitFor(t, "block 120", func() bool { return n.Monitor().Status().LastNumber >= 120 })
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run: %v", err)
	}

	evs, _ := sink.snapshot()
	if len(evs) != 2 {
		t.Fatalf("published %d events, want 2", len(evs))
	}
	if got := n.Monitor().Status().Listeners; got != 1 {
		t.Fatalf("listeners = %d, want the listener to survive publish failures", got)
	}
}

func TestNewNodeRejectsBadSubscription(t *testing.T) {
	cfg := testNodeConfig()
	cfg.Subscriptions[0].Match = "fuzzy"
	_, err := newNode(cfg, newFakeBridge(t, 100, 101), &recordingSink{}, testClock(), nil)
	if err == nil || !strings.Contains(err.Error(), `subscription "watched"`) {
		t.Fatalf("err = %v, want a subscription error", err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testNodeConfig()
	cfg.Host.URL = ""
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("New accepted a config without a host url")
	}
}
