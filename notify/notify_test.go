package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/log"
)

func testRecord(t *testing.T) *types.HeaderRecord {
	t.Helper()
	rec, err := types.NewHeaderRecordFromHeader(&types.Header{
		UncleHash:  types.EmptyUncleHash,
		Difficulty: new(big.Int),
		Number:     big.NewInt(1234),
		Time:       1_700_000_000,
	})
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	return rec
}

func testLog() *types.Log {
	return &types.Log{
		Address: types.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Topics:  []types.Hash{types.HexToHash("0x01")},
		Data:    []byte{0xbe, 0xef},
		TxIndex: 3,
		Index:   7,
	}
}

func TestNewEvent(t *testing.T) {
	rec := testRecord(t)
	got := NewEvent("transfers", rec, testLog(), 9)
	want := Event{
		Subscription: "transfers",
		Listener:     9,
		Block:        1234,
		BlockHash:    rec.Hash().Hex(),
		TxIndex:      3,
		LogIndex:     7,
		Address:      "0x00000000000000000000000000000000000000aa",
		Topics:       []string{"0x0000000000000000000000000000000000000000000000000000000000000001"},
		Data:         "0xbeef",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

type published struct {
	channel string
	msg     []byte
}

type fakePublisher struct {
	got []published
	err error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if p.err != nil {
		cmd.SetErr(p.err)
		return cmd
	}
	p.got = append(p.got, published{channel: channel, msg: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func TestRedisSink(t *testing.T) {
	p := &fakePublisher{}
	s := newRedisSink(p, "eclipsemon", nil)
	ctx := context.Background()

	ev := NewEvent("transfers", testRecord(t), testLog(), 1)
	if err := s.PublishEvent(ctx, ev); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}
	hb := Heartbeat{Phase: "runtime", LastValidated: 1234, Iteration: 2, SecState: "0xc0"}
	if err := s.PublishHeartbeat(ctx, hb); err != nil {
		t.Fatalf("PublishHeartbeat: %v", err)
	}
	if len(p.got) != 2 {
		t.Fatalf("published %d messages, want 2", len(p.got))
	}
	if p.got[0].channel != "eclipsemon" || p.got[1].channel != "eclipsemon.heartbeat" {
		t.Fatalf("channels = %q, %q", p.got[0].channel, p.got[1].channel)
	}
	var decoded Event
	if err := json.Unmarshal(p.got[0].msg, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if diff := cmp.Diff(ev, decoded); diff != "" {
		t.Fatalf("event payload mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(p.got[1].msg), `"secState":"0xc0"`) {
		t.Fatalf("heartbeat payload = %s", p.got[1].msg)
	}
}

func TestRedisSinkError(t *testing.T) {
	down := errors.New("connection refused")
	s := newRedisSink(&fakePublisher{err: down}, "eclipsemon", nil)
	if err := s.PublishEvent(context.Background(), Event{}); !errors.Is(err, down) {
		t.Fatalf("err = %v, want %v", err, down)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(log.NewWriter(&buf, slog.LevelInfo, log.FormatJSON))
	if err := s.PublishEvent(context.Background(), NewEvent("transfers", testRecord(t), testLog(), 1)); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"msg":"event"`, `"subscription":"transfers"`, `"block":1234`, `"module":"notify"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %s missing %s", out, want)
		}
	}
}

type countingSink struct {
	events, beats, closed int
	err                   error
}

func (c *countingSink) PublishEvent(context.Context, Event) error {
	c.events++
	return c.err
}

func (c *countingSink) PublishHeartbeat(context.Context, Heartbeat) error {
	c.beats++
	return c.err
}

func (c *countingSink) Close() error {
	c.closed++
	return nil
}

func TestFanout(t *testing.T) {
	bad := errors.New("sink down")
	a, b := &countingSink{}, &countingSink{err: bad}
	f := Fanout{a, b}
	if err := f.PublishEvent(context.Background(), Event{}); !errors.Is(err, bad) {
		t.Fatalf("err = %v, want %v", err, bad)
	}
	if err := f.PublishHeartbeat(context.Background(), Heartbeat{}); !errors.Is(err, bad) {
		t.Fatalf("err = %v, want %v", err, bad)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if a.events != 1 || a.beats != 1 || a.closed != 1 || b.events != 1 {
		t.Fatalf("a = %+v, b = %+v", a, b)
	}
}
