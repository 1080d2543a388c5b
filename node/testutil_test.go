package node

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/eth2030/eclipsemonitor/consensus"
	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/geth"
	"github.com/eth2030/eclipsemonitor/notify"
	"github.com/eth2030/eclipsemonitor/trie"
)

const (
	chainStartTime = 1_438_270_000
	blockTime      = 14
	testNow        = 2_000_000_000
)

var (
	watched = types.Address{0x01}
	topicA  = types.Hash{0x0a}
)

// fakeBridge serves a pre-built, valid mainnet PoW chain.
type fakeBridge struct {
	mu       sync.Mutex
	latest   uint64
	headers  map[uint64][]byte
	receipts map[uint64][][]byte
	fails    map[uint64]int
}

// newFakeBridge builds the headers [start, end]. Blocks listed in withLogs
// carry one receipt with a log from watched under topicA.
func newFakeBridge(t *testing.T, start, end uint64, withLogs ...uint64) *fakeBridge {
	t.Helper()
	b := &fakeBridge{
		latest:   end,
		headers:  make(map[uint64][]byte),
		receipts: make(map[uint64][][]byte),
		fails:    make(map[uint64]int),
	}
	r := types.NewReceipt(types.ReceiptStatusSuccessful, 21000)
	r.Logs = []*types.Log{{Address: watched, Topics: []types.Hash{topicA}, Data: []byte{0xbe, 0xef}}}
	r.Bloom = types.LogsBloom(r.Logs)
	enc, err := r.EncodeRLP()
	if err != nil {
		t.Fatalf("encode receipt: %v", err)
	}
	root, err := trie.DeriveListRoot([][]byte{enc})
	if err != nil {
		t.Fatalf("DeriveListRoot: %v", err)
	}
	logged := make(map[uint64]bool)
	for _, n := range withLogs {
		logged[n] = true
	}

	diff := consensus.NewDifficulty(core.MainnetChainConfig, 13)
	var parent *types.HeaderRecord
	for n := start; n <= end; n++ {
		h := &types.Header{
			ParentHash:  types.Hash{0xaa},
			UncleHash:   types.EmptyUncleHash,
			Root:        types.Hash{0x01},
			TxHash:      types.EmptyRootHash,
			ReceiptHash: types.EmptyRootHash,
			Difficulty:  big.NewInt(17_179_869_184),
			Number:      new(big.Int).SetUint64(n),
			GasLimit:    5000,
			Time:        chainStartTime + n*blockTime,
			Extra:       []byte("node"),
			Nonce:       types.BlockNonce{0x42},
		}
		if parent != nil {
			h.ParentHash = parent.Hash()
			h.Difficulty = diff.Estimate(parent, h.Time)
		}
		if logged[n] {
			h.ReceiptHash, h.Bloom = root, r.Bloom
			b.receipts[n] = [][]byte{enc}
		}
		rec, err := types.NewHeaderRecordFromHeader(h)
		if err != nil {
			t.Fatalf("header %d: %v", n, err)
		}
		b.headers[n] = rec.Raw()
		parent = rec
	}
	return b
}

var _ geth.Bridge = (*fakeBridge)(nil)

func (b *fakeBridge) LatestBlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, nil
}

func (b *fakeBridge) RawHeaderByNumber(_ context.Context, n uint64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fails[n] > 0 {
		b.fails[n]--
		return nil, fmt.Errorf("header %d: %w", n, geth.ErrNotFound)
	}
	raw, ok := b.headers[n]
	if !ok {
		return nil, fmt.Errorf("header %d: %w", n, geth.ErrNotFound)
	}
	return raw, nil
}

func (b *fakeBridge) ReceiptsByNumber(_ context.Context, n uint64) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.receipts[n], nil
}

// failNext makes the next k fetches of header n fail.
func (b *fakeBridge) failNext(n uint64, k int) {
	b.mu.Lock()
	b.fails[n] = k
	b.mu.Unlock()
}

// recordingSink keeps everything published to it.
type recordingSink struct {
	mu         sync.Mutex
	events     []notify.Event
	heartbeats []notify.Heartbeat
	err        error
	closed     bool
}

func (s *recordingSink) PublishEvent(_ context.Context, e notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) PublishHeartbeat(_ context.Context, h notify.Heartbeat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeats = append(s.heartbeats, h)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) snapshot() ([]notify.Event, []notify.Heartbeat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Event(nil), s.events...), append([]notify.Heartbeat(nil), s.heartbeats...)
}

func testClock() consensus.Clock {
	return consensus.ClockFunc(func() uint64 { return testNow })
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
