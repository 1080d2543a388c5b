package monitor

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/eth2030/eclipsemonitor/consensus"
	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/trie"
)

const (
	chainStartTime = 1_438_270_000
	blockTime      = 14
	testNow        = 2_000_000_000
)

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// testChain builds a valid pre-Homestead mainnet chain starting at an
// arbitrary block.
type testChain struct {
	t    fataler
	diff *consensus.Difficulty
	last *types.HeaderRecord
}

func newTestChain(t fataler) *testChain {
	return &testChain{t: t, diff: consensus.NewDifficulty(core.MainnetChainConfig, 13)}
}

// first returns the raw header at number with an arbitrary parent.
func (c *testChain) first(number uint64) []byte {
	h := c.header(types.Hash{0xaa}, number, chainStartTime+number*blockTime, big.NewInt(17_179_869_184))
	return c.seal(h)
}

// next returns the raw child of the last header. mod may set receipt
// fields; it must leave the difficulty and time alone.
func (c *testChain) next(mod func(*types.Header)) []byte {
	c.t.Helper()
	if c.last == nil {
		c.t.Fatalf("testChain: next before first")
	}
	time := c.last.Time() + blockTime
	h := c.header(c.last.Hash(), c.last.Number()+1, time, c.diff.Estimate(c.last, time))
	if mod != nil {
		mod(h)
	}
	return c.seal(h)
}

func (c *testChain) header(parent types.Hash, number, time uint64, diff *big.Int) *types.Header {
	return &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Root:        types.Hash{0x01},
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  diff,
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    5000,
		Time:        time,
		Extra:       []byte("test"),
		Nonce:       types.BlockNonce{0x42},
	}
}

func (c *testChain) seal(h *types.Header) []byte {
	c.t.Helper()
	rec, err := types.NewHeaderRecordFromHeader(h)
	if err != nil {
		c.t.Fatalf("NewHeaderRecordFromHeader: %v", err)
	}
	c.last = rec
	return rec.Raw()
}

// rewind forgets the last header so the next one is built on rec.
func (c *testChain) rewind(rec *types.HeaderRecord) { c.last = rec }

var errHostDown = errors.New("host down")

// fakeHost serves a settable tip and per-block receipts.
type fakeHost struct {
	mu       sync.Mutex
	latest   uint64
	queue    []uint64
	tipErr   error
	tipCalls int
	receipts map[uint64][][]byte
	fetches  int
}

func newFakeHost(latest uint64) *fakeHost {
	return &fakeHost{latest: latest, receipts: make(map[uint64][][]byte)}
}

func (h *fakeHost) LatestBlockNumber(context.Context) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tipCalls++
	if h.tipErr != nil {
		return 0, h.tipErr
	}
	if len(h.queue) > 0 {
		n := h.queue[0]
		h.queue = h.queue[1:]
		return n, nil
	}
	return h.latest, nil
}

func (h *fakeHost) ReceiptsByNumber(_ context.Context, n uint64) ([][]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fetches++
	return h.receipts[n], nil
}

func (h *fakeHost) setLatest(n uint64) {
	h.mu.Lock()
	h.latest = n
	h.mu.Unlock()
}

// queueTips makes the next tip queries return tips, in order, before
// falling back to the settable tip.
func (h *fakeHost) queueTips(tips ...uint64) {
	h.mu.Lock()
	h.queue = append(h.queue, tips...)
	h.mu.Unlock()
}

func (h *fakeHost) setTipErr(err error) {
	h.mu.Lock()
	h.tipErr = err
	h.mu.Unlock()
}

func (h *fakeHost) serve(n uint64, raw [][]byte) {
	h.mu.Lock()
	h.receipts[n] = raw
	h.mu.Unlock()
}

// encodeReceipts returns the raw receipts, their root and their logs bloom.
func encodeReceipts(t fataler, receipts ...*types.Receipt) ([][]byte, types.Hash, types.Bloom) {
	t.Helper()
	raw := make([][]byte, len(receipts))
	var logs []*types.Log
	for i, r := range receipts {
		enc, err := r.EncodeRLP()
		if err != nil {
			t.Fatalf("encode receipt %d: %v", i, err)
		}
		raw[i] = enc
		logs = append(logs, r.Logs...)
	}
	root, err := trie.DeriveListRoot(raw)
	if err != nil {
		t.Fatalf("DeriveListRoot: %v", err)
	}
	return raw, root, types.LogsBloom(logs)
}

func receiptWithLogs(cumGas uint64, logs ...*types.Log) *types.Receipt {
	r := types.NewReceipt(types.ReceiptStatusSuccessful, cumGas)
	r.Logs = logs
	r.Bloom = types.LogsBloom(logs)
	return r
}

func testConfig(start, interval uint64) Config {
	cfg := DefaultConfig(core.Mainnet)
	cfg.StartBlock = start
	cfg.CheckpointInterval = interval
	return cfg
}

func newTestMonitor(t fataler, cfg Config, host Host) *Monitor {
	t.Helper()
	m, err := New(cfg, Deps{Host: host, Clock: consensus.ClockFunc(func() uint64 { return testNow })})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func mustUpdate(t fataler, m *Monitor, raw []byte) {
	t.Helper()
	if err := m.Update(context.Background(), raw); err != nil {
		t.Fatalf("Update: %v", err)
	}
}
