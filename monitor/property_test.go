package monitor

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"pgregory.net/rapid"

	"github.com/eth2030/eclipsemonitor/core/types"
)

// TestUpdateMonotonic feeds a random mix of valid and broken headers while
// the host tip wanders, and checks that accepted progress never regresses.
func TestUpdateMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		interval := rapid.Uint64Range(1, 8).Draw(rt, "interval")
		latest := rapid.Uint64Range(90, 200).Draw(rt, "latest")
		host := newFakeHost(latest)
		m := newTestMonitor(rt, testConfig(100, interval), host)
		c := newTestChain(rt)
		mustUpdate(rt, m, c.first(100))
		genesis := m.SecurityState().GenesisHash

		prev := m.Status()
		steps := rapid.IntRange(1, 80).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			good := c.last
			expectAccept := false
			var raw []byte
			switch rapid.IntRange(0, 4).Draw(rt, "op") {
			case 0, 1:
				raw, expectAccept = c.next(nil), true
			case 2:
				raw = c.next(func(h *types.Header) { h.ParentHash = types.Hash{0x66} })
			case 3:
				raw = c.next(func(h *types.Header) { h.Number.Add(h.Number, big.NewInt(1)) })
			case 4:
				host.setLatest(rapid.Uint64Range(90, 300).Draw(rt, "tip"))
				continue
			}
			err := m.Update(context.Background(), raw)
			if expectAccept && err != nil {
				rt.Fatalf("valid header rejected: %v", err)
			}
			if !expectAccept {
				if err == nil {
					rt.Fatalf("broken header accepted")
				}
				c.rewind(good)
			}

			cur := m.Status()
			if cur.Phase < prev.Phase {
				rt.Fatalf("phase went back from %v to %v", prev.Phase, cur.Phase)
			}
			want := prev.LastNumber
			if expectAccept {
				want++
			}
			if cur.LastNumber != want {
				rt.Fatalf("last validated = %d, want %d", cur.LastNumber, want)
			}
			if cur.SecState.CheckpointIteration < prev.SecState.CheckpointIteration {
				rt.Fatalf("checkpoint iteration went back")
			}
			if cur.SecState.GenesisHash != genesis {
				rt.Fatalf("genesis changed")
			}
			accepted := cur.LastNumber - 100 + 1
			if cur.SecState.CheckpointIteration != accepted/interval {
				rt.Fatalf("iteration = %d after %d headers, interval %d",
					cur.SecState.CheckpointIteration, accepted, interval)
			}
			if !expectAccept && !bytes.Equal(cur.SecState.CheckpointNumber, prev.SecState.CheckpointNumber) {
				rt.Fatalf("rejected header moved the checkpoint")
			}
			prev = cur
		}
	})
}
