package monitor

import (
	"bytes"
	"math/big"

	"github.com/eth2030/eclipsemonitor/core/types"
)

// checkpointTracker counts accepted headers, the first one included, and
// records every CheckpointInterval-th as the checkpoint.
type checkpointTracker struct {
	interval uint64
	count    uint64

	iteration uint64
	hash      types.Hash
	number    []byte

	// window holds the difficulties of the headers counted since the last
	// checkpoint.
	window []*big.Int
}

func newCheckpointTracker(interval uint64) *checkpointTracker {
	return &checkpointTracker{interval: interval, window: make([]*big.Int, 0, interval)}
}

// completes reports whether the next add records a checkpoint.
func (t *checkpointTracker) completes() bool { return t.count+1 >= t.interval }

// add counts h. On a checkpoint it returns the finished window and true.
func (t *checkpointTracker) add(h *types.HeaderRecord) ([]*big.Int, bool) {
	t.count++
	t.window = append(t.window, h.Difficulty())
	if t.count < t.interval {
		return nil, false
	}
	t.count = 0
	t.iteration++
	t.hash = h.Hash()
	t.number = h.NumberBytes()
	window := t.window
	t.window = make([]*big.Int, 0, t.interval)
	return window, true
}

func (t *checkpointTracker) checkpointNumber() []byte { return bytes.Clone(t.number) }
