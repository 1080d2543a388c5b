package consensus

import (
	"math/big"
	"slices"

	"github.com/holiman/uint256"

	"github.com/eth2030/eclipsemonitor/core/types"
)

// floorShift divides the median by 128 so MinDiffPercent is in 1/128ths.
const floorShift = 7

// DifficultyFloor is the minimum proof-of-work difficulty accepted in
// runtime, derived from the median difficulty of the last checkpoint window.
type DifficultyFloor struct {
	minDiffPercent uint64
	floor          *uint256.Int
}

// NewDifficultyFloor returns a floor that accepts everything until the
// first Update.
func NewDifficultyFloor(minDiffPercent uint8) *DifficultyFloor {
	return &DifficultyFloor{minDiffPercent: uint64(minDiffPercent), floor: new(uint256.Int)}
}

// Median returns the element at index len/2 of the sorted difficulties, or
// zero for an empty window. Values wider than 256 bits saturate.
func Median(difficulties []*big.Int) *uint256.Int {
	if len(difficulties) == 0 {
		return new(uint256.Int)
	}
	vals := make([]*uint256.Int, len(difficulties))
	for i, d := range difficulties {
		v, overflow := uint256.FromBig(d)
		if overflow {
			v = new(uint256.Int).SetAllOne()
		}
		vals[i] = v
	}
	slices.SortFunc(vals, func(a, b *uint256.Int) int { return a.Cmp(b) })
	return vals[len(vals)/2]
}

// Update recomputes the floor as (median >> 7) * MinDiffPercent.
func (f *DifficultyFloor) Update(window []*big.Int) {
	m := Median(window)
	m.Rsh(m, floorShift)
	floor, overflow := new(uint256.Int).MulOverflow(m, uint256.NewInt(f.minDiffPercent))
	if overflow {
		floor.SetAllOne()
	}
	f.floor = floor
}

// Floor returns the current floor.
func (f *DifficultyFloor) Floor() *big.Int { return f.floor.ToBig() }

// Check reports a *ValidationError when h declares less than the floor.
func (f *DifficultyFloor) Check(h *types.HeaderRecord) error {
	d, overflow := uint256.FromBig(h.Difficulty())
	if !overflow && d.Lt(f.floor) {
		return newValidationError(KindFloor, h.Number(), ErrDifficultyBelowFloor, f.floor.ToBig(), h.Difficulty())
	}
	return nil
}

// CheckReceiveGap rejects a candidate that arrived more than maxWait seconds
// after its parent. A zero maxWait disables the check.
func CheckReceiveGap(number, parentReceived, received, maxWait uint64) error {
	if maxWait == 0 || received <= parentReceived {
		return nil
	}
	if gap := received - parentReceived; gap > maxWait {
		return newValidationError(KindStale, number, ErrStaleHeader, maxWait, gap)
	}
	return nil
}
