// Package ethash implements the proof-of-work difficulty adjustment
// algorithms used by Ethereum mainnet from Frontier up to the merge.
package ethash

import (
	"fmt"
	"math/big"

	"github.com/eth2030/eclipsemonitor/core"
)

// Difficulty adjustment constants.
const (
	// MinimumDifficulty is the floor every adjusted difficulty is clamped to.
	MinimumDifficulty = 131072
	// BoundDivisorShift is log2 of the difficulty bound divisor (2048).
	BoundDivisorShift = 11
	// DurationLimit decides whether Frontier difficulty goes up or down.
	DurationLimit = 13
	// ExpDiffPeriod is the number of blocks per difficulty bomb period.
	ExpDiffPeriod = 100000

	maxReduction = 99
)

// Rule selects one difficulty adjustment algorithm.
type Rule uint8

const (
	Frontier Rule = iota
	Homestead
	Byzantium
	Constantinople
	EIP2384 // Muir Glacier
	EIP3554 // London
	EIP4345 // Arrow Glacier
	EIP5133 // Gray Glacier
	Paris
)

var ruleNames = [...]string{
	Frontier:       "frontier",
	Homestead:      "homestead",
	Byzantium:      "byzantium",
	Constantinople: "constantinople",
	EIP2384:        "eip2384",
	EIP3554:        "eip3554",
	EIP4345:        "eip4345",
	EIP5133:        "eip5133",
	Paris:          "paris",
}

func (r Rule) String() string {
	if int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("rule(%d)", uint8(r))
}

// ruleParams are the knobs of the Homestead-style formula.
type ruleParams struct {
	considerUncle bool
	deltaDivisor  uint64
	// bombDelay is the number of blocks the ice age is pushed back by.
	// Zero means no delay: the bomb counts from the next block number.
	bombDelay uint64
}

var paramsByRule = map[Rule]ruleParams{
	Homestead:      {considerUncle: false, deltaDivisor: 10},
	Byzantium:      {considerUncle: true, deltaDivisor: 9, bombDelay: 3_000_000},
	Constantinople: {considerUncle: true, deltaDivisor: 9, bombDelay: 5_000_000},
	EIP2384:        {considerUncle: true, deltaDivisor: 9, bombDelay: 9_000_000},
	EIP3554:        {considerUncle: true, deltaDivisor: 9, bombDelay: 9_700_000},
	EIP4345:        {considerUncle: true, deltaDivisor: 9, bombDelay: 10_700_000},
	EIP5133:        {considerUncle: true, deltaDivisor: 9, bombDelay: 11_400_000},
}

// RuleAt returns the rule in force for block number on an Ethash chain.
func RuleAt(cfg *core.ChainConfig, number uint64) Rule {
	switch {
	case cfg.IsParis(number):
		return Paris
	case cfg.IsGrayGlacier(number):
		return EIP5133
	case cfg.IsArrowGlacier(number):
		return EIP4345
	case cfg.IsLondon(number):
		return EIP3554
	case cfg.IsMuirGlacier(number):
		return EIP2384
	case cfg.IsConstantinople(number):
		return Constantinople
	case cfg.IsByzantium(number):
		return Byzantium
	case cfg.IsHomestead(number):
		return Homestead
	default:
		return Frontier
	}
}

// Parent is the subset of a parent header the adjustment depends on.
type Parent struct {
	Number     uint64
	Time       uint64
	Difficulty *big.Int
	HasUncle   bool
}

var (
	big1      = big.NewInt(1)
	bigMinDif = big.NewInt(MinimumDifficulty)
)

// CalcDifficulty returns the difficulty a block with timestamp time must
// declare on top of parent under rule. A timestamp at or before the
// parent's is treated as a zero delta.
func CalcDifficulty(rule Rule, parent Parent, time uint64) *big.Int {
	switch rule {
	case Paris:
		return new(big.Int)
	case Frontier:
		return calcFrontier(parent, time)
	}
	p, ok := paramsByRule[rule]
	if !ok {
		panic(fmt.Sprintf("ethash: unknown rule %d", rule))
	}
	return calcHomesteadStyle(p, parent, time)
}

func timeDelta(parent Parent, time uint64) uint64 {
	if time <= parent.Time {
		return 0
	}
	return time - parent.Time
}

// calcFrontier implements
//
//	diff = parent_diff ± parent_diff / 2048 + 2^(periodCount - 2)
//
// going up when the block came within DurationLimit seconds.
func calcFrontier(parent Parent, time uint64) *big.Int {
	adjust := new(big.Int).Rsh(parent.Difficulty, BoundDivisorShift)
	diff := new(big.Int).Set(parent.Difficulty)
	if timeDelta(parent, time) < DurationLimit {
		diff.Add(diff, adjust)
	} else {
		diff.Sub(diff, adjust)
	}
	if diff.Cmp(bigMinDif) < 0 {
		diff.Set(bigMinDif)
	}
	addBomb(diff, parent.Number+1)
	return diff
}

// calcHomesteadStyle implements the Homestead formula and its Byzantium
// successors:
//
//	diff = parent_diff + parent_diff / 2048 *
//	       max((2 if parent has uncles else 1) - (time - parent_time) // divisor, -99)
//	       + 2^(periodCount - 2)
//
// Homestead always uses 1 and a divisor of 10.
func calcHomesteadStyle(p ruleParams, parent Parent, time uint64) *big.Int {
	base := uint64(1)
	if p.considerUncle && parent.HasUncle {
		base = 2
	}
	x := timeDelta(parent, time) / p.deltaDivisor
	reducing := x > base
	if reducing {
		x -= base
		if x > maxReduction {
			x = maxReduction
		}
	} else {
		x = base - x
	}

	step := new(big.Int).Rsh(parent.Difficulty, BoundDivisorShift)
	step.Mul(step, new(big.Int).SetUint64(x))

	diff := new(big.Int).Set(parent.Difficulty)
	if reducing {
		diff.Sub(diff, step)
	} else {
		diff.Add(diff, step)
	}
	if diff.Cmp(bigMinDif) < 0 {
		diff.Set(bigMinDif)
	}

	var fake uint64
	if p.bombDelay == 0 {
		fake = parent.Number + 1
	} else if parent.Number >= p.bombDelay-1 {
		fake = parent.Number - (p.bombDelay - 1)
	}
	addBomb(diff, fake)
	return diff
}

// addBomb adds the exponential ice age term for the given (possibly
// delayed) block number to diff.
func addBomb(diff *big.Int, number uint64) {
	period := number / ExpDiffPeriod
	if period > 1 {
		diff.Add(diff, new(big.Int).Lsh(big1, uint(period-2)))
	}
}
