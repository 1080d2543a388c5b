package consensus

import (
	"math/big"

	"github.com/eth2030/eclipsemonitor/consensus/ethash"
	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
)

// Clique difficulties for in-turn and out-of-turn signers.
var (
	diffInTurn = big.NewInt(2)
	diffNoTurn = big.NewInt(1)
)

// Strategy is the difficulty algorithm family of a network.
type Strategy uint8

const (
	StrategyEthash Strategy = iota
	StrategyClique
)

func (s Strategy) String() string {
	if s == StrategyClique {
		return "clique"
	}
	return "ethash"
}

// Difficulty estimates and checks header difficulty for one network. The
// estimator and the checker share a single computation so they cannot drift.
type Difficulty struct {
	cfg              *core.ChainConfig
	strategy         Strategy
	estimateInterval uint64
}

// NewDifficulty selects the strategy from the chain's engine. estimateInterval
// is the block time, in seconds, assumed by EstimateNext.
func NewDifficulty(cfg *core.ChainConfig, estimateInterval uint64) *Difficulty {
	s := StrategyEthash
	if cfg.Engine == core.EngineClique {
		s = StrategyClique
	}
	return &Difficulty{cfg: cfg, strategy: s, estimateInterval: estimateInterval}
}

// Strategy returns the selected algorithm family.
func (d *Difficulty) Strategy() Strategy { return d.strategy }

func parentOf(h *types.HeaderRecord) ethash.Parent {
	return ethash.Parent{
		Number:     h.Number(),
		Time:       h.Time(),
		Difficulty: h.Difficulty(),
		HasUncle:   h.HasUncle(),
	}
}

// Estimate returns the difficulty expected of the child of parent mined at time.
func (d *Difficulty) Estimate(parent *types.HeaderRecord, time uint64) *big.Int {
	number := parent.Number() + 1
	if d.strategy == StrategyClique {
		if d.cfg.IsParis(number) {
			return new(big.Int)
		}
		return new(big.Int).Set(diffInTurn)
	}
	return ethash.CalcDifficulty(ethash.RuleAt(d.cfg, number), parentOf(parent), time)
}

// EstimateNext predicts the next block's difficulty without seeing it,
// assuming it arrives one estimate interval after parent.
func (d *Difficulty) EstimateNext(parent *types.HeaderRecord) *big.Int {
	return d.Estimate(parent, parent.Time()+d.estimateInterval)
}

// allowed returns every difficulty candidate may declare on top of parent.
func (d *Difficulty) allowed(parent, candidate *types.HeaderRecord) []*big.Int {
	if d.strategy == StrategyClique && !d.cfg.IsParis(candidate.Number()) {
		return []*big.Int{diffNoTurn, diffInTurn}
	}
	return []*big.Int{d.Estimate(parent, candidate.Time())}
}

// CheckDifficulty recomputes the expected difficulty and compares it
// exactly with the one candidate declares.
func (d *Difficulty) CheckDifficulty(parent, candidate *types.HeaderRecord) bool {
	actual := candidate.Difficulty()
	for _, want := range d.allowed(parent, candidate) {
		if actual.Cmp(want) == 0 {
			return true
		}
	}
	return false
}
