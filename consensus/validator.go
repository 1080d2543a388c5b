package consensus

import (
	"github.com/eth2030/eclipsemonitor/core"
	"github.com/eth2030/eclipsemonitor/core/types"
)

// MaxExtraDataBytes is the maximum allowed length for the Extra field of
// non-Clique blocks. Clique seals its signature into extra data.
const MaxExtraDataBytes = 32

// Validator checks a candidate header against its accepted parent. It holds
// no chain state and has no side effects.
type Validator struct {
	cfg           *core.ChainConfig
	diff          *Difficulty
	clock         Clock
	maxFutureSkew uint64
}

// NewValidator creates a validator for cfg. Timestamps more than
// maxFutureSkew seconds ahead of clock are rejected.
func NewValidator(cfg *core.ChainConfig, diff *Difficulty, clock Clock, maxFutureSkew uint64) *Validator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Validator{cfg: cfg, diff: diff, clock: clock, maxFutureSkew: maxFutureSkew}
}

// Validate runs the checks in order: parent hash linkage, number
// continuity, timestamp bounds, exact difficulty and fork-rule structure.
// The first failure is returned as a *ValidationError.
func (v *Validator) Validate(parent, candidate *types.HeaderRecord) error {
	if parent == nil || candidate == nil {
		return ErrNilHeader
	}
	num := candidate.Number()

	if candidate.ParentHash() != parent.Hash() {
		return newValidationError(KindLinkage, num, ErrInvalidParentHash, parent.Hash(), candidate.ParentHash())
	}
	if parent.Number() == ^uint64(0) || num != parent.Number()+1 {
		return newValidationError(KindNumber, num, ErrInvalidNumber, parent.Number()+1, num)
	}

	if candidate.Time() <= parent.Time() {
		return newValidationError(KindTimestamp, num, ErrInvalidTimestamp, parent.Time()+1, candidate.Time())
	}
	if limit := v.clock.NowInSeconds() + v.maxFutureSkew; candidate.Time() > limit {
		return newValidationError(KindTimestamp, num, ErrFutureTimestamp, limit, candidate.Time())
	}

	if !v.diff.CheckDifficulty(parent, candidate) {
		allowed := v.diff.allowed(parent, candidate)
		var expected any = allowed
		if len(allowed) == 1 {
			expected = allowed[0]
		}
		return newValidationError(KindDifficulty, num, ErrInvalidDifficulty, expected, candidate.Difficulty())
	}

	return v.validateForkRules(candidate)
}

func (v *Validator) validateForkRules(h *types.HeaderRecord) error {
	num, time := h.Number(), h.Time()
	fork := func(err error) error {
		return newValidationError(KindForkRule, num, err, nil, nil)
	}

	london := v.cfg.IsLondon(num)
	switch {
	case london && !h.HasBaseFee():
		return fork(ErrMissingBaseFee)
	case !london && h.HasBaseFee():
		return fork(ErrUnexpectedBaseFee)
	}

	paris := v.cfg.IsParis(num)
	if paris {
		if h.Difficulty().Sign() != 0 {
			return newValidationError(KindForkRule, num, ErrInvalidPoSDifficulty, 0, h.Difficulty())
		}
		if h.Nonce() != (types.BlockNonce{}) {
			return fork(ErrInvalidPoSNonce)
		}
		if h.HasUncle() {
			return fork(ErrInvalidPoSUncles)
		}
	}

	shanghai := v.cfg.IsShanghai(time)
	switch {
	case shanghai && !h.HasWithdrawalsHash():
		return fork(ErrMissingWithdrawals)
	case !shanghai && h.HasWithdrawalsHash():
		return fork(ErrUnexpectedWithdrawals)
	}

	cancun := v.cfg.IsCancun(time)
	switch {
	case cancun && !h.HasBlobGas():
		return fork(ErrMissingBlobGas)
	case !cancun && h.HasAnyBlobGas():
		return fork(ErrUnexpectedBlobGas)
	case cancun && !h.HasParentBeaconRoot():
		return fork(ErrMissingBeaconRoot)
	case !cancun && h.HasParentBeaconRoot():
		return fork(ErrUnexpectedBeaconRoot)
	}

	sealedExtra := v.cfg.Engine == core.EngineClique && !paris
	if !sealedExtra && h.ExtraLen() > MaxExtraDataBytes {
		return newValidationError(KindForkRule, num, ErrExtraDataTooLong, MaxExtraDataBytes, h.ExtraLen())
	}
	if h.GasUsed() > h.GasLimit() {
		return newValidationError(KindForkRule, num, ErrGasUsedExceedsLimit, h.GasLimit(), h.GasUsed())
	}
	return nil
}
