package consensus

import (
	"errors"
	"fmt"
)

// Header validation errors.
var (
	ErrInvalidParentHash     = errors.New("header: parent hash mismatch")
	ErrInvalidNumber         = errors.New("header: block number is not parent+1")
	ErrInvalidTimestamp      = errors.New("header: timestamp not after parent")
	ErrFutureTimestamp       = errors.New("header: timestamp too far in the future")
	ErrInvalidDifficulty     = errors.New("header: difficulty mismatch")
	ErrMissingBaseFee        = errors.New("header: missing base fee after london")
	ErrUnexpectedBaseFee     = errors.New("header: base fee before london")
	ErrInvalidPoSDifficulty  = errors.New("header: non-zero difficulty after the merge")
	ErrInvalidPoSNonce       = errors.New("header: non-zero nonce after the merge")
	ErrInvalidPoSUncles      = errors.New("header: uncles after the merge")
	ErrMissingWithdrawals    = errors.New("header: missing withdrawals root after shanghai")
	ErrUnexpectedWithdrawals = errors.New("header: withdrawals root before shanghai")
	ErrMissingBlobGas        = errors.New("header: missing blob gas fields after cancun")
	ErrUnexpectedBlobGas     = errors.New("header: blob gas fields before cancun")
	ErrMissingBeaconRoot     = errors.New("header: missing parent beacon root after cancun")
	ErrUnexpectedBeaconRoot  = errors.New("header: parent beacon root before cancun")
	ErrExtraDataTooLong      = errors.New("header: extra data exceeds 32 bytes")
	ErrGasUsedExceedsLimit   = errors.New("header: gas used exceeds gas limit")
	ErrDifficultyBelowFloor  = errors.New("header: difficulty below checkpoint floor")
	ErrStaleHeader           = errors.New("header: received too long after parent")
	ErrNilHeader             = errors.New("header: header is nil")
)

// ErrorKind groups validation failures by the check that caught them.
type ErrorKind uint8

const (
	KindLinkage ErrorKind = iota + 1
	KindNumber
	KindTimestamp
	KindDifficulty
	KindForkRule
	KindFloor
	KindStale
)

func (k ErrorKind) String() string {
	switch k {
	case KindLinkage:
		return "linkage"
	case KindNumber:
		return "number"
	case KindTimestamp:
		return "timestamp"
	case KindDifficulty:
		return "difficulty"
	case KindForkRule:
		return "fork-rule"
	case KindFloor:
		return "floor"
	case KindStale:
		return "stale"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ValidationError reports a header that failed a consensus check. It unwraps
// to one of the Err* sentinels above.
type ValidationError struct {
	Kind     ErrorKind
	Number   uint64
	Expected any
	Actual   any
	Err      error
}

func newValidationError(kind ErrorKind, number uint64, err error, expected, actual any) *ValidationError {
	return &ValidationError{Kind: kind, Number: number, Expected: expected, Actual: actual, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Expected == nil && e.Actual == nil {
		return fmt.Sprintf("block %d: %v", e.Number, e.Err)
	}
	return fmt.Sprintf("block %d: %v: want %v, got %v", e.Number, e.Err, e.Expected, e.Actual)
}

func (e *ValidationError) Unwrap() error { return e.Err }
