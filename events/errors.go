package events

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eth2030/eclipsemonitor/core/types"
)

var (
	ErrIntegrity       = errors.New("events: receipts root mismatch")
	ErrListener        = errors.New("events: listener failed")
	ErrHostUnavailable = errors.New("host unavailable")
	ErrListenerPanic   = errors.New("events: listener panicked")
	ErrNilCallback     = errors.New("events: nil callback")
	ErrTooManyTopics   = errors.New("events: too many topics")
)

// IntegrityError reports receipts whose recomputed root differs from the
// root declared by the validated header. No callback runs for such a block.
type IntegrityError struct {
	Number   uint64
	Declared types.Hash
	Computed types.Hash
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("block %d: %v: header %s, receipts %s", e.Number, ErrIntegrity, e.Declared.Hex(), e.Computed.Hex())
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// ListenerFailure is one failed callback invocation.
type ListenerFailure struct {
	ID       ListenerID
	LogIndex uint
	Err      error
}

// ListenerError collects the callbacks that failed while processing one
// block. Each failed listener has already been cancelled.
type ListenerError struct {
	Number   uint64
	Failures []ListenerFailure
}

func (e *ListenerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "block %d: %d listener(s) failed", e.Number, len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; listener %d at log %d: %v", f.ID, f.LogIndex, f.Err)
	}
	return b.String()
}

func (e *ListenerError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrListener)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// HostUnavailableError wraps a transport failure talking to the host. It is
// recoverable: the caller retries with backoff.
type HostUnavailableError struct {
	Op  string
	Err error
}

func (e *HostUnavailableError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrHostUnavailable, e.Op, e.Err)
}

func (e *HostUnavailableError) Unwrap() []error { return []error{ErrHostUnavailable, e.Err} }
