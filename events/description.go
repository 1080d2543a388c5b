package events

import (
	"fmt"
	"slices"

	"github.com/eth2030/eclipsemonitor/core/types"
)

// ListenerID identifies a registered listener. IDs start at 1 and are never
// reused by a Manager.
type ListenerID uint64

// MatchMode selects how a listener's topics are compared with a log's.
type MatchMode uint8

const (
	// MatchPrefix requires the listener's topics to equal the log's leading
	// topics, position by position.
	MatchPrefix MatchMode = iota
	// MatchSubset requires every listener topic to appear anywhere in the log.
	MatchSubset
	// MatchExact requires the topic lists to be equal.
	MatchExact
)

func (m MatchMode) String() string {
	switch m {
	case MatchPrefix:
		return "prefix"
	case MatchSubset:
		return "subset"
	case MatchExact:
		return "exact"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMatchMode maps a configuration name to a MatchMode. The empty string
// selects MatchPrefix.
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "prefix":
		return MatchPrefix, nil
	case "subset":
		return MatchSubset, nil
	case "exact":
		return MatchExact, nil
	default:
		return 0, fmt.Errorf("events: unknown match mode %q", s)
	}
}

// Callback receives one matching log of a validated block. Returning an
// error cancels the listener.
type Callback func(hdr *types.HeaderRecord, log *types.Log, id ListenerID) error

// Description is what a listener is interested in.
type Description struct {
	Address  types.Address
	Topics   []types.Hash
	Mode     MatchMode
	Callback Callback
}

func (d *Description) validate() error {
	if d.Callback == nil {
		return ErrNilCallback
	}
	if len(d.Topics) > types.MaxTopicsPerLog {
		return fmt.Errorf("%w: %d", ErrTooManyTopics, len(d.Topics))
	}
	return nil
}

// mayMatch reports whether a block with this bloom could contain a matching
// log. It has false positives only.
func (d *Description) mayMatch(bloom types.Bloom) bool {
	if !bloom.Test(d.Address.Bytes()) {
		return false
	}
	for _, topic := range d.Topics {
		if !bloom.Test(topic.Bytes()) {
			return false
		}
	}
	return true
}

// matches reports whether l is a log this listener wants.
func (d *Description) matches(l *types.Log) bool {
	if l.Address != d.Address {
		return false
	}
	switch d.Mode {
	case MatchExact:
		return slices.Equal(l.Topics, d.Topics)
	case MatchSubset:
		for _, want := range d.Topics {
			if !slices.Contains(l.Topics, want) {
				return false
			}
		}
		return true
	default:
		return len(l.Topics) >= len(d.Topics) && slices.Equal(l.Topics[:len(d.Topics)], d.Topics)
	}
}
