package monitor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/rlp"
)

var ErrInvalidSecState = errors.New("monitor: invalid security state")

// SecState is the persistable summary of what the monitor has verified:
// the trusted first header and the latest checkpoint. CheckpointNumber is the
// minimal big-endian block number, empty before the first checkpoint.
type SecState struct {
	GenesisHash         types.Hash
	CheckpointHash      types.Hash
	CheckpointNumber    []byte
	CheckpointIteration uint64
}

// Clone returns a deep copy.
func (s SecState) Clone() SecState {
	s.CheckpointNumber = bytes.Clone(s.CheckpointNumber)
	return s
}

// Encode returns the RLP list
// [genesisHash, checkpointHash, checkpointNumber, checkpointIteration].
func (s SecState) Encode() []byte {
	return rlp.EncodeList(
		rlp.EncodeString(s.GenesisHash[:]),
		rlp.EncodeString(s.CheckpointHash[:]),
		rlp.EncodeString(s.CheckpointNumber),
		rlp.EncodeUint64(s.CheckpointIteration),
	)
}

// DecodeSecState parses the output of Encode. Hashes must be 32 bytes and
// the number canonical.
func DecodeSecState(b []byte) (SecState, error) {
	var s SecState
	st := rlp.NewStreamFromBytes(b)
	if _, err := st.List(); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSecState, err)
	}
	for _, f := range []struct {
		name string
		dst  []byte
	}{
		{"genesis hash", s.GenesisHash[:]},
		{"checkpoint hash", s.CheckpointHash[:]},
	} {
		v, err := st.Bytes()
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSecState, f.name, err)
		}
		if len(v) != types.HashLength {
			return s, fmt.Errorf("%w: %s has %d bytes", ErrInvalidSecState, f.name, len(v))
		}
		copy(f.dst, v)
	}
	num, err := st.Bytes()
	if err != nil {
		return s, fmt.Errorf("%w: checkpoint number: %v", ErrInvalidSecState, err)
	}
	if len(num) > 0 && num[0] == 0 {
		return s, fmt.Errorf("%w: checkpoint number: %v", ErrInvalidSecState, rlp.ErrCanonInt)
	}
	if len(num) > 0 {
		s.CheckpointNumber = bytes.Clone(num)
	}
	if s.CheckpointIteration, err = st.Uint64(); err != nil {
		return s, fmt.Errorf("%w: checkpoint iteration: %v", ErrInvalidSecState, err)
	}
	if err := st.ListEnd(); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSecState, err)
	}
	if err := st.Done(); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidSecState, err)
	}
	return s, nil
}
