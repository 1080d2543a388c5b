package consensus

import (
	"math/big"

	"github.com/eth2030/eclipsemonitor/core/types"
)

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// makeRecord encodes h and wraps it, failing the test on error.
func makeRecord(t fataler, h *types.Header) *types.HeaderRecord {
	t.Helper()
	rec, err := types.NewHeaderRecordFromHeader(h)
	if err != nil {
		t.Fatalf("NewHeaderRecordFromHeader: %v", err)
	}
	return rec
}

// powHeader returns a pre-London ethash header at number.
func powHeader(parentHash types.Hash, number, time uint64, diff *big.Int) *types.Header {
	return &types.Header{
		ParentHash:  parentHash,
		UncleHash:   types.EmptyUncleHash,
		Root:        types.Hash{0x01},
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  new(big.Int).Set(diff),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    12_500_000,
		GasUsed:     8_000_000,
		Time:        time,
		Extra:       []byte("miner"),
		Nonce:       types.BlockNonce{0x12, 0x34},
	}
}

// posHeader returns a post-Cancun mainnet header at number.
func posHeader(parentHash types.Hash, number, time uint64) *types.Header {
	zero := uint64(0)
	return &types.Header{
		ParentHash:       parentHash,
		UncleHash:        types.EmptyUncleHash,
		Root:             types.Hash{0x02},
		TxHash:           types.EmptyRootHash,
		ReceiptHash:      types.EmptyRootHash,
		Difficulty:       new(big.Int),
		Number:           new(big.Int).SetUint64(number),
		GasLimit:         30_000_000,
		GasUsed:          12_000_000,
		Time:             time,
		BaseFee:          big.NewInt(7),
		WithdrawalsHash:  &types.EmptyRootHash,
		BlobGasUsed:      &zero,
		ExcessBlobGas:    &zero,
		ParentBeaconRoot: &types.Hash{0x03},
	}
}

// anyParentHash is an arbitrary parent hash for chains that start mid-way.
func anyParentHash() types.Hash { return types.Hash{0xaa, 0xbb} }

func fixedClock(now uint64) Clock {
	return ClockFunc(func() uint64 { return now })
}
