package trie

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"

	"github.com/eth2030/eclipsemonitor/core/types"
)

func gethReceipts(n int) gethtypes.Receipts {
	receipts := make(gethtypes.Receipts, n)
	for i := range receipts {
		r := &gethtypes.Receipt{
			Status:            gethtypes.ReceiptStatusSuccessful,
			CumulativeGasUsed: uint64(21000 * (i + 1)),
		}
		if i%3 == 1 {
			r.Type = gethtypes.DynamicFeeTxType
		}
		if i%4 == 2 {
			r.Status = gethtypes.ReceiptStatusFailed
		}
		if i%2 == 0 {
			r.Logs = []*gethtypes.Log{{
				Address: common.BigToAddress(big.NewInt(int64(i + 1))),
				Topics:  []common.Hash{common.BigToHash(big.NewInt(int64(i))), {0xdd}},
				Data:    []byte{byte(i), 0xab},
			}}
		}
		r.Bloom[i%256] = 0x80
		receipts[i] = r
	}
	return receipts
}

func TestDeriveListRootMatchesGeth(t *testing.T) {
	for _, n := range []int{0, 1, 2, 16, 130, 200} {
		receipts := gethReceipts(n)
		items := make([][]byte, n)
		for i, r := range receipts {
			enc, err := r.MarshalBinary()
			if err != nil {
				t.Fatalf("n=%d: marshal receipt %d: %v", n, i, err)
			}
			items[i] = enc
		}
		got, err := DeriveListRoot(items)
		if err != nil {
			t.Fatalf("n=%d: DeriveListRoot: %v", n, err)
		}
		want := gethtypes.DeriveSha(receipts, gethtrie.NewStackTrie(nil))
		if got != types.Hash(want) {
			t.Fatalf("n=%d: root = %s, want %s", n, got.Hex(), want.Hex())
		}
	}
}

func TestDeriveListRootEmpty(t *testing.T) {
	got, err := DeriveListRoot(nil)
	if err != nil {
		t.Fatalf("DeriveListRoot(nil): %v", err)
	}
	if got != types.EmptyRootHash {
		t.Fatalf("root = %s, want empty root", got.Hex())
	}
}

func TestDeriveListRootRejectsEmptyItem(t *testing.T) {
	if _, err := DeriveListRoot([][]byte{{0x01}, {}}); err == nil {
		t.Fatal("expected error for empty item")
	}
}
