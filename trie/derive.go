package trie

import (
	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/rlp"
)

// DeriveListRoot returns the root of the trie mapping rlp(i) to items[i],
// the construction used for a header's transactions and receipts roots.
// Items are inserted as given; callers pass the consensus encodings.
func DeriveListRoot(items [][]byte) (types.Hash, error) {
	t := New()
	for i, item := range items {
		if err := t.Put(rlp.EncodeUint64(uint64(i)), item); err != nil {
			return types.Hash{}, err
		}
	}
	return t.Hash(), nil
}
