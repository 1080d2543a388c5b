package events

import (
	"context"
	"fmt"

	"github.com/eth2030/eclipsemonitor/core/types"
	"github.com/eth2030/eclipsemonitor/trie"
)

// ReceiptsProvider fetches the consensus-encoded receipts of a block from
// the host, one entry per transaction in block order.
type ReceiptsProvider interface {
	ReceiptsByNumber(ctx context.Context, number uint64) ([][]byte, error)
}

// ReceiptsProviderFunc adapts a function to ReceiptsProvider.
type ReceiptsProviderFunc func(ctx context.Context, number uint64) ([][]byte, error)

func (f ReceiptsProviderFunc) ReceiptsByNumber(ctx context.Context, number uint64) ([][]byte, error) {
	return f(ctx, number)
}

// ReceiptsView is the decoded, untrusted receipts of one block together with
// the root recomputed from the raw bytes. It is only trustworthy once Root
// has been compared with the header.
type ReceiptsView struct {
	Receipts []*types.Receipt
	Root     types.Hash
	Logs     []*types.Log
}

// NewReceiptsView decodes raw and recomputes the receipts root. Logs carry
// their block-wide index and the block context of hdr.
func NewReceiptsView(hdr *types.HeaderRecord, raw [][]byte) (*ReceiptsView, error) {
	receipts := make([]*types.Receipt, len(raw))
	for i, enc := range raw {
		r, err := types.DecodeReceiptRLP(enc)
		if err != nil {
			return nil, &types.ParseError{What: "receipt", Err: fmt.Errorf("index %d: %w", i, err)}
		}
		receipts[i] = r
	}
	root, err := trie.DeriveListRoot(raw)
	if err != nil {
		return nil, &types.ParseError{What: "receipts", Err: err}
	}
	types.DeriveLogFields(receipts, hdr.Hash(), hdr.Number())

	var logs []*types.Log
	for _, r := range receipts {
		logs = append(logs, r.Logs...)
	}
	return &ReceiptsView{Receipts: receipts, Root: root, Logs: logs}, nil
}

// Verify returns an *IntegrityError unless the recomputed root equals the
// receipts root hdr declares.
func (v *ReceiptsView) Verify(hdr *types.HeaderRecord) error {
	if v.Root != hdr.ReceiptsRoot() {
		return &IntegrityError{Number: hdr.Number(), Declared: hdr.ReceiptsRoot(), Computed: v.Root}
	}
	return nil
}
