package events

import (
	"testing"

	"github.com/eth2030/eclipsemonitor/core/types"
)

func TestReceiptsViewFlattensLogs(t *testing.T) {
	hdr, raw := makeBlock(t, 7,
		makeReceipt(21000, makeLog(contractA, topicX)),
		makeReceipt(42000, makeLog(contractB), makeLog(contractA, topicY)),
	)
	view, err := NewReceiptsView(hdr, raw)
	if err != nil {
		t.Fatalf("NewReceiptsView: %v", err)
	}
	if err := view.Verify(hdr); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(view.Receipts) != 2 || len(view.Logs) != 3 {
		t.Fatalf("receipts=%d logs=%d", len(view.Receipts), len(view.Logs))
	}
	for i, l := range view.Logs {
		if l.Index != uint(i) || l.BlockNumber != 7 || l.BlockHash != hdr.Hash() {
			t.Fatalf("log %d has position %d block %d hash %s", i, l.Index, l.BlockNumber, l.BlockHash.Hex())
		}
	}
	if view.Logs[2].TxIndex != 1 {
		t.Fatalf("tx index = %d, want 1", view.Logs[2].TxIndex)
	}
}

func TestReceiptsViewEmptyBlock(t *testing.T) {
	hdr, raw := makeBlock(t, 8)
	view, err := NewReceiptsView(hdr, raw)
	if err != nil {
		t.Fatalf("NewReceiptsView: %v", err)
	}
	if view.Root != types.EmptyRootHash {
		t.Fatalf("root = %s, want empty root", view.Root.Hex())
	}
	if err := view.Verify(hdr); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
