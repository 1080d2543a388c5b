package types

// Receipt status values.
const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Typed receipt envelopes (EIP-2718).
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01
	DynamicFeeTxType = 0x02
	BlobTxType       = 0x03
	SetCodeTxType    = 0x04
)

// Receipt holds the consensus fields of a transaction receipt.
type Receipt struct {
	Type uint8

	// PostState is set instead of Status for pre-Byzantium receipts.
	PostState         []byte
	Status            uint64
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log
}

// NewReceipt creates a new receipt with the given status and cumulative gas.
func NewReceipt(status uint64, cumulativeGasUsed uint64) *Receipt {
	return &Receipt{
		Status:            status,
		CumulativeGasUsed: cumulativeGasUsed,
	}
}

// DeriveLogFields fills the positional fields of every log in receipts:
// block context, transaction index and the block-wide log index.
func DeriveLogFields(receipts []*Receipt, blockHash Hash, blockNumber uint64) {
	var logIndex uint
	for i, receipt := range receipts {
		for _, log := range receipt.Logs {
			log.BlockHash = blockHash
			log.BlockNumber = blockNumber
			log.TxIndex = uint(i)
			log.Index = logIndex
			logIndex++
		}
	}
}
