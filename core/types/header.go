package types

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Header represents an Ethereum block header.
type Header struct {
	ParentHash  Hash
	UncleHash   Hash
	Coinbase    Address
	Root        Hash
	TxHash      Hash
	ReceiptHash Hash
	Bloom       Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   Hash
	Nonce       BlockNonce

	// EIP-1559
	BaseFee *big.Int

	// EIP-4895: Beacon chain push withdrawals
	WithdrawalsHash *Hash

	// EIP-4844: Shard blob transactions
	BlobGasUsed   *uint64
	ExcessBlobGas *uint64

	// EIP-4788: Beacon block root in the EVM
	ParentBeaconRoot *Hash

	// EIP-7685: General purpose execution layer requests
	RequestsHash *Hash
}

// Hash returns the keccak256 hash of the RLP-encoded header. It is computed
// on every call; use HeaderRecord for a memoized view.
func (h *Header) Hash() Hash {
	enc, err := h.EncodeRLP()
	if err != nil {
		return Hash{}
	}
	return keccak(enc)
}

func keccak(data []byte) Hash {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	var out Hash
	d.Sum(out[:0])
	return out
}
