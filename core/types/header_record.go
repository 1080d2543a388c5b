package types

import (
	"bytes"
	"math/big"
)

// HeaderRecord is an immutable, parsed view of one block header as received
// from the host. The hash is the Keccak-256 of the received bytes and is
// computed once, at construction.
type HeaderRecord struct {
	header *Header
	raw    []byte
	hash   Hash
	number uint64
}

// NewHeaderRecord decodes raw and derives the hash and block number.
// Malformed input yields a *ParseError.
func NewHeaderRecord(raw []byte) (*HeaderRecord, error) {
	h, err := DecodeHeaderRLP(raw)
	if err != nil {
		return nil, &ParseError{What: "header", Err: err}
	}
	if !h.Number.IsUint64() {
		return nil, &ParseError{What: "header", Err: ErrNumberOverflow}
	}
	return &HeaderRecord{
		header: h,
		raw:    bytes.Clone(raw),
		hash:   keccak(raw),
		number: h.Number.Uint64(),
	}, nil
}

// NewHeaderRecordFromHeader encodes h and wraps the result.
func NewHeaderRecordFromHeader(h *Header) (*HeaderRecord, error) {
	enc, err := h.EncodeRLP()
	if err != nil {
		return nil, &ParseError{What: "header", Err: err}
	}
	return NewHeaderRecord(enc)
}

// Hash returns the memoized header hash.
func (r *HeaderRecord) Hash() Hash { return r.hash }

// Number returns the block number.
func (r *HeaderRecord) Number() uint64 { return r.number }

// NumberBytes returns the block number as minimal big-endian bytes, the same
// representation the header encoding carries.
func (r *HeaderRecord) NumberBytes() []byte { return r.header.Number.Bytes() }

// Raw returns a copy of the encoded header.
func (r *HeaderRecord) Raw() []byte { return bytes.Clone(r.raw) }

func (r *HeaderRecord) ParentHash() Hash   { return r.header.ParentHash }
func (r *HeaderRecord) UncleHash() Hash    { return r.header.UncleHash }
func (r *HeaderRecord) ReceiptsRoot() Hash { return r.header.ReceiptHash }
func (r *HeaderRecord) Bloom() Bloom       { return r.header.Bloom }
func (r *HeaderRecord) Time() uint64       { return r.header.Time }
func (r *HeaderRecord) GasLimit() uint64   { return r.header.GasLimit }
func (r *HeaderRecord) GasUsed() uint64    { return r.header.GasUsed }
func (r *HeaderRecord) Nonce() BlockNonce  { return r.header.Nonce }
func (r *HeaderRecord) ExtraLen() int      { return len(r.header.Extra) }

// Difficulty returns a copy of the declared difficulty.
func (r *HeaderRecord) Difficulty() *big.Int { return new(big.Int).Set(r.header.Difficulty) }

// HasUncle reports whether the block references at least one ommer.
func (r *HeaderRecord) HasUncle() bool { return r.header.UncleHash != EmptyUncleHash }

// HasBaseFee reports whether the EIP-1559 base fee field is present.
func (r *HeaderRecord) HasBaseFee() bool { return r.header.BaseFee != nil }

// HasWithdrawalsHash reports whether the EIP-4895 withdrawals root is present.
func (r *HeaderRecord) HasWithdrawalsHash() bool { return r.header.WithdrawalsHash != nil }

// HasBlobGas reports whether both EIP-4844 blob gas fields are present.
func (r *HeaderRecord) HasBlobGas() bool {
	return r.header.BlobGasUsed != nil && r.header.ExcessBlobGas != nil
}

// HasAnyBlobGas reports whether either EIP-4844 blob gas field is present.
func (r *HeaderRecord) HasAnyBlobGas() bool {
	return r.header.BlobGasUsed != nil || r.header.ExcessBlobGas != nil
}

// HasParentBeaconRoot reports whether the EIP-4788 beacon root is present.
func (r *HeaderRecord) HasParentBeaconRoot() bool { return r.header.ParentBeaconRoot != nil }
