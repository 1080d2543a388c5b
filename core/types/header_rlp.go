package types

import (
	"fmt"

	"github.com/eth2030/eclipsemonitor/rlp"
)

// EncodeRLP returns the RLP encoding of the header in Yellow Paper field order:
// [ParentHash, UncleHash, Coinbase, Root, TxHash, ReceiptHash, Bloom,
//
//	Difficulty, Number, GasLimit, GasUsed, Time, Extra, MixDigest, Nonce,
//	BaseFee, WithdrawalsHash, BlobGasUsed, ExcessBlobGas, ParentBeaconRoot, RequestsHash]
//
// Optional fields are appended only if non-nil.
func (h *Header) EncodeRLP() ([]byte, error) {
	if h.Difficulty != nil && h.Difficulty.Sign() < 0 {
		return nil, rlp.ErrValueTooLarge
	}
	items := [][]byte{
		rlp.EncodeString(h.ParentHash[:]),
		rlp.EncodeString(h.UncleHash[:]),
		rlp.EncodeString(h.Coinbase[:]),
		rlp.EncodeString(h.Root[:]),
		rlp.EncodeString(h.TxHash[:]),
		rlp.EncodeString(h.ReceiptHash[:]),
		rlp.EncodeString(h.Bloom[:]),
		rlp.EncodeBigInt(h.Difficulty),
		rlp.EncodeBigInt(h.Number),
		rlp.EncodeUint64(h.GasLimit),
		rlp.EncodeUint64(h.GasUsed),
		rlp.EncodeUint64(h.Time),
		rlp.EncodeString(h.Extra),
		rlp.EncodeString(h.MixDigest[:]),
		rlp.EncodeString(h.Nonce[:]),
	}

	if h.BaseFee != nil {
		items = append(items, rlp.EncodeBigInt(h.BaseFee))
	}
	if h.WithdrawalsHash != nil {
		items = append(items, rlp.EncodeString(h.WithdrawalsHash[:]))
	}
	if h.BlobGasUsed != nil {
		items = append(items, rlp.EncodeUint64(*h.BlobGasUsed))
	}
	if h.ExcessBlobGas != nil {
		items = append(items, rlp.EncodeUint64(*h.ExcessBlobGas))
	}
	if h.ParentBeaconRoot != nil {
		items = append(items, rlp.EncodeString(h.ParentBeaconRoot[:]))
	}
	if h.RequestsHash != nil {
		items = append(items, rlp.EncodeString(h.RequestsHash[:]))
	}
	return rlp.EncodeList(items...), nil
}

// DecodeHeaderRLP decodes an RLP-encoded header. Fixed-size fields must have
// their exact length and the input must hold nothing after the header list.
func DecodeHeaderRLP(data []byte) (*Header, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}

	h := new(Header)
	var err error
	if err := decodeFixed(s, h.ParentHash[:], "parentHash"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.UncleHash[:], "sha3Uncles"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.Coinbase[:], "miner"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.Root[:], "stateRoot"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.TxHash[:], "transactionsRoot"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.ReceiptHash[:], "receiptsRoot"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.Bloom[:], "logsBloom"); err != nil {
		return nil, err
	}
	if h.Difficulty, err = s.BigInt(); err != nil {
		return nil, fmt.Errorf("difficulty: %w", err)
	}
	if h.Number, err = s.BigInt(); err != nil {
		return nil, fmt.Errorf("number: %w", err)
	}
	if h.GasLimit, err = s.Uint64(); err != nil {
		return nil, fmt.Errorf("gasLimit: %w", err)
	}
	if h.GasUsed, err = s.Uint64(); err != nil {
		return nil, fmt.Errorf("gasUsed: %w", err)
	}
	if h.Time, err = s.Uint64(); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	extra, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("extraData: %w", err)
	}
	h.Extra = append([]byte(nil), extra...)
	if err := decodeFixed(s, h.MixDigest[:], "mixHash"); err != nil {
		return nil, err
	}
	if err := decodeFixed(s, h.Nonce[:], "nonce"); err != nil {
		return nil, err
	}

	// Optional fields: read each in sequence until the list ends.
	if !s.AtListEnd() {
		if h.BaseFee, err = s.BigInt(); err != nil {
			return nil, fmt.Errorf("baseFeePerGas: %w", err)
		}
	}
	if !s.AtListEnd() {
		h.WithdrawalsHash = new(Hash)
		if err := decodeFixed(s, h.WithdrawalsHash[:], "withdrawalsRoot"); err != nil {
			return nil, err
		}
	}
	if !s.AtListEnd() {
		v, err := s.Uint64()
		if err != nil {
			return nil, fmt.Errorf("blobGasUsed: %w", err)
		}
		h.BlobGasUsed = &v
	}
	if !s.AtListEnd() {
		v, err := s.Uint64()
		if err != nil {
			return nil, fmt.Errorf("excessBlobGas: %w", err)
		}
		h.ExcessBlobGas = &v
	}
	if !s.AtListEnd() {
		h.ParentBeaconRoot = new(Hash)
		if err := decodeFixed(s, h.ParentBeaconRoot[:], "parentBeaconBlockRoot"); err != nil {
			return nil, err
		}
	}
	if !s.AtListEnd() {
		h.RequestsHash = new(Hash)
		if err := decodeFixed(s, h.RequestsHash[:], "requestsHash"); err != nil {
			return nil, err
		}
	}

	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if err := s.Done(); err != nil {
		return nil, err
	}
	return h, nil
}

// decodeFixed reads an RLP string into dst, which must be filled exactly.
func decodeFixed(s *rlp.Stream, dst []byte, field string) error {
	b, err := s.Bytes()
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: %s has %d bytes, want %d", ErrFieldLength, field, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
