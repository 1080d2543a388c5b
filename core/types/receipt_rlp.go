package types

import (
	"errors"
	"fmt"

	"github.com/eth2030/eclipsemonitor/rlp"
)

var errUnknownReceiptType = errors.New("types: unknown receipt type")

// EncodeRLP returns the consensus encoding of the receipt:
// [Status|PostState, CumulativeGasUsed, Bloom, Logs].
// For typed receipts (Type > 0), the encoding is prefixed with the type byte.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	logs := make([][]byte, 0, len(r.Logs))
	for _, log := range r.Logs {
		logs = append(logs, encodeLog(log))
	}

	var statusEnc []byte
	if r.PostState != nil {
		statusEnc = rlp.EncodeString(r.PostState)
	} else if r.Status == ReceiptStatusSuccessful {
		statusEnc = []byte{0x01}
	} else {
		statusEnc = []byte{0x80}
	}

	encoded := rlp.EncodeList(
		statusEnc,
		rlp.EncodeUint64(r.CumulativeGasUsed),
		rlp.EncodeString(r.Bloom[:]),
		rlp.EncodeList(logs...),
	)
	if r.Type != LegacyTxType {
		return append([]byte{r.Type}, encoded...), nil
	}
	return encoded, nil
}

// encodeLog RLP-encodes a single log as [Address, [Topic1, Topic2, ...], Data].
func encodeLog(l *Log) []byte {
	topics := make([][]byte, 0, len(l.Topics))
	for _, t := range l.Topics {
		topics = append(topics, rlp.EncodeString(t[:]))
	}
	return rlp.EncodeList(
		rlp.EncodeString(l.Address[:]),
		rlp.EncodeList(topics...),
		rlp.EncodeString(l.Data),
	)
}

// DecodeReceiptRLP decodes one receipt in its consensus encoding. A leading
// byte in [0x00, 0x7f] marks an EIP-2718 typed receipt.
func DecodeReceiptRLP(data []byte) (*Receipt, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	r := new(Receipt)
	if data[0] <= 0x7f {
		if data[0] == LegacyTxType || data[0] > SetCodeTxType {
			return nil, fmt.Errorf("%w: 0x%02x", errUnknownReceiptType, data[0])
		}
		r.Type = data[0]
		data = data[1:]
	}

	s := rlp.NewStreamFromBytes(data)
	if _, err := s.List(); err != nil {
		return nil, err
	}

	status, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	switch {
	case len(status) == HashLength:
		r.PostState = append([]byte(nil), status...)
	case len(status) == 0:
		r.Status = ReceiptStatusFailed
	case len(status) == 1 && status[0] == 0x01:
		r.Status = ReceiptStatusSuccessful
	default:
		return nil, fmt.Errorf("%w: status has %d bytes", ErrFieldLength, len(status))
	}

	if r.CumulativeGasUsed, err = s.Uint64(); err != nil {
		return nil, fmt.Errorf("cumulativeGasUsed: %w", err)
	}
	if err := decodeFixed(s, r.Bloom[:], "logsBloom"); err != nil {
		return nil, err
	}

	if _, err := s.List(); err != nil {
		return nil, fmt.Errorf("logs: %w", err)
	}
	for !s.AtListEnd() {
		log, err := decodeLog(s)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", len(r.Logs), err)
		}
		r.Logs = append(r.Logs, log)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if err := s.Done(); err != nil {
		return nil, err
	}
	return r, nil
}

// decodeLog decodes a single log from the stream.
func decodeLog(s *rlp.Stream) (*Log, error) {
	if _, err := s.List(); err != nil {
		return nil, err
	}

	l := new(Log)
	if err := decodeFixed(s, l.Address[:], "address"); err != nil {
		return nil, err
	}

	if _, err := s.List(); err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	for !s.AtListEnd() {
		var topic Hash
		if err := decodeFixed(s, topic[:], "topic"); err != nil {
			return nil, err
		}
		l.Topics = append(l.Topics, topic)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if len(l.Topics) > MaxTopicsPerLog {
		return nil, fmt.Errorf("%w: %d topics", ErrFieldLength, len(l.Topics))
	}

	data, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	l.Data = append([]byte(nil), data...)

	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return l, nil
}
