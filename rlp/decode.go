package rlp

import (
	"io"
	"math/big"
)

// Kind represents the type of an RLP value.
type Kind int

const (
	Byte   Kind = iota // Single byte in [0x00, 0x7f].
	String             // RLP string (including empty string).
	List               // RLP list.
)

func (k Kind) String() string {
	switch k {
	case Byte:
		return "Byte"
	case String:
		return "String"
	case List:
		return "List"
	default:
		return "Unknown"
	}
}

// Stream reads RLP values sequentially from an in-memory buffer. Lists are
// entered with List and left with ListEnd; while inside a list, reads never
// go past its end.
type Stream struct {
	data  []byte
	pos   int
	stack []int // exclusive end offsets of the open lists
}

// NewStreamFromBytes returns a Stream reading from data. The slice is not
// copied; returned payloads alias it.
func NewStreamFromBytes(data []byte) *Stream {
	return &Stream{data: data}
}

// item describes the next value without consuming it.
type item struct {
	kind    Kind
	start   int // payload start
	end     int // payload end (exclusive)
	hdrSize int
}

func (s *Stream) limit() int {
	if n := len(s.stack); n > 0 {
		return s.stack[n-1]
	}
	return len(s.data)
}

// peek parses the header at the current position and enforces canonical
// size encoding.
func (s *Stream) peek() (item, error) {
	lim := s.limit()
	if s.pos >= lim {
		if len(s.stack) > 0 {
			return item{}, ErrEOL
		}
		return item{}, io.EOF
	}
	prefix := s.data[s.pos]
	switch {
	case prefix <= 0x7f:
		return item{kind: Byte, start: s.pos, end: s.pos + 1}, nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		it := item{kind: String, start: s.pos + 1, end: s.pos + 1 + size, hdrSize: 1}
		if it.end > lim {
			return item{}, io.ErrUnexpectedEOF
		}
		if size == 1 && s.data[it.start] <= 0x7f {
			return item{}, ErrCanonSize
		}
		return it, nil

	case prefix <= 0xbf:
		return s.longItem(String, int(prefix-0xb7), lim)

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		it := item{kind: List, start: s.pos + 1, end: s.pos + 1 + size, hdrSize: 1}
		if it.end > lim {
			return item{}, io.ErrUnexpectedEOF
		}
		return it, nil

	default:
		return s.longItem(List, int(prefix-0xf7), lim)
	}
}

func (s *Stream) longItem(kind Kind, lenOfLen, lim int) (item, error) {
	if s.pos+1+lenOfLen > lim {
		return item{}, io.ErrUnexpectedEOF
	}
	sizeBytes := s.data[s.pos+1 : s.pos+1+lenOfLen]
	if sizeBytes[0] == 0 {
		return item{}, ErrCanonInt
	}
	if lenOfLen > 8 {
		return item{}, ErrUint64Range
	}
	size := readBigEndian(sizeBytes)
	if size <= 55 {
		return item{}, ErrNonCanonicalSize
	}
	start := s.pos + 1 + lenOfLen
	if size > uint64(lim-start) {
		return item{}, io.ErrUnexpectedEOF
	}
	return item{kind: kind, start: start, end: start + int(size), hdrSize: 1 + lenOfLen}, nil
}

// Kind reports the type and payload size of the next value without consuming it.
func (s *Stream) Kind() (Kind, uint64, error) {
	it, err := s.peek()
	if err != nil {
		return 0, 0, err
	}
	return it.kind, uint64(it.end - it.start), nil
}

// Bytes reads a string value and returns its payload.
func (s *Stream) Bytes() ([]byte, error) {
	it, err := s.peek()
	if err != nil {
		return nil, err
	}
	if it.kind == List {
		return nil, ErrExpectedString
	}
	s.pos = it.end
	return s.data[it.start:it.end], nil
}

// Raw reads the next value, string or list, and returns its full encoding
// including the header.
func (s *Stream) Raw() ([]byte, error) {
	it, err := s.peek()
	if err != nil {
		return nil, err
	}
	begin := s.pos
	s.pos = it.end
	return s.data[begin:it.end], nil
}

// List enters the list at the current position and returns its payload size.
func (s *Stream) List() (uint64, error) {
	it, err := s.peek()
	if err != nil {
		return 0, err
	}
	if it.kind != List {
		return 0, ErrExpectedList
	}
	s.stack = append(s.stack, it.end)
	s.pos = it.start
	return uint64(it.end - it.start), nil
}

// ListEnd leaves the innermost list. All of its items must have been read.
func (s *Stream) ListEnd() error {
	n := len(s.stack)
	if n == 0 {
		return ErrExpectedList
	}
	if s.pos != s.stack[n-1] {
		return ErrEOL
	}
	s.stack = s.stack[:n-1]
	return nil
}

// AtListEnd reports whether every item of the innermost list has been read.
func (s *Stream) AtListEnd() bool {
	return s.pos >= s.limit()
}

// Done reports an error if unread bytes follow the top-level value.
func (s *Stream) Done() error {
	if len(s.stack) != 0 {
		return ErrEOL
	}
	if s.pos != len(s.data) {
		return ErrMoreThanOneValue
	}
	return nil
}

// Uint64 reads a canonical unsigned integer of at most eight bytes.
func (s *Stream) Uint64() (uint64, error) {
	b, err := s.Bytes()
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, ErrUint64Range
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, ErrCanonInt
	}
	return readBigEndian(b), nil
}

// BigInt reads a canonical unsigned big integer.
func (s *Stream) BigInt() (*big.Int, error) {
	b, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(big.Int).SetBytes(b), nil
}

// SplitList returns the raw encodings of the elements of the list in b.
// b must hold exactly one list.
func SplitList(b []byte) ([][]byte, error) {
	s := NewStreamFromBytes(b)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	var elems [][]byte
	for !s.AtListEnd() {
		raw, err := s.Raw()
		if err != nil {
			return nil, err
		}
		elems = append(elems, raw)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	if err := s.Done(); err != nil {
		return nil, err
	}
	return elems, nil
}

func readBigEndian(b []byte) uint64 {
	var val uint64
	for _, x := range b {
		val = (val << 8) | uint64(x)
	}
	return val
}
