package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list is encountered where a string was expected.
	ErrExpectedString = errors.New("rlp: expected string")

	// ErrExpectedList is returned when a string is encountered where a list was expected.
	ErrExpectedList = errors.New("rlp: expected list")

	// ErrCanonSize is returned when a single byte below 0x80 is wrapped in a string header.
	ErrCanonSize = errors.New("rlp: non-canonical size information")

	// ErrEOL is returned when a list is closed before all of its items were read.
	ErrEOL = errors.New("rlp: end of list")

	// ErrCanonInt is returned when an integer or length carries leading zeros.
	ErrCanonInt = errors.New("rlp: non-canonical integer encoding")

	// ErrNonCanonicalSize is returned when a long-form size could have used the short form.
	ErrNonCanonicalSize = errors.New("rlp: non-canonical size")

	// ErrUint64Range is returned when a decoded integer exceeds uint64 range.
	ErrUint64Range = errors.New("rlp: uint64 overflow")

	// ErrValueTooLarge is returned when a value is too large to encode.
	ErrValueTooLarge = errors.New("rlp: value too large")

	// ErrMoreThanOneValue is returned when input has bytes after the top-level value.
	ErrMoreThanOneValue = errors.New("rlp: input contains more than one value")
)
