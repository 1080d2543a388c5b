package types

import (
	"errors"
	"fmt"
)

var (
	ErrFieldLength    = errors.New("types: wrong field length")
	ErrNumberOverflow = errors.New("types: block number exceeds 64 bits")
	ErrEmptyInput     = errors.New("types: empty input")
)

// ParseError reports malformed host data. What names the structure being
// decoded ("header", "receipt", "receipts").
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
