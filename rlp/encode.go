// Package rlp implements the Recursive Length Prefix encoding used for block
// headers, receipts, trie nodes and the serialized monitor security state.
package rlp

import (
	"math/big"
	"reflect"
)

var bigIntType = reflect.TypeOf(big.Int{})

// EncodeToBytes returns the RLP encoding of val.
// val must be a supported type: bool, unsigned integers, *big.Int,
// []byte, [N]byte, string, slice/array, or struct (exported fields only).
func EncodeToBytes(val interface{}) ([]byte, error) {
	return encodeValue(reflect.ValueOf(val))
}

func encodeValue(v reflect.Value) ([]byte, error) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return []byte{0x80}, nil
		}
		v = v.Elem()
	}

	if v.Type() == bigIntType {
		bi := new(big.Int).Set(v.Addr().Interface().(*big.Int))
		if bi.Sign() < 0 {
			return nil, ErrValueTooLarge
		}
		return EncodeBigInt(bi), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return []byte{0x01}, nil
		}
		return []byte{0x80}, nil

	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return EncodeUint64(v.Uint()), nil

	case reflect.String:
		return EncodeString([]byte(v.String())), nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return EncodeString(v.Bytes()), nil
		}
		return encodeList(v)

	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			for i := range b {
				b[i] = byte(v.Index(i).Uint())
			}
			return EncodeString(b), nil
		}
		return encodeList(v)

	case reflect.Struct:
		return encodeStruct(v)

	default:
		return nil, ErrValueTooLarge
	}
}

// EncodeUint64 returns the canonical RLP encoding of u.
func EncodeUint64(u uint64) []byte {
	if u == 0 {
		return []byte{0x80}
	}
	if u < 128 {
		return []byte{byte(u)}
	}
	return EncodeString(PutUint(u))
}

// EncodeBigInt returns the RLP encoding of a non-negative big integer.
func EncodeBigInt(i *big.Int) []byte {
	if i == nil || i.Sign() == 0 {
		return []byte{0x80}
	}
	return EncodeString(i.Bytes())
}

// EncodeString returns the RLP string encoding of data.
func EncodeString(data []byte) []byte {
	n := len(data)
	if n == 1 && data[0] <= 0x7f {
		return []byte{data[0]}
	}
	return append(header(0x80, 0xb7, n), data...)
}

// EncodeList concatenates already-encoded items and wraps them in a list header.
func EncodeList(items ...[]byte) []byte {
	size := 0
	for _, it := range items {
		size += len(it)
	}
	out := header(0xc0, 0xf7, size)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// WrapList wraps an already-encoded RLP payload in a list header.
func WrapList(payload []byte) []byte {
	return append(header(0xc0, 0xf7, len(payload)), payload...)
}

func encodeList(v reflect.Value) ([]byte, error) {
	var payload []byte
	for i := 0; i < v.Len(); i++ {
		enc, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return WrapList(payload), nil
}

func encodeStruct(v reflect.Value) ([]byte, error) {
	var payload []byte
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		enc, err := encodeValue(v.Field(i))
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	return WrapList(payload), nil
}

// header builds a string or list prefix. short is the base for sizes up to
// 55 bytes, long the base for the length-of-length form.
func header(short, long byte, size int) []byte {
	if size <= 55 {
		return []byte{short + byte(size)}
	}
	lenBytes := PutUint(uint64(size))
	return append([]byte{long + byte(len(lenBytes))}, lenBytes...)
}

// PutUint returns u as big-endian bytes with no leading zeros. Zero yields
// an empty slice.
func PutUint(u uint64) []byte {
	var buf [8]byte
	n := 0
	for shift := 56; shift >= 0; shift -= 8 {
		b := byte(u >> uint(shift))
		if n == 0 && b == 0 {
			continue
		}
		buf[n] = b
		n++
	}
	return append([]byte(nil), buf[:n]...)
}
