// Package crypto holds the hashing primitives used across the monitor.
package crypto

import (
	"hash"

	"github.com/eth2030/eclipsemonitor/core/types"
	"golang.org/x/crypto/sha3"
)

// NewKeccakState returns a fresh legacy Keccak-256 hasher.
func NewKeccakState() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
