package node

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// RandomSource fills buffers with random bytes.
type RandomSource interface {
	FillRandomBytes(b []byte) error
}

// CryptoRandom reads from crypto/rand.
type CryptoRandom struct{}

func (CryptoRandom) FillRandomBytes(b []byte) error {
	_, err := rand.Read(b)
	return err
}

// Jitter returns a function drawing a duration uniformly from [0, d). A
// failing source yields no jitter.
func Jitter(rs RandomSource) func(d time.Duration) time.Duration {
	if rs == nil {
		rs = CryptoRandom{}
	}
	return func(d time.Duration) time.Duration {
		if d <= 0 {
			return 0
		}
		var b [8]byte
		if err := rs.FillRandomBytes(b[:]); err != nil {
			return 0
		}
		return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(d))
	}
}
