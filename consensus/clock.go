package consensus

import "time"

// Clock is the trusted time source used for skew bounds and receive gaps.
type Clock interface {
	NowInSeconds() uint64
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) NowInSeconds() uint64 { return uint64(time.Now().Unix()) }

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint64

func (f ClockFunc) NowInSeconds() uint64 { return f() }
