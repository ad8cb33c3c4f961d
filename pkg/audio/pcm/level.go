package pcm

import (
	"math"
	"sync/atomic"
)

// AtomicFloat32 is a float32 that can be read and written concurrently.
// The zero value is 0.
type AtomicFloat32 struct {
	bits atomic.Uint32
}

// Load returns the stored value.
func (a *AtomicFloat32) Load() float32 {
	return math.Float32frombits(a.bits.Load())
}

// Store sets the value.
func (a *AtomicFloat32) Store(v float32) {
	a.bits.Store(math.Float32bits(v))
}
