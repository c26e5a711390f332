// Package audio carries emulator samples from the frame-stepping side of
// the host to the audio device, which pulls on its own clock.
package audio

import (
	"math"
	"sync/atomic"
)

// DefaultCapacity is the ring size in stereo samples, about 370ms at 44.1kHz.
const DefaultCapacity = 16384

// RingBuffer is a single-producer single-consumer queue of stereo float32
// samples. The producer never blocks: when the ring fills, the oldest
// unread sample is dropped. The consumer never blocks: reading an empty
// ring yields silence.
//
// Each slot holds a left/right pair packed into one atomic word. The read
// and write positions are monotonically increasing counters, reduced
// modulo the capacity only to index a slot, so a consumer that stalls
// while the producer laps it can never commit a stale read. There is no
// separate full flag: one slot always stays unused and at most
// Capacity()-1 samples are buffered.
type RingBuffer struct {
	slots    []atomic.Uint64
	size     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// NewRingBuffer creates a ring holding capacity slots. Capacities below 2
// are raised to 2.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer{
		slots: make([]atomic.Uint64, capacity),
		size:  uint64(capacity),
	}
}

func pack(left, right float32) uint64 {
	return uint64(math.Float32bits(left))<<32 | uint64(math.Float32bits(right))
}

func unpack(v uint64) (left, right float32) {
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

// Capacity returns the number of slots.
func (r *RingBuffer) Capacity() int { return int(r.size) }

// Push appends one stereo sample. Producer side only.
func (r *RingBuffer) Push(left, right float32) {
	w := r.writePos.Load()
	r.slots[w%r.size].Store(pack(left, right))

	next := w + 1
	// Drop the oldest sample before publishing the new write position so
	// the consumer never sees the ring as empty while it is full.
	if next >= r.size {
		oldest := next - r.size
		r.readPos.CompareAndSwap(oldest, oldest+1)
	}
	r.writePos.Store(next)
}

// Pull fills left and right with up to min(len(left), len(right)) samples.
// Slots past the end of the buffered data are filled with silence. It
// returns the number of real samples delivered. Consumer side only.
func (r *RingBuffer) Pull(left, right []float32) int {
	n := min(len(left), len(right))
	got := 0
	for i := 0; i < n; i++ {
		l, rt, ok := r.pop()
		if !ok {
			clear(left[i:n])
			clear(right[i:n])
			break
		}
		left[i], right[i] = l, rt
		got++
	}
	return got
}

func (r *RingBuffer) pop() (left, right float32, ok bool) {
	for {
		rd := r.readPos.Load()
		// rd > w only while Reset is rewinding the positions.
		if rd >= r.writePos.Load() {
			return 0, 0, false
		}
		v := r.slots[rd%r.size].Load()
		// Loses the race only when the producer just dropped this slot.
		if r.readPos.CompareAndSwap(rd, rd+1) {
			left, right = unpack(v)
			return left, right, true
		}
	}
}

// Buffered returns the number of unread samples. The value is a snapshot
// and may be stale by the time it is used.
func (r *RingBuffer) Buffered() int {
	w, rd := r.writePos.Load(), r.readPos.Load()
	if rd > w {
		return 0
	}
	return int(w - rd)
}

// Positions returns the write and read slot indices, each in
// [0, Capacity()).
func (r *RingBuffer) Positions() (write, read int) {
	return int(r.writePos.Load() % r.size), int(r.readPos.Load() % r.size)
}

// Reset zeroes every slot and both positions. It belongs to the producer
// side and must not run concurrently with Push. A concurrent Pull sees an
// empty ring, or at worst one sample that was already buffered.
func (r *RingBuffer) Reset() {
	r.writePos.Store(0)
	r.readPos.Store(0)
	for i := range r.slots {
		r.slots[i].Store(0)
	}
}
