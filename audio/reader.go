package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// BytesPerFrame is one interleaved stereo float32 sample.
const BytesPerFrame = 8

// Reader exposes the consumer side of a RingBuffer as interleaved stereo
// float32 little-endian PCM, the layout pull-model backends such as oto
// expect. Reads never block and never come up short: when the ring runs
// dry the remainder is silence.
type Reader struct {
	ring        *RingBuffer
	left, right []float32
}

// NewReader returns a Reader draining ring. A Reader is not safe for
// concurrent use; give each device its own.
func NewReader(ring *RingBuffer) *Reader {
	return &Reader{
		ring:  ring,
		left:  make([]float32, BlockSize),
		right: make([]float32, BlockSize),
	}
}

// Read implements io.Reader. Only whole frames are written; a tail
// shorter than BytesPerFrame is left untouched.
func (r *Reader) Read(p []byte) (int, error) {
	frames := len(p) / BytesPerFrame
	if frames == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.ErrShortBuffer
	}
	if frames > len(r.left) {
		r.left = make([]float32, frames)
		r.right = make([]float32, frames)
	}
	left, right := r.left[:frames], r.right[:frames]
	r.ring.Pull(left, right)

	for i := range frames {
		off := i * BytesPerFrame
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(left[i]))
		binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(right[i]))
	}
	return frames * BytesPerFrame, nil
}
