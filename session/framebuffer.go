package session

import (
	"sync"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
)

// SharedFramebuffer holds the latest frame as RGBA bytes. The engine
// writes it from the tick path; the renderer reads it from Draw. Reads
// copy into a separate buffer so the caller can use the pixels without
// holding the lock.
type SharedFramebuffer struct {
	mu          sync.Mutex
	width       int
	height      int
	writePixels []byte
	readPixels  []byte
	frames      uint64
}

// NewSharedFramebuffer allocates a width x height RGBA framebuffer,
// initially black.
func NewSharedFramebuffer(width, height int) *SharedFramebuffer {
	size := width * height * 4
	fb := &SharedFramebuffer{
		width:       width,
		height:      height,
		writePixels: make([]byte, size),
		readPixels:  make([]byte, size),
	}
	for i := 3; i < size; i += 4 {
		fb.writePixels[i] = 0xFF
	}
	return fb
}

// Update converts a frame of packed 0xRRGGBB pixels. Extra pixels are
// ignored; a short frame leaves the tail unchanged.
func (sf *SharedFramebuffer) Update(frame []uint32) {
	sf.mu.Lock()
	n := min(len(frame), sf.width*sf.height)
	for i, px := range frame[:n] {
		o := i * 4
		sf.writePixels[o] = byte(px >> 16)
		sf.writePixels[o+1] = byte(px >> 8)
		sf.writePixels[o+2] = byte(px)
		sf.writePixels[o+3] = 0xFF
	}
	sf.frames++
	sf.mu.Unlock()
}

// Read returns the latest frame. The slice is reused by the next Read.
func (sf *SharedFramebuffer) Read() []byte {
	sf.mu.Lock()
	copy(sf.readPixels, sf.writePixels)
	sf.mu.Unlock()
	return sf.readPixels
}

// Snapshot returns a copy of the latest frame that the caller owns.
func (sf *SharedFramebuffer) Snapshot() []byte {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return append([]byte(nil), sf.writePixels...)
}

// Frames returns the number of frames received.
func (sf *SharedFramebuffer) Frames() uint64 {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.frames
}

// Size returns the frame dimensions in pixels.
func (sf *SharedFramebuffer) Size() (width, height int) {
	return sf.width, sf.height
}

func newNESFramebuffer() *SharedFramebuffer {
	return NewSharedFramebuffer(emucore.ScreenWidth, emucore.ScreenHeight)
}
