package emucore

import "time"

// Region represents a console video region.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// String returns the display name of the region.
func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}

// Timing holds the native frame rate and scanline count for a region.
type Timing struct {
	FPS       float64
	Scanlines int
}

// FrameDuration is the wall time of one native frame.
func (t Timing) FrameDuration() time.Duration {
	if t.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / t.FPS)
}

// Timing returns the native timing of the region. Unknown regions get
// NTSC timing.
func (r Region) Timing() Timing {
	if r == RegionPAL {
		return Timing{FPS: 50.007, Scanlines: 312}
	}
	return Timing{FPS: 60.098, Scanlines: 262}
}
