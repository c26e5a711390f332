// Package emucore defines the boundary between the host and an NES
// emulation engine. The engine is opaque: the host steps it one frame at
// a time, feeds it button edges, and receives video frames and audio
// samples through callbacks invoked synchronously from Step.
package emucore

import "fmt"

// FrameFunc receives a completed frame: ScreenWidth*ScreenHeight pixels,
// row-major, each packed as 0xRRGGBB. The slice is only valid for the
// duration of the call.
type FrameFunc func(frame []uint32)

// AudioSampleFunc receives one stereo sample in the range [-1, 1].
type AudioSampleFunc func(left, right float32)

// Engine is the contract every emulation core must satisfy.
type Engine interface {
	// LoadROM parses and maps a cartridge image. A structurally invalid
	// image is an error; the engine is unusable afterwards.
	LoadROM(rom []byte) error

	// Step runs exactly one video frame, invoking the frame callback once
	// and the audio callback once per generated sample.
	Step() error

	// ButtonDown and ButtonUp deliver button edges for a player slot.
	ButtonDown(player int, b Button)
	ButtonUp(player int, b Button)

	// SerializeState captures the complete machine state.
	SerializeState() ([]byte, error)

	// DeserializeState replaces the machine state with a blob produced by
	// SerializeState.
	DeserializeState(data []byte) error

	SetFrameCallback(fn FrameFunc)
	SetAudioSampleCallback(fn AudioSampleFunc)
}

// PaletteSetter is implemented by engines that can switch the colour
// palette used to build frames.
type PaletteSetter interface {
	SetPalette(name string) error
}

// EngineFactory creates engines producing audio at sampleRate.
type EngineFactory interface {
	CreateEngine(sampleRate int) (Engine, error)
}

// EngineFactoryFunc adapts a function to EngineFactory.
type EngineFactoryFunc func(sampleRate int) (Engine, error)

// CreateEngine calls f(sampleRate).
func (f EngineFactoryFunc) CreateEngine(sampleRate int) (Engine, error) {
	return f(sampleRate)
}

// EngineFault reports that the engine failed during an operation. A
// session that sees one is frozen; nothing retries the failed call.
type EngineFault struct {
	Op  string // "load", "step", ...
	Err error
}

func (e *EngineFault) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *EngineFault) Unwrap() error { return e.Err }

// Fault wraps err as an *EngineFault, passing nil through.
func Fault(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineFault{Op: op, Err: err}
}
