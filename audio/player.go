package audio

import (
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// SampleRate is the device rate. The engine is configured to produce
// samples at this rate; there is no resampling.
const SampleRate = 44100

// BlockSize is the number of frames the device pulls per callback.
const BlockSize = 2048

// Device is an open audio output pulling from a Reader.
type Device interface {
	// SetVolume sets the playback gain, 0 silent to 2 max.
	SetVolume(vol float64)
	Close() error
}

// Opener opens a device that pulls PCM from src at the given volume.
type Opener func(src io.Reader, volume float64) (Device, error)

// DeviceError reports that the audio output could not be opened. The
// session keeps running silently.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string { return "audio device unavailable: " + e.Err.Error() }

func (e *DeviceError) Unwrap() error { return e.Err }

// oto allows one context per process, but only a successful one counts:
// after a failure NewContext may be called again.
var (
	otoMu  sync.Mutex
	otoCtx *oto.Context

	newOtoContext = oto.NewContext
)

func ensureOtoContext() (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoCtx != nil {
		return otoCtx, nil
	}
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}
	ctx, ready, err := newOtoContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	otoCtx = ctx
	return otoCtx, nil
}

// Player plays a PCM stream through oto.
type Player struct {
	player *oto.Player
}

// OpenPlayer is the default Opener. The oto context is created on first
// successful use and shared by every player afterwards. A failed context
// is not cached, so a later call tries again.
func OpenPlayer(src io.Reader, volume float64) (Device, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, &DeviceError{Err: fmt.Errorf("oto context: %w", err)}
	}

	p := ctx.NewPlayer(src)
	p.SetBufferSize(BlockSize * BytesPerFrame)
	// Set before Play to avoid a pop when starting muted.
	p.SetVolume(clampVolume(volume))
	p.Play()
	log.Printf("audio: opened %dHz stereo float32 output", SampleRate)
	return &Player{player: p}, nil
}

// SetVolume clamps vol to [0, 2].
func (p *Player) SetVolume(vol float64) {
	p.player.SetVolume(clampVolume(vol))
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.player.Pause()
	return p.player.Close()
}

func clampVolume(vol float64) float64 {
	switch {
	case math.IsNaN(vol), vol < 0:
		return 0
	case vol > 2:
		return 2
	}
	return vol
}
