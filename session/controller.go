// Package session runs one loaded ROM: it wires the engine to the frame
// pacer, the audio ring and device, the input router, and the snapshot
// store, and exposes the command surface a host drives.
package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
	"github.com/JuanchoGithub/TruchiNES/audio"
	"github.com/JuanchoGithub/TruchiNES/input"
	"github.com/JuanchoGithub/TruchiNES/pacer"
	"github.com/JuanchoGithub/TruchiNES/snapshot"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("session closed")

// Options configures a session. Zero values select defaults.
type Options struct {
	Region          emucore.Region
	Speed           float64
	Volume          float64
	Muted           bool
	MaxDelta        time.Duration
	MaxStepsPerTick int
	RingCapacity    int

	// Palette is handed to engines implementing emucore.PaletteSetter.
	Palette string

	// Bindings maps keys, pad buttons and touch zones. nil selects
	// input.DefaultBindings.
	Bindings *input.Bindings

	// Snapshots holds the save state slot. nil keeps it in memory.
	Snapshots snapshot.KV

	// OpenAudio opens the output device. nil selects audio.OpenPlayer.
	OpenAudio audio.Opener

	// OnFault is called once, without the session lock held, when the
	// engine fails. It runs on the tick source's goroutine and must not
	// call Close.
	OnFault func(error)
}

// Controller owns a running session. Ticks and commands are serialized
// by one lock, so the engine never sees concurrent calls.
type Controller struct {
	rom  []byte
	opts Options

	mu     sync.Mutex
	engine emucore.Engine
	pacer  *pacer.FramePacer
	router *input.Router
	store  *snapshot.Store
	closed bool

	ring  *audio.RingBuffer
	frame *SharedFramebuffer

	audioMu     sync.Mutex
	openAudio   audio.Opener
	device      audio.Device
	volume      float64
	muted       bool
	audioClosed bool

	ticks       pacer.TickSource
	cancelTicks func()
	factory     emucore.EngineFactory

	// fault is set by the pacer during a tick and delivered to
	// opts.OnFault once the lock is released.
	fault error
}

// Start creates an engine, loads rom into it and begins pacing on ticks.
// A ROM the engine rejects is returned as an *emucore.EngineFault. Audio
// failures are logged and do not stop the session.
func Start(factory emucore.EngineFactory, rom []byte, ticks pacer.TickSource, opts Options) (*Controller, error) {
	engine, err := factory.CreateEngine(audio.SampleRate)
	if err != nil {
		return nil, emucore.Fault("create", err)
	}

	if opts.RingCapacity <= 0 {
		opts.RingCapacity = audio.DefaultCapacity
	}
	bindings := input.DefaultBindings()
	if opts.Bindings != nil {
		bindings = *opts.Bindings
	}
	kv := opts.Snapshots
	if kv == nil {
		kv = snapshot.NewMemoryKV()
	}
	openAudio := opts.OpenAudio
	if openAudio == nil {
		openAudio = audio.OpenPlayer
	}

	c := &Controller{
		rom:       rom,
		opts:      opts,
		engine:    engine,
		ring:      audio.NewRingBuffer(opts.RingCapacity),
		frame:     newNESFramebuffer(),
		store:     snapshot.NewStore(kv, snapshot.DefaultKey),
		openAudio: openAudio,
		volume:    opts.Volume,
		muted:     opts.Muted,
		ticks:     ticks,
		factory:   factory,
	}

	if ps, ok := engine.(emucore.PaletteSetter); ok && opts.Palette != "" {
		if err := ps.SetPalette(opts.Palette); err != nil {
			log.Printf("Failed to set palette %q: %v", opts.Palette, err)
		}
	}
	engine.SetFrameCallback(c.frame.Update)
	engine.SetAudioSampleCallback(c.ring.Push)
	if err := engine.LoadROM(rom); err != nil {
		closeEngine(engine)
		return nil, emucore.Fault("load", err)
	}
	c.ring.Reset()
	c.router = input.NewRouter(engine, emucore.Player1, bindings)
	c.pacer = pacer.New(engine, pacer.Options{
		FrameDuration:   opts.Region.Timing().FrameDuration(),
		MaxDelta:        opts.MaxDelta,
		MaxStepsPerTick: opts.MaxStepsPerTick,
		Speed:           opts.Speed,
		OnFault:         c.recordFault,
	})

	c.ensureAudio()
	c.cancelTicks = ticks.Subscribe(c.tick)
	return c, nil
}

func (c *Controller) tick(now time.Time) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pacer.Tick(now)
	fault := c.fault
	c.fault = nil
	c.mu.Unlock()

	if fault != nil && c.opts.OnFault != nil {
		c.opts.OnFault(fault)
	}
}

// recordFault is the pacer's fault callback. The pacer calls it once,
// from Tick, with c.mu held.
func (c *Controller) recordFault(err error) {
	log.Printf("Emulation stopped: %v", err)
	c.fault = err
}

// ensureAudio opens the output device if it is not open yet. Hosts gate
// audio behind user gestures, so every press and every LoadState retries
// a failed open.
func (c *Controller) ensureAudio() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	if c.device != nil || c.audioClosed {
		return
	}

	dev, err := c.openAudio(audio.NewReader(c.ring), c.effectiveVolume())
	if err != nil {
		var de *audio.DeviceError
		if !errors.As(err, &de) {
			err = &audio.DeviceError{Err: err}
		}
		log.Printf("Failed to init audio: %v", err)
		return
	}
	c.device = dev
}

func (c *Controller) effectiveVolume() float64 {
	if c.muted {
		return 0
	}
	return c.volume
}

func (c *Controller) usable() error {
	if c.closed {
		return ErrClosed
	}
	if f := c.pacer.Fault(); f != nil {
		return f
	}
	return nil
}

// SaveState writes the engine state to the snapshot slot, replacing any
// earlier snapshot. The running session is not affected.
func (c *Controller) SaveState() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	if err := c.store.Save(c.engine); err != nil {
		log.Printf("Save state failed: %v", err)
		return err
	}
	return nil
}

// LoadState restores the snapshot slot. It reports false with a nil
// error when there is no snapshot. On success buffered audio is
// discarded so stale samples do not play over the restored state. On
// failure the session continues from where it was.
func (c *Controller) LoadState() (bool, error) {
	c.ensureAudio()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usable(); err != nil {
		return false, err
	}
	loaded, err := c.store.Load(c.engine)
	if err != nil {
		log.Printf("Load state failed: %v", err)
		return false, err
	}
	if loaded {
		c.ring.Reset()
	}
	return loaded, nil
}

// HasState reports whether the snapshot slot is filled.
func (c *Controller) HasState() (bool, error) {
	return c.store.Exists()
}

// PressButton presses b for player 1.
func (c *Controller) PressButton(b emucore.Button) {
	c.ensureAudio()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.router.Press(b)
	}
}

// ReleaseButton releases b. emucore.ButtonAll releases every button.
func (c *Controller) ReleaseButton(b emucore.Button) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.router.Release(b)
	}
}

// ReleaseAll releases every button.
func (c *Controller) ReleaseAll() {
	c.ReleaseButton(emucore.ButtonAll)
}

// routeNamed runs a named-input lookup under the lock.
func (c *Controller) routeNamed(press bool, fn func(*input.Router) bool) bool {
	if press {
		c.ensureAudio()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	return fn(c.router)
}

// PressKey presses the button bound to a key name. Unbound keys are
// ignored and reported as false.
func (c *Controller) PressKey(name string) bool {
	return c.routeNamed(true, func(r *input.Router) bool { return r.PressKey(name) })
}

func (c *Controller) ReleaseKey(name string) bool {
	return c.routeNamed(false, func(r *input.Router) bool { return r.ReleaseKey(name) })
}

func (c *Controller) PressPad(name string) bool {
	return c.routeNamed(true, func(r *input.Router) bool { return r.PressPad(name) })
}

func (c *Controller) ReleasePad(name string) bool {
	return c.routeNamed(false, func(r *input.Router) bool { return r.ReleasePad(name) })
}

// PressTouch presses the button behind an on-screen control.
func (c *Controller) PressTouch(id string) bool {
	return c.routeNamed(true, func(r *input.Router) bool { return r.PressTouch(id) })
}

func (c *Controller) ReleaseTouch(id string) bool {
	return c.routeNamed(false, func(r *input.Router) bool { return r.ReleaseTouch(id) })
}

// SetSpeed changes the emulation speed multiplier.
func (c *Controller) SetSpeed(s float64) error {
	return c.pacer.SetSpeed(s)
}

func (c *Controller) Speed() float64 { return c.pacer.Speed() }

// SetVolume sets the output gain. It takes effect immediately when a
// device is open and is used for the next open otherwise.
func (c *Controller) SetVolume(v float64) {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.volume = v
	if c.device != nil {
		c.device.SetVolume(c.effectiveVolume())
	}
}

// SetMuted mutes or unmutes output without losing the volume.
func (c *Controller) SetMuted(m bool) {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.muted = m
	if c.device != nil {
		c.device.SetVolume(c.effectiveVolume())
	}
}

// AudioReady reports whether an output device is open.
func (c *Controller) AudioReady() bool {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	return c.device != nil
}

// Pause stops emulation until Resume. Wall time spent paused is not
// caught up afterwards.
func (c *Controller) Pause()  { c.pacer.Pause() }
func (c *Controller) Resume() { c.pacer.Resume() }

func (c *Controller) State() pacer.State { return c.pacer.State() }

// Fault returns the engine failure that froze the session, if any.
func (c *Controller) Fault() error { return c.pacer.Fault() }

// Controls returns the buttons currently held.
func (c *Controller) Controls() input.ControllerState { return c.router.State() }

// Framebuffer returns the frame shared with the renderer.
func (c *Controller) Framebuffer() *SharedFramebuffer { return c.frame }

// Stats returns pacer counters.
func (c *Controller) Stats() pacer.Stats { return c.pacer.Stats() }

// Close ends the session: ticks stop first (waiting for one in flight),
// then the engine is released, audio output is closed, and every button
// is released. Close is idempotent.
func (c *Controller) Close() error {
	c.cancelTicks()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.pacer.Stop()
	c.router.ReleaseAll()
	closeEngine(c.engine)
	c.mu.Unlock()

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.audioClosed = true
	if c.device != nil {
		err := c.device.Close()
		c.device = nil
		if err != nil {
			return fmt.Errorf("close audio: %w", err)
		}
	}
	return nil
}

// Restart tears the session down and starts a fresh one on the same ROM,
// with a new engine, ring buffer and controller state. The snapshot slot
// and settings carry over.
func (c *Controller) Restart() (*Controller, error) {
	c.ReleaseAll()
	opts := c.opts
	opts.Speed = c.Speed()
	c.audioMu.Lock()
	opts.Volume, opts.Muted = c.volume, c.muted
	c.audioMu.Unlock()
	opts.Snapshots = c.store.KV()

	if err := c.Close(); err != nil {
		log.Printf("Restart: %v", err)
	}
	return Start(c.factory, c.rom, c.ticks, opts)
}

func closeEngine(e emucore.Engine) {
	if cl, ok := e.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			log.Printf("Failed to close engine: %v", err)
		}
	}
}
