// Package pacer converts an arbitrary refresh cadence into a fixed number
// of emulated frames. Each refresh tick adds the elapsed wall time to an
// accumulator which is drained in whole native-frame steps, so the engine
// runs at its native rate (scaled by a speed multiplier) no matter how
// fast the display refreshes.
package pacer

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
)

var (
	// ErrStopped is returned by Tick once the pacer has stopped.
	ErrStopped = errors.New("pacer stopped")

	// ErrInvalidSpeed is returned for a non-finite or non-positive speed.
	ErrInvalidSpeed = errors.New("invalid speed multiplier")
)

const (
	// DefaultMaxDelta bounds the wall time credited for one tick so a
	// stall (background tab, debugger, sleep) is not replayed as a burst.
	DefaultMaxDelta = 100 * time.Millisecond

	// DefaultMaxStepsPerTick caps the frames run for a single tick.
	DefaultMaxStepsPerTick = 32

	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// Stepper advances the engine by one frame.
type Stepper interface {
	Step() error
}

// StepFunc adapts a function to Stepper.
type StepFunc func() error

func (f StepFunc) Step() error { return f() }

// State is the run state of a pacer.
type State int

const (
	StateRunning State = iota
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FrameClock is the pacer's timing state. After every tick
// 0 <= Accumulator < native/SpeedMultiplier.
type FrameClock struct {
	LastTimestamp   time.Time
	Accumulator     time.Duration
	SpeedMultiplier float64
}

// Options configures a FramePacer. Zero values select the defaults.
type Options struct {
	// FrameDuration is the native frame period.
	FrameDuration   time.Duration
	MaxDelta        time.Duration
	MaxStepsPerTick int
	Speed           float64

	// OnFault is called once, outside the pacer's lock, when a step fails.
	OnFault func(error)
}

// Stats counts pacer activity since creation.
type Stats struct {
	Ticks   uint64
	Steps   uint64
	Dropped uint64 // whole frames discarded by the per-tick cap
}

// FramePacer drives a Stepper from refresh ticks.
type FramePacer struct {
	mu       sync.Mutex
	engine   Stepper
	native   time.Duration
	maxDelta time.Duration
	maxSteps int
	onFault  func(error)

	clock FrameClock
	armed bool // clock.LastTimestamp is valid
	state State
	fault error
	stats Stats
}

// New creates a running pacer. The first tick only records its timestamp.
func New(engine Stepper, opts Options) *FramePacer {
	if opts.FrameDuration <= 0 {
		opts.FrameDuration = emucore.RegionNTSC.Timing().FrameDuration()
	}
	if opts.MaxDelta <= 0 {
		opts.MaxDelta = DefaultMaxDelta
	}
	if opts.MaxStepsPerTick <= 0 {
		opts.MaxStepsPerTick = DefaultMaxStepsPerTick
	}
	speed, err := normalizeSpeed(opts.Speed)
	if err != nil {
		speed = 1
	}
	return &FramePacer{
		engine:   engine,
		native:   opts.FrameDuration,
		maxDelta: opts.MaxDelta,
		maxSteps: opts.MaxStepsPerTick,
		onFault:  opts.OnFault,
		clock:    FrameClock{SpeedMultiplier: speed},
	}
}

func normalizeSpeed(s float64) (float64, error) {
	if s == 0 {
		return 1, nil
	}
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSpeed, s)
	}
	return min(max(s, MinSpeed), MaxSpeed), nil
}

// Tick advances the clock to now and runs every whole frame that has
// become due. It returns the number of frames stepped. Once the engine
// faults, the pacer is stopped and Tick returns ErrStopped.
func (p *FramePacer) Tick(now time.Time) (int, error) {
	steps, err := p.tick(now)
	if err != nil && err != ErrStopped && p.onFault != nil {
		p.onFault(err)
	}
	return steps, err
}

func (p *FramePacer) tick(now time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateStopped:
		return 0, ErrStopped
	case StatePaused:
		return 0, nil
	}
	p.stats.Ticks++

	if !p.armed {
		p.clock.LastTimestamp = now
		p.armed = true
		return 0, nil
	}

	delta := now.Sub(p.clock.LastTimestamp)
	p.clock.LastTimestamp = now
	if delta < 0 {
		delta = 0
	} else if delta > p.maxDelta {
		delta = p.maxDelta
	}
	p.clock.Accumulator += delta

	target := p.target()
	steps := 0
	for p.clock.Accumulator >= target {
		if steps == p.maxSteps {
			p.stats.Dropped += uint64(p.clock.Accumulator / target)
			p.clock.Accumulator %= target
			break
		}
		if err := p.step(); err != nil {
			p.state = StateStopped
			p.fault = err
			log.Printf("pacer: stopped after %d frames: %v", p.stats.Steps, err)
			return steps, err
		}
		p.clock.Accumulator -= target
		steps++
		p.stats.Steps++
	}
	return steps, nil
}

// step runs one engine frame, converting errors and panics to faults.
func (p *FramePacer) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = emucore.Fault("step", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := p.engine.Step(); err != nil {
		var ef *emucore.EngineFault
		if errors.As(err, &ef) {
			return err
		}
		return emucore.Fault("step", err)
	}
	return nil
}

func (p *FramePacer) target() time.Duration {
	t := time.Duration(float64(p.native) / p.clock.SpeedMultiplier)
	if t <= 0 {
		return 1
	}
	return t
}

// SetSpeed changes the speed multiplier. Values are clamped to
// [MinSpeed, MaxSpeed]; zero means 1.
func (p *FramePacer) SetSpeed(s float64) error {
	speed, err := normalizeSpeed(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.clock.SpeedMultiplier = speed
	p.mu.Unlock()
	return nil
}

// Speed returns the current speed multiplier.
func (p *FramePacer) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.SpeedMultiplier
}

// Pause suspends stepping. Ticks while paused are ignored.
func (p *FramePacer) Pause() {
	p.mu.Lock()
	if p.state == StateRunning {
		p.state = StatePaused
	}
	p.mu.Unlock()
}

// Resume restarts a paused pacer. The next tick re-arms the clock, so
// time spent paused is not emulated.
func (p *FramePacer) Resume() {
	p.mu.Lock()
	if p.state == StatePaused {
		p.state = StateRunning
		p.armed = false
	}
	p.mu.Unlock()
}

// Stop halts the pacer permanently.
func (p *FramePacer) Stop() {
	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()
}

func (p *FramePacer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Fault returns the engine fault that stopped the pacer, if any.
func (p *FramePacer) Fault() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fault
}

func (p *FramePacer) Clock() FrameClock {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock
}

func (p *FramePacer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
