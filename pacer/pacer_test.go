package pacer

import (
	"errors"
	"math"
	"testing"
	"time"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
)

// ntscFrame is 1s / 60.098.
var ntscFrame = emucore.RegionNTSC.Timing().FrameDuration()

type countingEngine struct {
	steps int
	err   error
	panic bool
}

func (e *countingEngine) Step() error {
	if e.panic {
		panic("bad opcode")
	}
	if e.err != nil {
		return e.err
	}
	e.steps++
	return nil
}

// base is an arbitrary monotonic-free origin; deltas are what matter.
var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return base.Add(d) }

func TestTick_FirstTickOnlyArms(t *testing.T) {
	eng := &countingEngine{}
	p := New(eng, Options{})

	steps, err := p.Tick(at(time.Hour))
	if err != nil || steps != 0 || eng.steps != 0 {
		t.Fatalf("first tick: steps=%d engine=%d err=%v", steps, eng.steps, err)
	}
	if got := p.Clock().LastTimestamp; !got.Equal(at(time.Hour)) {
		t.Errorf("LastTimestamp = %v", got)
	}
}

func TestTick_RefreshRates(t *testing.T) {
	tests := []struct {
		name    string
		refresh time.Duration
		ticks   int
		speed   float64
		want    int
	}{
		// 60 ticks at 120Hz is 0.5s of wall time: 30 native frames.
		{"120Hz", time.Second / 120, 60, 1, 30},
		// 60 ticks at 30Hz is 2s: 120 frames.
		{"30Hz", time.Second / 30, 60, 1, 120},
		// 60Hz display for one second at double speed: 120 frames.
		{"60Hz double speed", time.Second / 60, 60, 2, 120},
		{"60Hz half speed", time.Second / 60, 60, 0.5, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &countingEngine{}
			p := New(eng, Options{Speed: tt.speed})
			p.Tick(at(0))
			total := 0
			for i := 1; i <= tt.ticks; i++ {
				n, err := p.Tick(at(time.Duration(i) * tt.refresh))
				if err != nil {
					t.Fatalf("tick %d: %v", i, err)
				}
				total += n
			}
			if diff := total - tt.want; diff < -1 || diff > 1 {
				t.Errorf("stepped %d frames, want %d±1", total, tt.want)
			}
			if total != eng.steps {
				t.Errorf("reported %d steps, engine saw %d", total, eng.steps)
			}
			target := time.Duration(float64(ntscFrame) / tt.speed)
			if acc := p.Clock().Accumulator; acc < 0 || acc >= target {
				t.Errorf("accumulator %v outside [0, %v)", acc, target)
			}
		})
	}
}

func TestTick_ClampsLongDelta(t *testing.T) {
	eng := &countingEngine{}
	p := New(eng, Options{})
	p.Tick(at(0))

	steps, err := p.Tick(at(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	// Only 100ms is credited: floor(100ms / 16.639ms) = 6.
	if steps != 6 {
		t.Errorf("steps = %d, want 6", steps)
	}
	if want := DefaultMaxDelta - 6*ntscFrame; p.Clock().Accumulator != want {
		t.Errorf("accumulator = %v, want %v", p.Clock().Accumulator, want)
	}
}

func TestTick_BackwardsClock(t *testing.T) {
	eng := &countingEngine{}
	p := New(eng, Options{})
	p.Tick(at(time.Second))

	steps, err := p.Tick(at(0))
	if err != nil || steps != 0 {
		t.Fatalf("steps=%d err=%v", steps, err)
	}
	if p.Clock().Accumulator != 0 {
		t.Errorf("accumulator = %v, want 0", p.Clock().Accumulator)
	}
	// The clock continues from the new timestamp.
	if steps, _ := p.Tick(at(ntscFrame)); steps != 1 {
		t.Errorf("steps after recovery = %d, want 1", steps)
	}
}

func TestTick_StepCap(t *testing.T) {
	eng := &countingEngine{}
	p := New(eng, Options{MaxDelta: time.Second, MaxStepsPerTick: 4})
	p.Tick(at(0))

	steps, err := p.Tick(at(10 * ntscFrame))
	if err != nil {
		t.Fatal(err)
	}
	if steps != 4 {
		t.Errorf("steps = %d, want 4", steps)
	}
	if d := p.Stats().Dropped; d != 6 {
		t.Errorf("dropped = %d, want 6", d)
	}
	if acc := p.Clock().Accumulator; acc >= ntscFrame {
		t.Errorf("accumulator %v not reduced below target", acc)
	}
}

func TestTick_EngineError(t *testing.T) {
	cause := errors.New("cpu jammed")
	eng := &countingEngine{err: cause}
	faults := 0
	p := New(eng, Options{OnFault: func(error) { faults++ }})
	p.Tick(at(0))

	_, err := p.Tick(at(3 * ntscFrame))
	var ef *emucore.EngineFault
	if !errors.As(err, &ef) || !errors.Is(err, cause) {
		t.Fatalf("expected engine fault wrapping cause, got %v", err)
	}
	if p.State() != StateStopped {
		t.Errorf("state = %v, want stopped", p.State())
	}
	if !errors.Is(p.Fault(), cause) {
		t.Errorf("Fault() = %v", p.Fault())
	}

	// No retry: later ticks do nothing.
	eng.err = nil
	if steps, err := p.Tick(at(10 * ntscFrame)); steps != 0 || !errors.Is(err, ErrStopped) {
		t.Errorf("after fault: steps=%d err=%v", steps, err)
	}
	if eng.steps != 0 {
		t.Errorf("engine stepped %d times after fault", eng.steps)
	}
	if faults != 1 {
		t.Errorf("OnFault called %d times, want 1", faults)
	}
}

func TestTick_EnginePanic(t *testing.T) {
	p := New(&countingEngine{panic: true}, Options{})
	p.Tick(at(0))

	_, err := p.Tick(at(ntscFrame))
	var ef *emucore.EngineFault
	if !errors.As(err, &ef) || ef.Op != "step" {
		t.Fatalf("expected step fault, got %v", err)
	}
	if p.State() != StateStopped {
		t.Errorf("state = %v, want stopped", p.State())
	}
}

func TestPauseResume(t *testing.T) {
	eng := &countingEngine{}
	p := New(eng, Options{})
	p.Tick(at(0))
	p.Tick(at(ntscFrame))

	p.Pause()
	if steps, err := p.Tick(at(50 * ntscFrame)); steps != 0 || err != nil {
		t.Fatalf("paused tick: steps=%d err=%v", steps, err)
	}
	p.Resume()

	// First tick after resume re-arms; the paused interval is not replayed.
	if steps, _ := p.Tick(at(time.Hour)); steps != 0 {
		t.Errorf("re-arm tick stepped %d", steps)
	}
	if steps, _ := p.Tick(at(time.Hour + ntscFrame)); steps != 1 {
		t.Errorf("steps = %d, want 1", steps)
	}
	if eng.steps != 2 {
		t.Errorf("engine steps = %d, want 2", eng.steps)
	}
}

func TestStop(t *testing.T) {
	p := New(&countingEngine{}, Options{})
	p.Stop()
	p.Resume()
	if p.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", p.State())
	}
	if _, err := p.Tick(at(0)); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

func TestSetSpeed(t *testing.T) {
	tests := []struct {
		in      float64
		want    float64
		wantErr bool
	}{
		{1.5, 1.5, false},
		{0, 1, false},
		{0.1, MinSpeed, false},
		{10, MaxSpeed, false},
		{-1, 0, true},
		{math.NaN(), 0, true},
		{math.Inf(1), 0, true},
	}

	for _, tt := range tests {
		p := New(&countingEngine{}, Options{})
		err := p.SetSpeed(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSpeed) {
				t.Errorf("SetSpeed(%v) err = %v, want ErrInvalidSpeed", tt.in, err)
			}
			if p.Speed() != 1 {
				t.Errorf("SetSpeed(%v) changed speed to %v", tt.in, p.Speed())
			}
			continue
		}
		if err != nil || p.Speed() != tt.want {
			t.Errorf("SetSpeed(%v): speed=%v err=%v, want %v", tt.in, p.Speed(), err, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateRunning: "running",
		StatePaused:  "paused",
		StateStopped: "stopped",
		State(9):     "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
