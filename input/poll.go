package input

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// stickThreshold is the analog deflection treated as a d-pad press.
const stickThreshold = 0.25

// stickPads are the pad names the left stick drives, in the order
// up, down, left, right.
var stickPads = [4]string{"DpadUp", "DpadDown", "DpadLeft", "DpadRight"}

// Target receives named input edges. *Router and the session controller
// implement it.
type Target interface {
	PressKey(name string) bool
	ReleaseKey(name string) bool
	PressPad(name string) bool
	ReleasePad(name string) bool
}

// Poller converts ebiten's per-frame key and gamepad state into edges.
// It must be called from ebiten's Update.
//
// Edges are derived from the level state of each input against what the
// poller last sent, so after Reset anything still held is pressed again
// on the next Poll.
type Poller struct {
	keys          map[ebiten.Key]string
	pads          map[ebiten.StandardGamepadButton]string
	disableAnalog bool

	gamepad    ebiten.GamepadID
	hasGamepad bool
	ids        []ebiten.GamepadID

	heldKeys map[string]bool
	dpad     padState
}

// NewPoller polls the keys and pad buttons named in b.
func NewPoller(b Bindings, disableAnalog bool) *Poller {
	p := &Poller{
		keys:          make(map[ebiten.Key]string, len(b.Keys)),
		pads:          make(map[ebiten.StandardGamepadButton]string, len(b.Pads)),
		disableAnalog: disableAnalog,
		heldKeys:      make(map[string]bool),
	}
	for name := range b.Keys {
		if k, ok := ParseKey(name); ok {
			p.keys[k] = name
		}
	}
	for name := range b.Pads {
		if btn, ok := ParsePad(name); ok {
			p.pads[btn] = name
		}
	}
	return p
}

// Reset forgets what has been sent without sending releases. Call it when
// the target has dropped its own state, after a restart or ReleaseAll.
func (p *Poller) Reset() {
	clear(p.heldKeys)
	p.dpad.reset()
}

// Poll forwards this frame's edges to t.
func (p *Poller) Poll(t Target) {
	p.updateKeys(t, ebiten.IsKeyPressed)
	p.pollGamepad(t)
}

func (p *Poller) updateKeys(t Target, pressed func(ebiten.Key) bool) {
	for k, name := range p.keys {
		down := pressed(k)
		if down == p.heldKeys[name] {
			continue
		}
		if down {
			p.heldKeys[name] = true
			t.PressKey(name)
		} else {
			delete(p.heldKeys, name)
			t.ReleaseKey(name)
		}
	}
}

func (p *Poller) pollGamepad(t Target) {
	p.ids = ebiten.AppendGamepadIDs(p.ids[:0])
	connected := false
	for _, id := range p.ids {
		if p.hasGamepad && id == p.gamepad {
			connected = true
			break
		}
	}
	if !connected {
		// Controller unplugged mid-press: nothing will report the release.
		p.dpad.releaseAll(t)
		p.hasGamepad = false
		for _, id := range p.ids {
			if ebiten.IsStandardGamepadLayoutAvailable(id) {
				p.gamepad, p.hasGamepad = id, true
				break
			}
		}
		if !p.hasGamepad {
			return
		}
	}

	p.updatePads(t, func(btn ebiten.StandardGamepadButton) bool {
		return ebiten.IsStandardGamepadButtonPressed(p.gamepad, btn)
	})
	if !p.disableAnalog {
		x := ebiten.StandardGamepadAxisValue(p.gamepad, ebiten.StandardGamepadAxisLeftStickHorizontal)
		y := ebiten.StandardGamepadAxisValue(p.gamepad, ebiten.StandardGamepadAxisLeftStickVertical)
		p.dpad.setStick(t, stickDirections(x, y))
	}
}

func (p *Poller) updatePads(t Target, pressed func(ebiten.StandardGamepadButton) bool) {
	for btn, name := range p.pads {
		p.dpad.setButton(t, name, pressed(btn))
	}
}

// stickDirections treats the left stick as the d-pad, so a remapped
// d-pad follows the stick too.
func stickDirections(x, y float64) [4]bool {
	return [4]bool{y < -stickThreshold, y > stickThreshold, x < -stickThreshold, x > stickThreshold}
}

// padState merges pad buttons and the stick. A pad name is held while
// its button or its stick direction is, and only changes of that merged
// state reach the target.
type padState struct {
	buttons map[string]bool
	stick   [4]bool // up, down, left, right
	sent    map[string]bool
}

func (s *padState) setButton(t Target, name string, down bool) {
	if s.buttons == nil {
		s.buttons = make(map[string]bool)
	}
	if down {
		s.buttons[name] = true
	} else {
		delete(s.buttons, name)
	}
	s.sync(t, name)
}

func (s *padState) setStick(t Target, now [4]bool) {
	for i := range now {
		if now[i] != s.stick[i] {
			s.stick[i] = now[i]
			s.sync(t, stickPads[i])
		}
	}
}

func (s *padState) held(name string) bool {
	if s.buttons[name] {
		return true
	}
	for i, pad := range stickPads {
		if pad == name && s.stick[i] {
			return true
		}
	}
	return false
}

func (s *padState) sync(t Target, name string) {
	if s.sent == nil {
		s.sent = make(map[string]bool)
	}
	down := s.held(name)
	if down == s.sent[name] {
		return
	}
	if down {
		s.sent[name] = true
		t.PressPad(name)
	} else {
		delete(s.sent, name)
		t.ReleasePad(name)
	}
}

func (s *padState) releaseAll(t Target) {
	for name := range s.sent {
		t.ReleasePad(name)
	}
	s.reset()
}

func (s *padState) reset() {
	clear(s.buttons)
	clear(s.sent)
	s.stick = [4]bool{}
}
