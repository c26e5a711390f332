// Package input turns host input events (keys, gamepad buttons, touch
// zones) into NES button edges for the engine.
package input

import (
	"strings"
	"sync"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
)

// ControllerState is the set of held buttons, one bit per button in
// emucore.Button order.
type ControllerState uint8

// Pressed reports whether b is held.
func (s ControllerState) Pressed(b emucore.Button) bool {
	return uint8(s)&b.Mask() != 0
}

func (s ControllerState) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for _, b := range emucore.AllButtons() {
		if s.Pressed(b) {
			names = append(names, b.String())
		}
	}
	return strings.Join(names, "+")
}

// Sink receives button edges. emucore.Engine satisfies it.
type Sink interface {
	ButtonDown(player int, b emucore.Button)
	ButtonUp(player int, b emucore.Button)
}

// Bindings maps input identifiers from each source to buttons. The maps
// are read-only once handed to a Router.
type Bindings struct {
	Keys  map[string]emucore.Button // key name, see ParseKey
	Pads  map[string]emucore.Button // gamepad button name, see ParsePad
	Touch map[string]emucore.Button // on-screen control id
}

// Router tracks the held buttons of one player and forwards every press
// and release to the sink. Identifiers with no binding are ignored.
type Router struct {
	mu       sync.Mutex
	sink     Sink
	player   int
	bindings Bindings
	state    ControllerState
}

// NewRouter creates a router with nothing held.
func NewRouter(sink Sink, player int, b Bindings) *Router {
	return &Router{sink: sink, player: player, bindings: b}
}

// Press marks b held and sends ButtonDown. Invalid buttons are ignored.
func (r *Router) Press(b emucore.Button) {
	if !b.Valid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state |= ControllerState(b.Mask())
	r.sink.ButtonDown(r.player, b)
}

// Release marks b released and sends ButtonUp. emucore.ButtonAll
// releases every button.
func (r *Router) Release(b emucore.Button) {
	if b == emucore.ButtonAll {
		r.ReleaseAll()
		return
	}
	if !b.Valid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state &^= ControllerState(b.Mask())
	r.sink.ButtonUp(r.player, b)
}

// ReleaseAll clears the state and sends ButtonUp for all eight buttons,
// held or not, so the engine ends up with nothing pressed.
func (r *Router) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = 0
	for _, b := range emucore.AllButtons() {
		r.sink.ButtonUp(r.player, b)
	}
}

// State returns the held buttons.
func (r *Router) State() ControllerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func lookup(m map[string]emucore.Button, id string) (emucore.Button, bool) {
	b, ok := m[id]
	return b, ok
}

// PressKey presses the button bound to a key name. It reports whether
// the key is bound.
func (r *Router) PressKey(name string) bool {
	b, ok := lookup(r.bindings.Keys, name)
	if ok {
		r.Press(b)
	}
	return ok
}

// ReleaseKey releases the button bound to a key name.
func (r *Router) ReleaseKey(name string) bool {
	b, ok := lookup(r.bindings.Keys, name)
	if ok {
		r.Release(b)
	}
	return ok
}

// PressPad presses the button bound to a gamepad button name.
func (r *Router) PressPad(name string) bool {
	b, ok := lookup(r.bindings.Pads, name)
	if ok {
		r.Press(b)
	}
	return ok
}

// ReleasePad releases the button bound to a gamepad button name.
func (r *Router) ReleasePad(name string) bool {
	b, ok := lookup(r.bindings.Pads, name)
	if ok {
		r.Release(b)
	}
	return ok
}

// PressTouch presses the button behind an on-screen control.
func (r *Router) PressTouch(id string) bool {
	b, ok := lookup(r.bindings.Touch, id)
	if ok {
		r.Press(b)
	}
	return ok
}

// ReleaseTouch releases the button behind an on-screen control.
func (r *Router) ReleaseTouch(id string) bool {
	b, ok := lookup(r.bindings.Touch, id)
	if ok {
		r.Release(b)
	}
	return ok
}
