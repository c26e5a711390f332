package emucore

import "strings"

// Button identifies a standard NES controller button. The value is the
// button's bit position in the controller shift register.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight

	// NumButtons is the number of physical buttons on a pad.
	NumButtons = 8
)

// ButtonAll is not a physical button. Releasing it releases every button.
const ButtonAll Button = 0xFF

// Player1 is the player slot the host drives.
const Player1 = 1

var buttonNames = [NumButtons]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// Valid reports whether b is one of the eight physical buttons.
func (b Button) Valid() bool { return b < NumButtons }

// Mask returns the button's bit in a controller state byte.
func (b Button) Mask() uint8 {
	if !b.Valid() {
		return 0
	}
	return 1 << b
}

func (b Button) String() string {
	if b.Valid() {
		return buttonNames[b]
	}
	if b == ButtonAll {
		return "All"
	}
	return "Unknown"
}

// ParseButton looks a button up by name, case-insensitively.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), true
		}
	}
	return 0, false
}

// AllButtons returns the physical buttons in bit order.
func AllButtons() []Button {
	out := make([]Button, NumButtons)
	for i := range out {
		out[i] = Button(i)
	}
	return out
}
