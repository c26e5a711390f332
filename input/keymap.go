package input

import (
	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
)

// keyNameMap maps key name strings, as stored in config, to ebiten keys.
var keyNameMap = map[string]ebiten.Key{
	"A":          ebiten.KeyA,
	"B":          ebiten.KeyB,
	"C":          ebiten.KeyC,
	"D":          ebiten.KeyD,
	"E":          ebiten.KeyE,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"H":          ebiten.KeyH,
	"I":          ebiten.KeyI,
	"J":          ebiten.KeyJ,
	"K":          ebiten.KeyK,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
	"N":          ebiten.KeyN,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"Q":          ebiten.KeyQ,
	"R":          ebiten.KeyR,
	"S":          ebiten.KeyS,
	"T":          ebiten.KeyT,
	"U":          ebiten.KeyU,
	"V":          ebiten.KeyV,
	"W":          ebiten.KeyW,
	"X":          ebiten.KeyX,
	"Y":          ebiten.KeyY,
	"Z":          ebiten.KeyZ,
	"0":          ebiten.Key0,
	"1":          ebiten.Key1,
	"2":          ebiten.Key2,
	"3":          ebiten.Key3,
	"4":          ebiten.Key4,
	"5":          ebiten.Key5,
	"6":          ebiten.Key6,
	"7":          ebiten.Key7,
	"8":          ebiten.Key8,
	"9":          ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Space":      ebiten.KeySpace,
	"Shift":      ebiten.KeyShift,
	"Control":    ebiten.KeyControl,
	"Alt":        ebiten.KeyAlt,
	"Tab":        ebiten.KeyTab,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"Escape":     ebiten.KeyEscape,
	"Backspace":  ebiten.KeyBackspace,
	"F1":         ebiten.KeyF1,
	"F2":         ebiten.KeyF2,
	"F3":         ebiten.KeyF3,
	"F4":         ebiten.KeyF4,
	"F11":        ebiten.KeyF11,
	"F12":        ebiten.KeyF12,
}

// padNameMap maps gamepad button names to ebiten standard layout buttons.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Back":      ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
}

// reservedKeys drive host functions and cannot be bound to buttons.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape:    true, // quit
	ebiten.KeyBackspace: true, // soft reset
	ebiten.KeyF1:        true, // save state
	ebiten.KeyF2:        true, // screen effect
	ebiten.KeyF3:        true, // load state
	ebiten.KeyF4:        true, // speed
	ebiten.KeyF11:       true, // fullscreen
	ebiten.KeyF12:       true, // screenshot
}

// DefaultTouch binds the on-screen controls.
var DefaultTouch = map[string]emucore.Button{
	"up":     emucore.ButtonUp,
	"down":   emucore.ButtonDown,
	"left":   emucore.ButtonLeft,
	"right":  emucore.ButtonRight,
	"a":      emucore.ButtonA,
	"b":      emucore.ButtonB,
	"select": emucore.ButtonSelect,
	"start":  emucore.ButtonStart,
}

// ParseKey converts a key name to an ebiten.Key.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name to an ebiten button.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

// IsReservedKey reports whether the key drives a host function.
func IsReservedKey(k ebiten.Key) bool {
	return reservedKeys[k]
}

// DefaultBindings returns the stock layout: arrows, Z/X for A/B, Enter
// for Start, Shift for Select, plus gamepad and touch.
func DefaultBindings() Bindings {
	return BuildBindings(nil, nil)
}

// BuildBindings builds bindings from config overrides keyed by button
// name ("A", "Start", "Up", ...). A missing override uses the default; an
// override naming an unknown or reserved key leaves the button unbound on
// that source. When two buttons share a key, the one listed last in
// emucore.NES().Buttons wins.
func BuildBindings(kbOverrides, padOverrides map[string]string) Bindings {
	b := Bindings{
		Keys:  make(map[string]emucore.Button),
		Pads:  make(map[string]emucore.Button),
		Touch: make(map[string]emucore.Button, len(DefaultTouch)),
	}

	info := emucore.NES()
	for _, bi := range info.Buttons {
		name := bi.Button.String()

		keyName := bi.DefaultKey
		if override, ok := kbOverrides[name]; ok {
			keyName = override
		}
		if k, ok := ParseKey(keyName); ok && !reservedKeys[k] {
			b.Keys[keyName] = bi.Button
		}

		padName := bi.DefaultPad
		if override, ok := padOverrides[name]; ok {
			padName = override
		}
		if _, ok := ParsePad(padName); ok {
			b.Pads[padName] = bi.Button
		}
	}
	for id, btn := range DefaultTouch {
		b.Touch[id] = btn
	}
	return b
}
