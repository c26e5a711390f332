package emucore

// Fixed NES output characteristics.
const (
	ScreenWidth  = 256
	ScreenHeight = 240
	SampleRate   = 44100
)

// ButtonInfo describes a button for UI configuration: its default
// keyboard key and gamepad button, by name.
type ButtonInfo struct {
	Button     Button
	DefaultKey string
	DefaultPad string
}

// SystemInfo describes the emulated system for UI configuration.
type SystemInfo struct {
	Name         string
	ConsoleName  string
	Extensions   []string
	ScreenWidth  int
	ScreenHeight int
	AspectRatio  float64
	SampleRate   int
	Buttons      []ButtonInfo
	DataDirName  string
}

// NES returns the system description used by the host.
func NES() SystemInfo {
	return SystemInfo{
		Name:         "nes",
		ConsoleName:  "Nintendo Entertainment System",
		Extensions:   []string{".nes"},
		ScreenWidth:  ScreenWidth,
		ScreenHeight: ScreenHeight,
		AspectRatio:  DisplayAspectRatio(ScreenWidth, ScreenHeight, 8.0/7.0),
		SampleRate:   SampleRate,
		DataDirName:  "truchines",
		Buttons: []ButtonInfo{
			{ButtonUp, "ArrowUp", "DpadUp"},
			{ButtonDown, "ArrowDown", "DpadDown"},
			{ButtonLeft, "ArrowLeft", "DpadLeft"},
			{ButtonRight, "ArrowRight", "DpadRight"},
			{ButtonA, "Z", "A"},
			{ButtonB, "X", "B"},
			{ButtonStart, "Enter", "Start"},
			{ButtonSelect, "Shift", "Back"},
		},
	}
}

// DisplayAspectRatio returns the display aspect ratio of a width x height
// image with the given pixel aspect ratio.
func DisplayAspectRatio(width, height int, par float64) float64 {
	if height == 0 {
		return 0
	}
	return float64(width) / float64(height) * par
}
