package storage

// Config represents the application configuration stored in config.json
type Config struct {
	Version int          `json:"version"`
	Speed   float64      `json:"speed"` // emulation speed multiplier, one of SpeedPresets
	Video   VideoConfig  `json:"video"`
	Audio   AudioConfig  `json:"audio"`
	Input   InputConfig  `json:"input"`
	Pacing  PacingConfig `json:"pacing"`
	Window  WindowConfig `json:"window"`
}

// VideoConfig holds presentation choices. Shader selects a screen effect
// in the standalone host; Palette is passed through to engines that
// support alternate palettes.
type VideoConfig struct {
	Shader  string `json:"shader"`  // one of Shaders
	Palette string `json:"palette"` // one of Palettes
}

// AudioConfig contains audio-related settings
type AudioConfig struct {
	Volume float64 `json:"volume"` // output gain, 0.0-1.0
	Muted  bool    `json:"muted"`
}

// InputConfig contains binding overrides for player 1. Empty maps mean
// "use defaults"; only user overrides are stored.
type InputConfig struct {
	Keyboard           map[string]string `json:"keyboard,omitempty"`   // button name -> key name
	Controller         map[string]string `json:"controller,omitempty"` // button name -> pad button name
	DisableAnalogStick bool              `json:"disableAnalogStick,omitempty"`
}

// PacingConfig tunes the frame pacer.
type PacingConfig struct {
	MaxDeltaMS      int `json:"maxDeltaMs"`      // longest wall time credited per refresh
	MaxStepsPerTick int `json:"maxStepsPerTick"` // frames run per refresh at most
}

// WindowConfig contains window size
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
}

// SpeedPresets are the speeds offered to the user, in cycle order.
var SpeedPresets = []float64{0.5, 1.0, 1.5, 2.0}

// Shaders and Palettes list the accepted video settings.
var (
	Shaders  = []string{"none", "crt", "monochrome", "vivid"}
	Palettes = []string{"original", "fceux", "nes-classic"}
)

// Minimum window size: one NES screen at 1x.
const (
	minWindowWidth  = 256
	minWindowHeight = 240
)

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Speed:   1.0,
		Video: VideoConfig{
			Shader:  "none",
			Palette: "original",
		},
		Audio: AudioConfig{
			Volume: 0.5,
		},
		Input: InputConfig{},
		Pacing: PacingConfig{
			MaxDeltaMS:      100,
			MaxStepsPerTick: 32,
		},
		Window: WindowConfig{
			Width:  768,
			Height: 720,
		},
	}
}

// NextSpeed returns the preset after current, wrapping around. A speed
// that is not a preset moves to 1.0.
func NextSpeed(current float64) float64 {
	for i, s := range SpeedPresets {
		if s == current {
			return SpeedPresets[(i+1)%len(SpeedPresets)]
		}
	}
	return 1.0
}
