package storage

import (
	"encoding/json"
	"fmt"
	"slices"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
	"github.com/JuanchoGithub/TruchiNES/input"
)

// detectPresentKeys returns the dotted paths ("audio.volume") of the
// config keys that have defaults and are explicitly present in the file.
func detectPresentKeys(jsonBytes []byte) map[string]bool {
	present := make(map[string]bool)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return present
	}

	for _, k := range []string{"version", "speed"} {
		if _, ok := raw[k]; ok {
			present[k] = true
		}
	}

	nested := map[string][]string{
		"video":  {"shader", "palette"},
		"audio":  {"volume"},
		"pacing": {"maxDeltaMs", "maxStepsPerTick"},
		"window": {"width", "height"},
	}
	for section, keys := range nested {
		sectionRaw, ok := raw[section]
		if !ok {
			continue
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(sectionRaw, &fields) != nil {
			continue
		}
		for _, k := range keys {
			if _, ok := fields[k]; ok {
				present[section+"."+k] = true
			}
		}
	}
	return present
}

// ApplyMissingDefaults sets default values for config fields that are
// absent from the JSON file, preserving intentional zero values such as
// volume=0.
func ApplyMissingDefaults(config *Config, presentKeys map[string]bool) {
	defaults := DefaultConfig()

	if !presentKeys["version"] {
		config.Version = defaults.Version
	}
	if !presentKeys["speed"] {
		config.Speed = defaults.Speed
	}
	if !presentKeys["video.shader"] {
		config.Video.Shader = defaults.Video.Shader
	}
	if !presentKeys["video.palette"] {
		config.Video.Palette = defaults.Video.Palette
	}
	if !presentKeys["audio.volume"] {
		config.Audio.Volume = defaults.Audio.Volume
	}
	if !presentKeys["pacing.maxDeltaMs"] {
		config.Pacing.MaxDeltaMS = defaults.Pacing.MaxDeltaMS
	}
	if !presentKeys["pacing.maxStepsPerTick"] {
		config.Pacing.MaxStepsPerTick = defaults.Pacing.MaxStepsPerTick
	}
	if !presentKeys["window.width"] {
		config.Window.Width = defaults.Window.Width
	}
	if !presentKeys["window.height"] {
		config.Window.Height = defaults.Window.Height
	}
}

// configRule checks one field and resets it to its default.
type configRule struct {
	check func(c *Config) string // "" when valid
	fix   func(c, defaults *Config)
}

var configRules = []configRule{
	{
		check: func(c *Config) string {
			if c.Version != 1 {
				return fmt.Sprintf("version: %d (valid: 1)", c.Version)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Version = d.Version },
	},
	{
		check: func(c *Config) string {
			if !slices.Contains(SpeedPresets, c.Speed) {
				return fmt.Sprintf("speed: %v (valid: %v)", c.Speed, SpeedPresets)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Speed = d.Speed },
	},
	{
		check: func(c *Config) string {
			if !slices.Contains(Shaders, c.Video.Shader) {
				return fmt.Sprintf("video.shader: %q (valid: %v)", c.Video.Shader, Shaders)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Video.Shader = d.Video.Shader },
	},
	{
		check: func(c *Config) string {
			if !slices.Contains(Palettes, c.Video.Palette) {
				return fmt.Sprintf("video.palette: %q (valid: %v)", c.Video.Palette, Palettes)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Video.Palette = d.Video.Palette },
	},
	{
		check: func(c *Config) string {
			if !(c.Audio.Volume >= 0 && c.Audio.Volume <= 1) {
				return fmt.Sprintf("audio.volume: %.2f (valid: 0.0-1.0)", c.Audio.Volume)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Audio.Volume = d.Audio.Volume },
	},
	{
		check: func(c *Config) string {
			if c.Pacing.MaxDeltaMS < 17 || c.Pacing.MaxDeltaMS > 1000 {
				return fmt.Sprintf("pacing.maxDeltaMs: %d (valid: 17-1000)", c.Pacing.MaxDeltaMS)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Pacing.MaxDeltaMS = d.Pacing.MaxDeltaMS },
	},
	{
		check: func(c *Config) string {
			if c.Pacing.MaxStepsPerTick < 1 || c.Pacing.MaxStepsPerTick > 240 {
				return fmt.Sprintf("pacing.maxStepsPerTick: %d (valid: 1-240)", c.Pacing.MaxStepsPerTick)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Pacing.MaxStepsPerTick = d.Pacing.MaxStepsPerTick },
	},
	{
		check: func(c *Config) string {
			if c.Window.Width < minWindowWidth {
				return fmt.Sprintf("window.width: %d (valid: >= %d)", c.Window.Width, minWindowWidth)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Window.Width = d.Window.Width },
	},
	{
		check: func(c *Config) string {
			if c.Window.Height < minWindowHeight {
				return fmt.Sprintf("window.height: %d (valid: >= %d)", c.Window.Height, minWindowHeight)
			}
			return ""
		},
		fix: func(c, d *Config) { c.Window.Height = d.Window.Height },
	},
}

// ValidateConfig checks all config fields against valid ranges and returns
// human-readable error descriptions. An empty slice means the config is valid.
func ValidateConfig(config *Config) []string {
	var problems []string
	for _, r := range configRules {
		if msg := r.check(config); msg != "" {
			problems = append(problems, msg)
		}
	}
	problems = append(problems, validateInputConfig(config.Input)...)
	return problems
}

// CorrectConfig resets any invalid fields to their defaults. Valid fields
// are preserved.
func CorrectConfig(config *Config) *Config {
	defaults := DefaultConfig()
	for _, r := range configRules {
		if r.check(config) != "" {
			r.fix(config, defaults)
		}
	}
	correctInputConfig(&config.Input)
	return config
}

// validateInputConfig reports overrides naming unknown buttons, unknown
// keys, reserved keys, or unknown pad buttons.
func validateInputConfig(ic InputConfig) []string {
	var problems []string
	for button, key := range ic.Keyboard {
		if _, ok := emucore.ParseButton(button); !ok {
			problems = append(problems, fmt.Sprintf("input.keyboard: unknown button %q", button))
			continue
		}
		k, ok := input.ParseKey(key)
		if !ok {
			problems = append(problems, fmt.Sprintf("input.keyboard.%s: unknown key %q", button, key))
		} else if input.IsReservedKey(k) {
			problems = append(problems, fmt.Sprintf("input.keyboard.%s: reserved key %q", button, key))
		}
	}
	for button, pad := range ic.Controller {
		if _, ok := emucore.ParseButton(button); !ok {
			problems = append(problems, fmt.Sprintf("input.controller: unknown button %q", button))
			continue
		}
		if _, ok := input.ParsePad(pad); !ok {
			problems = append(problems, fmt.Sprintf("input.controller.%s: unknown pad button %q", button, pad))
		}
	}
	slices.Sort(problems)
	return problems
}

// correctInputConfig drops invalid overrides so the defaults apply.
func correctInputConfig(ic *InputConfig) {
	for button, key := range ic.Keyboard {
		_, okButton := emucore.ParseButton(button)
		k, okKey := input.ParseKey(key)
		if !okButton || !okKey || input.IsReservedKey(k) {
			delete(ic.Keyboard, button)
		}
	}
	for button, pad := range ic.Controller {
		_, okButton := emucore.ParseButton(button)
		if _, okPad := input.ParsePad(pad); !okButton || !okPad {
			delete(ic.Controller, button)
		}
	}
}
