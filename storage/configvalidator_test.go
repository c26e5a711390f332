package storage

import (
	"math"
	"strings"
	"testing"
)

func TestDetectPresentKeys(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected []string
	}{
		{
			name: "all keys present",
			json: `{
				"version": 1, "speed": 1,
				"video": {"shader": "crt", "palette": "fceux"},
				"audio": {"volume": 0.5},
				"pacing": {"maxDeltaMs": 100, "maxStepsPerTick": 32},
				"window": {"width": 768, "height": 720}
			}`,
			expected: []string{
				"version", "speed", "video.shader", "video.palette", "audio.volume",
				"pacing.maxDeltaMs", "pacing.maxStepsPerTick", "window.width", "window.height",
			},
		},
		{name: "empty object", json: `{}`},
		{
			name:     "zero values are still present",
			json:     `{"speed": 0, "audio": {"volume": 0}}`,
			expected: []string{"speed", "audio.volume"},
		},
		{name: "invalid JSON returns empty", json: `{not valid json`},
		{name: "nested object present but empty", json: `{"audio": {}, "pacing": {}}`},
		{name: "section with wrong type", json: `{"window": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectPresentKeys([]byte(tt.json))
			if len(got) != len(tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
			for _, k := range tt.expected {
				if !got[k] {
					t.Errorf("key %q not detected", k)
				}
			}
		})
	}
}

func TestApplyMissingDefaults(t *testing.T) {
	cfg := &Config{Audio: AudioConfig{Volume: 0}, Speed: 0}
	ApplyMissingDefaults(cfg, map[string]bool{"audio.volume": true})

	if cfg.Audio.Volume != 0 {
		t.Errorf("present zero volume overwritten: %v", cfg.Audio.Volume)
	}
	d := DefaultConfig()
	if cfg.Speed != d.Speed || cfg.Version != d.Version || cfg.Video != d.Video ||
		cfg.Pacing != d.Pacing || cfg.Window.Width != d.Window.Width {
		t.Errorf("missing fields not defaulted: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	if problems := ValidateConfig(DefaultConfig()); len(problems) != 0 {
		t.Fatalf("default config invalid: %v", problems)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"version", func(c *Config) { c.Version = 2 }, "version"},
		{"speed off preset", func(c *Config) { c.Speed = 1.25 }, "speed"},
		{"speed zero", func(c *Config) { c.Speed = 0 }, "speed"},
		{"shader", func(c *Config) { c.Video.Shader = "bloom" }, "video.shader"},
		{"palette", func(c *Config) { c.Video.Palette = "" }, "video.palette"},
		{"volume high", func(c *Config) { c.Audio.Volume = 1.5 }, "audio.volume"},
		{"volume negative", func(c *Config) { c.Audio.Volume = -0.1 }, "audio.volume"},
		{"volume NaN", func(c *Config) { c.Audio.Volume = math.NaN() }, "audio.volume"},
		{"max delta", func(c *Config) { c.Pacing.MaxDeltaMS = 5 }, "pacing.maxDeltaMs"},
		{"max steps", func(c *Config) { c.Pacing.MaxStepsPerTick = 0 }, "pacing.maxStepsPerTick"},
		{"width", func(c *Config) { c.Window.Width = 100 }, "window.width"},
		{"height", func(c *Config) { c.Window.Height = 100 }, "window.height"},
		{"unknown button", func(c *Config) { c.Input.Keyboard = map[string]string{"Turbo": "J"} }, "input.keyboard"},
		{"unknown key", func(c *Config) { c.Input.Keyboard = map[string]string{"A": "F20"} }, "input.keyboard.A"},
		{"reserved key", func(c *Config) { c.Input.Keyboard = map[string]string{"A": "F1"} }, "input.keyboard.A"},
		{"unknown pad", func(c *Config) { c.Input.Controller = map[string]string{"B": "Z9"} }, "input.controller.B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			problems := ValidateConfig(cfg)
			if len(problems) != 1 {
				t.Fatalf("got %d problems, want 1: %v", len(problems), problems)
			}
			if !strings.HasPrefix(problems[0], tt.field) {
				t.Errorf("problem %q does not name %s", problems[0], tt.field)
			}
		})
	}
}

func TestCorrectConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 7
	cfg.Audio.Volume = 0.3
	cfg.Video.Shader = "bloom"
	cfg.Window.Width = 10
	cfg.Input.Keyboard = map[string]string{"A": "J", "B": "F1", "Turbo": "K"}
	cfg.Input.Controller = map[string]string{"Start": "R1", "Select": "nope"}

	CorrectConfig(cfg)

	d := DefaultConfig()
	if cfg.Speed != d.Speed || cfg.Video.Shader != d.Video.Shader || cfg.Window.Width != d.Window.Width {
		t.Errorf("invalid fields not reset: %+v", cfg)
	}
	if cfg.Audio.Volume != 0.3 {
		t.Errorf("valid volume changed to %v", cfg.Audio.Volume)
	}
	if len(cfg.Input.Keyboard) != 1 || cfg.Input.Keyboard["A"] != "J" {
		t.Errorf("keyboard overrides = %v", cfg.Input.Keyboard)
	}
	if len(cfg.Input.Controller) != 1 || cfg.Input.Controller["Start"] != "R1" {
		t.Errorf("controller overrides = %v", cfg.Input.Controller)
	}
	if problems := ValidateConfig(cfg); len(problems) != 0 {
		t.Errorf("corrected config still invalid: %v", problems)
	}
}
