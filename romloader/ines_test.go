package romloader

import (
	"errors"
	"testing"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
		check  func(t *testing.T, h Header)
	}{
		{
			name:   "plain NROM",
			mutate: func(d []byte) []byte { return d },
			check: func(t *testing.T, h Header) {
				if h.Mapper != 0 || h.Mirroring != MirrorHorizontal || h.PAL || h.NES2 {
					t.Errorf("unexpected header %+v", h)
				}
			},
		},
		{
			name: "mapper and flags",
			mutate: func(d []byte) []byte {
				d[6] = 0x13 // mapper low nibble 1, battery, vertical
				d[7] = 0x40 // mapper high nibble 4
				return d
			},
			check: func(t *testing.T, h Header) {
				if h.Mapper != 0x41 {
					t.Errorf("Mapper = %d, want 65", h.Mapper)
				}
				if !h.Battery || h.Mirroring != MirrorVertical {
					t.Errorf("unexpected header %+v", h)
				}
			},
		},
		{
			name:   "iNES PAL flag",
			mutate: func(d []byte) []byte { d[9] = 0x01; return d },
			check: func(t *testing.T, h Header) {
				if !h.PAL {
					t.Error("expected PAL")
				}
			},
		},
		{
			name: "NES 2.0 PAL timing",
			mutate: func(d []byte) []byte {
				d[7] = 0x08
				d[12] = 0x01
				return d
			},
			check: func(t *testing.T, h Header) {
				if !h.NES2 || !h.PAL {
					t.Errorf("unexpected header %+v", h)
				}
			},
		},
		{
			name: "trainer present",
			mutate: func(d []byte) []byte {
				d[6] = 0x04
				return append(d, make([]byte, trainerSize)...)
			},
			check: func(t *testing.T, h Header) {
				if !h.Trainer {
					t.Error("expected trainer")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(tt.mutate(testROM(0)))
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}
			tt.check(t, h)
		})
	}
}

func TestParseHeader_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{'N', 'E', 'S'}},
		{"bad magic", make([]byte, 64)},
		{"no PRG", func() []byte { d := testROM(0); d[4] = 0; return d }()},
		{"truncated", testROM(0)[:headerSize+100]},
		{"trainer missing", func() []byte { d := testROM(0); d[6] = 0x04; return d }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(tt.data); !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("expected ErrInvalidHeader, got %v", err)
			}
		})
	}
}
