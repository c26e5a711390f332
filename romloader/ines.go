package romloader

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrInvalidHeader is returned when data does not start with a usable
// iNES header.
var ErrInvalidHeader = errors.New("invalid iNES header")

const (
	headerSize  = 16
	trainerSize = 512
	prgBankSize = 16 * 1024
	chrBankSize = 8 * 1024
)

// Mirroring is the nametable arrangement wired on the cartridge.
type Mirroring int

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorFourScreen
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	default:
		return "unknown"
	}
}

// Header is the decoded 16-byte iNES (or NES 2.0) header.
type Header struct {
	PRGBanks  int // 16KB units
	CHRBanks  int // 8KB units, 0 means CHR RAM
	Mapper    int
	Mirroring Mirroring
	Battery   bool
	Trainer   bool
	NES2      bool
	PAL       bool
}

// ParseHeader decodes and sanity checks the header of an iNES image. It
// verifies that the file is long enough to hold the banks the header
// declares; it does not know anything about individual mappers.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < headerSize || !bytes.HasPrefix(data, magicINES) {
		return h, ErrInvalidHeader
	}

	flags6, flags7 := data[6], data[7]
	h.NES2 = flags7&0x0C == 0x08
	h.PRGBanks = int(data[4])
	h.CHRBanks = int(data[5])
	h.Mapper = int(flags6>>4) | int(flags7&0xF0)
	h.Battery = flags6&0x02 != 0
	h.Trainer = flags6&0x04 != 0

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = MirrorFourScreen
	case flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	if h.NES2 {
		h.PRGBanks |= int(data[9]&0x0F) << 8
		h.CHRBanks |= int(data[9]&0xF0) << 4
		h.Mapper |= int(data[8]&0x0F) << 8
		h.PAL = data[12]&0x03 == 1
	} else {
		h.PAL = data[9]&0x01 != 0
	}

	if h.PRGBanks == 0 {
		return h, fmt.Errorf("%w: no PRG ROM", ErrInvalidHeader)
	}
	want := headerSize + h.PRGBanks*prgBankSize + h.CHRBanks*chrBankSize
	if h.Trainer {
		want += trainerSize
	}
	if len(data) < want {
		return h, fmt.Errorf("%w: truncated image, have %d bytes, header declares %d", ErrInvalidHeader, len(data), want)
	}
	return h, nil
}
