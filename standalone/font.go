package standalone

import (
	"bytes"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// baseFontSize is the overlay font size at a device scale of 1.
const baseFontSize = 14

var (
	fontOnce   sync.Once
	fontSource *text.GoTextFaceSource
)

// loadFontSource loads the shared GoTextFaceSource from goregular.TTF (once)
func loadFontSource() *text.GoTextFaceSource {
	fontOnce.Do(func() {
		source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			log.Printf("Failed to load font source: %v", err)
			return
		}
		fontSource = source
	})
	return fontSource
}

// fontFace returns the overlay face for a device scale factor, or nil
// if the font could not be loaded.
func fontFace(scale float64) text.Face {
	source := loadFontSource()
	if source == nil {
		return nil
	}
	if scale <= 0 {
		scale = 1
	}
	return &text.GoTextFace{Source: source, Size: baseFontSize * scale}
}
