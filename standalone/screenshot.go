package standalone

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/JuanchoGithub/TruchiNES/storage"
	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// copyPNGToClipboard places an encoded PNG on the system clipboard.
func copyPNGToClipboard(data []byte) error {
	clipboardOnce.Do(func() { clipboardErr = clipboard.Init() })
	if clipboardErr != nil {
		return clipboardErr
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// ScreenshotManager saves screenshots under the per-game screenshot
// directory and copies them to the clipboard.
type ScreenshotManager struct {
	now       func() time.Time
	clipboard func(png []byte) error
}

// NewScreenshotManager creates a new screenshot manager
func NewScreenshotManager() *ScreenshotManager {
	return &ScreenshotManager{
		now:       time.Now,
		clipboard: copyPNGToClipboard,
	}
}

// TakeScreenshot encodes img as PNG and writes it to
// screenshots/<gameID>/<unix time>.png, adding -1, -2, ... when that
// second already has a screenshot. It returns the file path.
// Clipboard failures are logged and do not fail the screenshot.
func (m *ScreenshotManager) TakeScreenshot(img image.Image, gameID string) (string, error) {
	baseDir, err := storage.GetScreenshotDir()
	if err != nil {
		return "", err
	}
	dir := baseDir
	if gameID != "" {
		dir = filepath.Join(baseDir, gameID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}

	fullPath := freePath(dir, strconv.FormatInt(m.now().Unix(), 10), ".png")
	if err := storage.AtomicWriteFile(fullPath, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	if m.clipboard != nil {
		if err := m.clipboard(buf.Bytes()); err != nil {
			log.Printf("Failed to copy screenshot to clipboard: %v", err)
		}
	}
	return fullPath, nil
}

// freePath returns dir/base+ext, or the first dir/base-N+ext that does
// not exist yet.
func freePath(dir, base, ext string) string {
	p := filepath.Join(dir, base+ext)
	for n := 1; ; n++ {
		if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
			return p
		}
		p = filepath.Join(dir, base+"-"+strconv.Itoa(n)+ext)
	}
}

// frameImage wraps RGBA pixels as an image without copying.
func frameImage(pixels []byte, width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}
