package standalone

import (
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

const (
	overlayPadding = 12
	overlayMargin  = 8
)

var (
	overlayBackground = color.RGBA{0x10, 0x10, 0x18, 153} // 60% opacity
	overlayText       = color.RGBA{0xF0, 0xF0, 0xF0, 0xFF}
)

// Notification displays temporary messages on screen
type Notification struct {
	mu        sync.Mutex
	message   string
	startTime time.Time
	duration  time.Duration
	now       func() time.Time

	// Reused across frames; grown when a longer message needs it.
	bg *ebiten.Image
}

// NewNotification creates a new notification system
func NewNotification() *Notification {
	return &Notification{now: time.Now}
}

// Show displays a notification message, replacing any current one.
func (n *Notification) Show(message string, duration time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = message
	n.startTime = n.now()
	n.duration = duration
}

// ShowDefault displays a notification with default 3 second duration
func (n *Notification) ShowDefault(message string) {
	n.Show(message, 3*time.Second)
}

// ShowShort displays a notification with 1 second duration (for gameplay)
func (n *Notification) ShowShort(message string) {
	n.Show(message, 1*time.Second)
}

// Current returns the visible message, if any.
func (n *Notification) Current() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.message == "" || n.now().Sub(n.startTime) >= n.duration {
		return "", false
	}
	return n.message, true
}

// IsVisible returns whether the notification is currently visible
func (n *Notification) IsVisible() bool {
	_, ok := n.Current()
	return ok
}

// Clear removes the current notification
func (n *Notification) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = ""
}

// Draw renders the notification in the bottom-right corner.
func (n *Notification) Draw(screen *ebiten.Image, scale float64) {
	message, ok := n.Current()
	if !ok {
		return
	}
	face := fontFace(scale)
	if face == nil {
		return
	}

	bounds := screen.Bounds()
	textWidth, textHeight := text.Measure(message, face, 0)
	padding := int(overlayPadding * scale)
	margin := int(overlayMargin * scale)
	bgWidth := int(textWidth) + padding*2
	bgHeight := int(textHeight) + padding*2
	bgX := bounds.Dx() - bgWidth - margin
	bgY := bounds.Dy() - bgHeight - margin

	if n.bg == nil || n.bg.Bounds().Dx() < bgWidth || n.bg.Bounds().Dy() < bgHeight {
		n.bg = ebiten.NewImage(bgWidth, bgHeight)
		n.bg.Fill(overlayBackground)
	}
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Translate(float64(bgX), float64(bgY))
	screen.DrawImage(n.bg.SubImage(image.Rect(0, 0, bgWidth, bgHeight)).(*ebiten.Image), opts)

	textOpts := &text.DrawOptions{}
	textOpts.GeoM.Translate(float64(bgX+padding), float64(bgY+padding))
	textOpts.ColorScale.ScaleWithColor(overlayText)
	text.Draw(screen, message, face, textOpts)
}
