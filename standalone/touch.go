package standalone

import (
	"image"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

var (
	touchIdle = color.RGBA{0xF0, 0xF0, 0xF0, 0x30}
	touchHeld = color.RGBA{0xF0, 0xF0, 0xF0, 0x70}
)

// touchZone is an on-screen control. id is the touch binding it drives.
type touchZone struct {
	id   string
	rect image.Rectangle
}

// touchZones lays the controls out over a w×h screen: the d-pad bottom
// left, B and A bottom right, Select and Start centred in a row above
// them.
func touchZones(w, h int) []touchZone {
	u := min(w, h) / 8
	if u <= 0 {
		return nil
	}
	m := u / 2
	cell := func(x, y, cw, ch int) image.Rectangle { return image.Rect(x, y, x+cw, y+ch) }

	// d-pad centre
	cx, cy := m+3*u/2, h-m-3*u/2
	return []touchZone{
		{"up", cell(cx-u/2, cy-3*u/2, u, u)},
		{"down", cell(cx-u/2, cy+u/2, u, u)},
		{"left", cell(cx-3*u/2, cy-u/2, u, u)},
		{"right", cell(cx+u/2, cy-u/2, u, u)},
		{"b", cell(w-m-5*u/2, h-m-u, u, u)},
		{"a", cell(w-m-u, h-m-2*u, u, u)},
		{"select", cell(w/2-u-u/8, h-m-7*u/2, u, u/2)},
		{"start", cell(w/2+u/8, h-m-7*u/2, u, u/2)},
	}
}

// zoneAt returns the id of the control under (x, y), or "".
func zoneAt(zones []touchZone, x, y int) string {
	p := image.Pt(x, y)
	for _, z := range zones {
		if p.In(z.rect) {
			return z.id
		}
	}
	return ""
}

type touchTarget interface {
	PressTouch(id string) bool
	ReleaseTouch(id string) bool
}

// TouchControls turns touches on the on-screen controls into presses.
// A finger sliding from one control to another releases the first. A
// control stays pressed while any finger is on it. The overlay is drawn
// only once the screen has been touched.
type TouchControls struct {
	zones   []touchZone
	w, h    int
	fingers map[ebiten.TouchID]string
	held    map[string]int
	ids     []ebiten.TouchID
	seen    bool

	pixel *ebiten.Image
}

func NewTouchControls() *TouchControls {
	return &TouchControls{
		fingers: make(map[ebiten.TouchID]string),
		held:    make(map[string]int),
	}
}

// Update reads the current touches on a w×h screen and sends edges to t.
func (tc *TouchControls) Update(t touchTarget, w, h int) {
	tc.layout(w, h)
	tc.ids = ebiten.AppendTouchIDs(tc.ids[:0])
	now := make(map[ebiten.TouchID]string, len(tc.ids))
	for _, id := range tc.ids {
		x, y := ebiten.TouchPosition(id)
		now[id] = zoneAt(tc.zones, x, y)
	}
	tc.apply(t, now)
}

func (tc *TouchControls) layout(w, h int) {
	if w != tc.w || h != tc.h || tc.zones == nil {
		tc.w, tc.h = w, h
		tc.zones = touchZones(w, h)
	}
}

// apply moves every finger to the control in now; fingers missing from
// now have lifted.
func (tc *TouchControls) apply(t touchTarget, now map[ebiten.TouchID]string) {
	if len(now) > 0 {
		tc.seen = true
	}
	for id, zone := range tc.fingers {
		if now[id] == zone {
			continue
		}
		delete(tc.fingers, id)
		tc.held[zone]--
		if tc.held[zone] == 0 {
			delete(tc.held, zone)
			t.ReleaseTouch(zone)
		}
	}
	for id, zone := range now {
		if zone == "" {
			continue
		}
		if _, ok := tc.fingers[id]; ok {
			continue
		}
		tc.fingers[id] = zone
		tc.held[zone]++
		if tc.held[zone] == 1 {
			t.PressTouch(zone)
		}
	}
}

// Reset forgets every finger without sending releases, so fingers still
// down press their controls again on the next Update.
func (tc *TouchControls) Reset() {
	clear(tc.fingers)
	clear(tc.held)
}

// Draw renders the controls as translucent boxes, brighter while held.
func (tc *TouchControls) Draw(screen *ebiten.Image, scale float64) {
	if !tc.seen || len(tc.zones) == 0 {
		return
	}
	if tc.pixel == nil {
		tc.pixel = ebiten.NewImage(1, 1)
		tc.pixel.Fill(color.White)
	}
	face := fontFace(scale)
	for _, z := range tc.zones {
		c := touchIdle
		if tc.held[z.id] > 0 {
			c = touchHeld
		}
		opts := &ebiten.DrawImageOptions{}
		opts.GeoM.Scale(float64(z.rect.Dx()), float64(z.rect.Dy()))
		opts.GeoM.Translate(float64(z.rect.Min.X), float64(z.rect.Min.Y))
		opts.ColorScale.ScaleWithColor(c)
		screen.DrawImage(tc.pixel, opts)

		if face == nil {
			continue
		}
		label := strings.ToUpper(z.id)
		tw, th := text.Measure(label, face, 0)
		textOpts := &text.DrawOptions{}
		textOpts.GeoM.Translate(float64(z.rect.Min.X)+(float64(z.rect.Dx())-tw)/2, float64(z.rect.Min.Y)+(float64(z.rect.Dy())-th)/2)
		textOpts.ColorScale.ScaleWithColor(overlayText)
		text.Draw(screen, label, face, textOpts)
	}
}
