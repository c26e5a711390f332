package standalone

import (
	"github.com/JuanchoGithub/TruchiNES/standalone/shader"
	"github.com/hajimehoshi/ebiten/v2"
)

// FramebufferRenderer owns the ebiten images used to present frames:
// the native-resolution game image and, when a screen effect is active,
// a screen-sized copy the effect reads from.
type FramebufferRenderer struct {
	width, height int
	aspect        float64
	offscreen     *ebiten.Image
	scaled        *ebiten.Image
	shaders       *shader.Manager
	drawOpts      ebiten.DrawImageOptions
}

// NewFramebufferRenderer creates a renderer for width x height RGBA
// frames shown at the given display aspect ratio.
func NewFramebufferRenderer(width, height int, aspect float64) *FramebufferRenderer {
	return &FramebufferRenderer{
		width:   width,
		height:  height,
		aspect:  aspect,
		shaders: shader.NewManager(),
	}
}

// fit returns the scale factors and offset that centre a w x h image
// with display aspect ratio aspect inside a screenW x screenH area.
func fit(screenW, screenH, w, h int, aspect float64) (scaleX, scaleY, offX, offY float64) {
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}
	if aspect <= 0 {
		aspect = float64(w) / float64(h)
	}
	dispH := float64(screenH)
	dispW := dispH * aspect
	if dispW > float64(screenW) {
		dispW = float64(screenW)
		dispH = dispW / aspect
	}
	return dispW / float64(w), dispH / float64(h),
		(float64(screenW) - dispW) / 2, (float64(screenH) - dispH) / 2
}

// DrawFramebuffer renders pixels to screen, scaled to fit, through the
// screen effect effectID.
func (r *FramebufferRenderer) DrawFramebuffer(screen *ebiten.Image, pixels []byte, effectID string) {
	if len(pixels) < r.width*r.height*4 {
		return
	}
	if r.offscreen == nil {
		r.offscreen = ebiten.NewImage(r.width, r.height)
	}
	r.offscreen.WritePixels(pixels[:r.width*r.height*4])
	r.shaders.IncrementFrame()

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	sx, sy, ox, oy := fit(screenW, screenH, r.width, r.height, r.aspect)

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(sx, sy)
	r.drawOpts.GeoM.Translate(ox, oy)
	r.drawOpts.Filter = ebiten.FilterNearest

	if effectID == "" || effectID == shader.None {
		screen.DrawImage(r.offscreen, &r.drawOpts)
		return
	}

	if r.scaled == nil || r.scaled.Bounds().Dx() != screenW || r.scaled.Bounds().Dy() != screenH {
		if r.scaled != nil {
			r.scaled.Deallocate()
		}
		r.scaled = ebiten.NewImage(screenW, screenH)
	}
	r.scaled.Clear()
	r.scaled.DrawImage(r.offscreen, &r.drawOpts)
	r.shaders.Apply(screen, r.scaled, effectID, r.height)
}
