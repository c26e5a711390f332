// Package shader applies Kage screen effects to the scaled game image.
package shader

import (
	_ "embed"
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

//go:embed shaders/crt.kage
var crtShaderSrc []byte

//go:embed shaders/monochrome.kage
var monochromeShaderSrc []byte

//go:embed shaders/vivid.kage
var vividShaderSrc []byte

// shaderSources maps shader IDs to their Kage source code
var shaderSources = map[string][]byte{
	"crt":        crtShaderSrc,
	"monochrome": monochromeShaderSrc,
	"vivid":      vividShaderSrc,
}

// Manager compiles shaders on first use and caches them. Shaders that
// fail to compile are remembered so the error is logged once.
type Manager struct {
	shaders map[string]*ebiten.Shader
	failed  map[string]bool
	frame   int
}

func NewManager() *Manager {
	return &Manager{
		shaders: make(map[string]*ebiten.Shader),
		failed:  make(map[string]bool),
	}
}

// IncrementFrame advances the frame counter passed to shaders as Time.
func (m *Manager) IncrementFrame() {
	m.frame++
}

// LoadShader compiles and caches a shader by ID
func (m *Manager) LoadShader(id string) (*ebiten.Shader, error) {
	if s, ok := m.shaders[id]; ok {
		return s, nil
	}
	src, ok := shaderSources[id]
	if !ok {
		return nil, fmt.Errorf("unknown shader: %s", id)
	}
	s, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader %s: %w", id, err)
	}
	m.shaders[id] = s
	return s, nil
}

// Apply draws src onto dst through the effect id. With None, an unknown
// ID, or a shader that does not compile, src is drawn unchanged.
// sourceHeight is the emulated vertical resolution, used to align
// scanlines with the original pixel rows. It reports whether a shader
// ran.
func (m *Manager) Apply(dst, src *ebiten.Image, id string, sourceHeight int) bool {
	if src == nil {
		return false
	}
	if id == "" || id == None || m.failed[id] {
		dst.DrawImage(src, nil)
		return false
	}
	s, err := m.LoadShader(id)
	if err != nil {
		log.Printf("Warning: shader %s not available: %v", id, err)
		m.failed[id] = true
		dst.DrawImage(src, nil)
		return false
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	op := &ebiten.DrawRectShaderOptions{}
	op.Images[0] = src
	op.Uniforms = map[string]any{
		"Time":         float32(m.frame),
		"SourceHeight": float32(sourceHeight),
	}
	dst.DrawRectShader(w, h, s, op)
	return true
}
