// Package standalone hosts an NES engine in an ebiten window: it loads a
// ROM, drives the session from the display refresh, and maps keyboard,
// gamepad, on-screen touch controls and host hotkeys onto it.
package standalone

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	emucore "github.com/JuanchoGithub/TruchiNES/api"
	"github.com/JuanchoGithub/TruchiNES/input"
	"github.com/JuanchoGithub/TruchiNES/pacer"
	"github.com/JuanchoGithub/TruchiNES/romloader"
	"github.com/JuanchoGithub/TruchiNES/session"
	"github.com/JuanchoGithub/TruchiNES/snapshot"
	"github.com/JuanchoGithub/TruchiNES/standalone/shader"
	"github.com/JuanchoGithub/TruchiNES/storage"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// host implements ebiten.Game around one session.
type host struct {
	factory emucore.EngineFactory
	rom     *romloader.ROM
	gameID  string
	config  *storage.Config
	saves   snapshot.KV

	ticks        *pacer.Signal
	ctrl         *session.Controller
	poller       *input.Poller
	touch        *TouchControls
	renderer     *FramebufferRenderer
	notification *Notification
	screenshots  *ScreenshotManager

	faults  chan error
	focused bool

	screenW, screenH int
}

// Run loads romPath and plays it until the window is closed or Escape is
// pressed. An empty romPath opens a file picker.
func Run(factory emucore.EngineFactory, romPath string) error {
	info := emucore.NES()
	storage.Init(info.DataDirName)
	if err := storage.EnsureDirectories(); err != nil {
		log.Printf("Failed to create data directories: %v", err)
	}
	config, problems := storage.LoadValidConfig()
	for _, p := range problems {
		log.Printf("Config: %s", p)
	}

	if romPath == "" {
		p, err := pickROM()
		if err != nil {
			return err
		}
		romPath = p
	}
	rom, err := romloader.Load(romPath)
	if err != nil {
		return fmt.Errorf("failed to load ROM: %w", err)
	}

	gameID := storage.GameID(rom.Data)
	var saves snapshot.KV
	if kv, err := storage.OpenGameKV(gameID); err != nil {
		log.Printf("Save states will not persist: %v", err)
	} else {
		saves = kv
	}

	h := &host{
		factory:      factory,
		rom:          rom,
		gameID:       gameID,
		config:       config,
		saves:        saves,
		ticks:        pacer.NewSignal(),
		renderer:     NewFramebufferRenderer(info.ScreenWidth, info.ScreenHeight, info.AspectRatio),
		notification: NewNotification(),
		screenshots:  NewScreenshotManager(),
		faults:       make(chan error, 1),
		focused:      true,
	}
	if err := h.start(); err != nil {
		return err
	}

	ebiten.SetWindowTitle(windowTitle(info, rom.Name))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(config.Window.Width, config.Window.Height)
	ebiten.SetWindowSizeLimits(info.ScreenWidth, info.ScreenHeight, -1, -1)
	ebiten.SetFullscreen(config.Window.Fullscreen)
	// One Update per display refresh; the pacer turns refreshes into frames.
	ebiten.SetTPS(ebiten.SyncWithFPS)

	err = ebiten.RunGame(h)
	h.Close()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func windowTitle(info emucore.SystemInfo, romName string) string {
	name := strings.TrimSuffix(filepath.Base(romName), filepath.Ext(romName))
	if name == "" || name == "." {
		return info.ConsoleName
	}
	return name + " - " + info.ConsoleName
}

// sessionOptions maps the config onto session options.
func sessionOptions(c *storage.Config, region emucore.Region, saves snapshot.KV, onFault func(error)) session.Options {
	bindings := input.BuildBindings(c.Input.Keyboard, c.Input.Controller)
	return session.Options{
		Region:          region,
		Speed:           c.Speed,
		Volume:          c.Audio.Volume,
		Muted:           c.Audio.Muted,
		MaxDelta:        time.Duration(c.Pacing.MaxDeltaMS) * time.Millisecond,
		MaxStepsPerTick: c.Pacing.MaxStepsPerTick,
		Palette:         c.Video.Palette,
		Bindings:        &bindings,
		Snapshots:       saves,
		OnFault:         onFault,
	}
}

func regionOf(rom *romloader.ROM) emucore.Region {
	if rom.Header.PAL {
		return emucore.RegionPAL
	}
	return emucore.RegionNTSC
}

func (h *host) start() error {
	opts := sessionOptions(h.config, regionOf(h.rom), h.saves, h.onFault)
	ctrl, err := session.Start(h.factory, h.rom.Data, h.ticks, opts)
	if err != nil {
		return fmt.Errorf("failed to start emulation: %w", err)
	}
	h.ctrl = ctrl
	h.poller = input.NewPoller(*opts.Bindings, h.config.Input.DisableAnalogStick)
	h.touch = NewTouchControls()
	return nil
}

// onFault runs inside ticks.Emit; the notification is shown from Update.
func (h *host) onFault(err error) {
	select {
	case h.faults <- err:
	default:
	}
}

// Update implements ebiten.Game.
func (h *host) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	h.handleFocus()

	h.ticks.Emit(time.Now())
	h.poller.Poll(h.ctrl)
	h.touch.Update(h.ctrl, h.screenW, h.screenH)
	h.handleHotkeys()

	select {
	case err := <-h.faults:
		h.notification.ShowDefault("Emulation stopped: " + faultSummary(err))
	default:
	}
	return nil
}

// handleFocus pauses while the window is in the background and releases
// held buttons so none stay stuck when focus returns.
func (h *host) handleFocus() {
	focused := ebiten.IsFocused()
	if focused == h.focused {
		return
	}
	h.focused = focused
	if focused {
		h.ctrl.Resume()
		return
	}
	h.ctrl.ReleaseAll()
	h.poller.Reset()
	h.touch.Reset()
	h.ctrl.Pause()
}

func (h *host) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		h.saveState()
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		h.config.Video.Shader = shader.Next(h.config.Video.Shader)
		if s, ok := shader.Lookup(h.config.Video.Shader); ok {
			h.notification.ShowShort("Effect: " + s.Name)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		h.loadState()
	case inpututil.IsKeyJustPressed(ebiten.KeyF4):
		h.cycleSpeed()
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		h.restart()
	case inpututil.IsKeyJustPressed(ebiten.KeyF11):
		h.config.Window.Fullscreen = !ebiten.IsFullscreen()
		ebiten.SetFullscreen(h.config.Window.Fullscreen)
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		h.takeScreenshot()
	}
}

func (h *host) saveState() {
	if err := h.ctrl.SaveState(); err != nil {
		h.notification.ShowShort("Save failed")
		return
	}
	h.notification.ShowShort("State saved")
}

func (h *host) loadState() {
	ok, err := h.ctrl.LoadState()
	switch {
	case err != nil:
		h.notification.ShowShort("Load failed")
	case !ok:
		h.notification.ShowShort("No saved state")
	default:
		h.notification.ShowShort("State loaded")
	}
}

func (h *host) cycleSpeed() {
	next := storage.NextSpeed(h.config.Speed)
	if err := h.ctrl.SetSpeed(next); err != nil {
		log.Printf("Failed to set speed: %v", err)
		return
	}
	h.config.Speed = next
	h.notification.ShowShort(speedLabel(next))
}

func speedLabel(s float64) string {
	return fmt.Sprintf("Speed %gx", s)
}

func (h *host) restart() {
	ctrl, err := h.ctrl.Restart()
	if err != nil {
		log.Printf("Reset failed: %v", err)
		h.notification.ShowDefault("Reset failed")
		return
	}
	h.ctrl = ctrl
	h.poller.Reset()
	h.touch.Reset()
	h.notification.ShowShort("Reset")
}

func (h *host) takeScreenshot() {
	fb := h.ctrl.Framebuffer()
	w, ht := fb.Size()
	img := frameImage(fb.Snapshot(), w, ht)
	if _, err := h.screenshots.TakeScreenshot(img, h.gameID); err != nil {
		log.Printf("Screenshot failed: %v", err)
		h.notification.ShowShort("Screenshot failed")
		return
	}
	h.notification.ShowShort("Screenshot saved")
}

// faultSummary shortens an engine fault for on-screen display.
func faultSummary(err error) string {
	var ef *emucore.EngineFault
	if errors.As(err, &ef) && ef.Err != nil {
		return ef.Err.Error()
	}
	return err.Error()
}

// Draw implements ebiten.Game.
func (h *host) Draw(screen *ebiten.Image) {
	h.renderer.DrawFramebuffer(screen, h.ctrl.Framebuffer().Read(), h.config.Video.Shader)
	h.touch.Draw(screen, deviceScale())
	h.notification.Draw(screen, deviceScale())
}

// Layout implements ebiten.Game.
func (h *host) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := deviceScale()
	h.screenW, h.screenH = int(float64(outsideWidth)*s), int(float64(outsideHeight)*s)
	return h.screenW, h.screenH
}

func deviceScale() float64 {
	if m := ebiten.Monitor(); m != nil {
		return m.DeviceScaleFactor()
	}
	return 1
}

// Close ends the session and saves settings.
func (h *host) Close() {
	if err := h.ctrl.Close(); err != nil {
		log.Printf("Failed to close session: %v", err)
	}
	if !h.config.Window.Fullscreen {
		h.config.Window.Width, h.config.Window.Height = ebiten.WindowSize()
	}
	if err := storage.SaveConfig(h.config); err != nil {
		log.Printf("Failed to save config: %v", err)
	}
}
