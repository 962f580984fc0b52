// Package screen shows engine scenes in an SDL window and turns mouse and
// keyboard events into response codes.
package screen

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"

	"github.com/pe-ge/cda/engine"
)

// Window implements engine.Display and engine.Input.
type Window struct {
	cfg      engine.Config
	layout   layout
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
	bg       sdl.Color
	fg       sdl.Color
	pending  []string
	rate     float64
	texts    map[string]*textTexture
}

type textTexture struct {
	tex  *sdl.Texture
	w, h float32
}

// Init starts SDL video and SDL_ttf. The returned func shuts both down.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init: %w", err)
	}
	if err := ttf.Init(); err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("TTF_Init: %w", err)
	}
	return func() {
		ttf.Quit()
		sdl.Quit()
	}, nil
}

// Open creates the window. SDL and SDL_ttf must be initialised by the caller
// on the locked main thread.
func Open(cfg engine.Config) (*Window, error) {
	m := cfg.Monitor
	flags := sdl.WINDOW_FULLSCREEN
	if !m.Fullscreen {
		flags = 0
	}

	window, renderer, err := sdl.CreateWindowAndRenderer(cfg.ExpName, m.Width, m.Height, flags)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	if m.VSync {
		renderer.SetVSync(1)
	} else {
		renderer.SetVSync(0)
	}

	w := &Window{
		cfg:      cfg,
		layout:   newLayout(m),
		window:   window,
		renderer: renderer,
		bg:       toSDL(engine.ParseColor(m.Background)),
		fg:       toSDL(engine.ParseColor(m.TextColor)),
		rate:     60,
		texts:    map[string]*textTexture{},
	}

	display := sdl.GetDisplayForWindow(window)
	if mode, err := display.CurrentDisplayMode(); err == nil && mode.RefreshRate > 0 {
		w.rate = float64(mode.RefreshRate)
	}

	fontPath := findFont(m.FontFile, systemFonts())
	if fontPath != "" {
		size := m.FontSize
		if size <= 0 {
			size = int(textHeight * w.layout.pxPerCM)
		}
		font, err := ttf.OpenFont(fontPath, float32(size))
		if err != nil {
			fmt.Printf("Failed to load font: %s (%v)\n", fontPath, err)
		} else {
			w.font = font
		}
	}
	return w, nil
}

// RefreshRate is the display refresh rate reported by SDL.
func (w *Window) RefreshRate() float64 { return w.rate }

func (w *Window) Close() {
	for _, t := range w.texts {
		t.tex.Destroy()
	}
	if w.font != nil {
		w.font.Close()
	}
	w.renderer.Destroy()
	w.window.Destroy()
}

// Show draws scene and presents it. With vsync on, Present returns once the
// frame is committed.
func (w *Window) Show(scene engine.Scene) (time.Time, error) {
	w.pump()

	r := w.renderer
	r.SetDrawColor(w.bg.R, w.bg.G, w.bg.B, w.bg.A)
	r.Clear()

	for _, rc := range scene.Rects {
		c := toSDL(engine.NamedColor(rc.Color))
		w.fill(w.layout.rectCorners(rc.Pos, w.cfg.RectSize[0], w.cfg.RectSize[1], rc.Ori), c)
	}
	black := sdl.Color{A: 255}
	if scene.Arrow != 0 {
		w.fill(w.layout.arrow(scene.Arrow), black)
	}
	if scene.Fixation {
		w.fill(w.layout.circle(engine.Point{}, fixRadius), black)
	}
	if w.cfg.Barcode.Enabled {
		w.drawPatch(scene.Patch)
	}
	if scene.Text != "" {
		w.drawText(scene.Text, textY)
	}
	if scene.Prompt != "" {
		w.drawText(scene.Prompt, promptY)
	}

	r.Present()
	at := time.Now()
	if !w.cfg.Monitor.VSync {
		sdl.Delay(1)
	}
	return at, nil
}

func (w *Window) fill(poly []vec, c sdl.Color) {
	w.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	for _, s := range scanline(poly) {
		w.renderer.RenderLine(float32(s.x0), float32(s.y), float32(s.x1), float32(s.y))
	}
}

// drawPatch paints the photodiode square at the left screen edge.
func (w *Window) drawPatch(white bool) {
	if white {
		w.renderer.SetDrawColor(255, 255, 255, 255)
	} else {
		w.renderer.SetDrawColor(0, 0, 0, 255)
	}
	box := sdl.FRect{X: 0, Y: float32(w.layout.h-patchPixels) / 2, W: patchPixels, H: patchPixels}
	w.renderer.RenderFillRect(&box)
}

func (w *Window) drawText(text string, yCM float64) {
	if w.font == nil {
		return
	}
	lineH := float32(textHeight * w.layout.pxPerCM * 1.4)
	lines := wrap(text, 60)
	top := float32(w.layout.px(engine.Point{Y: yCM}).y) - lineH*float32(len(lines))/2
	for i, line := range lines {
		if line == "" {
			continue
		}
		t := w.texture(line)
		if t == nil {
			continue
		}
		dst := sdl.FRect{
			X: (float32(w.layout.w) - t.w) / 2,
			Y: top + float32(i)*lineH,
			W: t.w,
			H: t.h,
		}
		w.renderer.RenderTexture(t.tex, nil, &dst)
	}
}

// texture renders a text line once and caches it.
func (w *Window) texture(line string) *textTexture {
	if t, ok := w.texts[line]; ok {
		return t
	}
	surf, err := w.font.RenderTextBlended(line, w.fg)
	if err != nil || surf == nil {
		return nil
	}
	defer surf.Destroy()
	tex, err := w.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return nil
	}
	t := &textTexture{tex: tex, w: float32(surf.W), h: float32(surf.H)}
	w.texts[line] = t
	return t
}

// Splash shows an image centered until any key or button is pressed. It
// reports false when the window was closed.
func (w *Window) Splash(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	tex, err := img.LoadTexture(w.renderer, path)
	if err != nil {
		return true, fmt.Errorf("load splash %s: %w", path, err)
	}
	defer tex.Destroy()

	tw, th, _ := tex.Size()
	dst := sdl.FRect{
		X: (float32(w.layout.w) - tw) / 2,
		Y: (float32(w.layout.h) - th) / 2,
		W: tw,
		H: th,
	}
	w.renderer.SetDrawColor(w.bg.R, w.bg.G, w.bg.B, w.bg.A)
	w.renderer.Clear()
	w.renderer.RenderTexture(tex, nil, &dst)
	w.renderer.Present()

	w.Clear()
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		w.pump()
		if len(w.pending) > 0 {
			quit := slices.Contains(w.pending, quitCode)
			w.Clear()
			return !quit, nil
		}
		sdl.Delay(5)
	}
}

const quitCode = "escape"

// pump moves queued SDL events into the pending press list. Mouse buttons
// are numbered from 0 (left) as the response device tables expect; keys use
// lower-case SDL key names.
func (w *Window) pump() {
	var ev sdl.Event
	for sdl.PollEvent(&ev) {
		switch ev.Type {
		case sdl.EVENT_QUIT:
			w.pending = append(w.pending, quitCode)
		case sdl.EVENT_MOUSE_BUTTON_DOWN:
			me := ev.MouseButtonEvent()
			w.pending = append(w.pending, strconv.Itoa(int(me.Button)-1))
		case sdl.EVENT_KEY_DOWN:
			ke := ev.KeyboardEvent()
			if ke.Key == sdl.K_ESCAPE {
				w.pending = append(w.pending, quitCode)
				continue
			}
			w.pending = append(w.pending, strings.ToLower(ke.Key.KeyName()))
		}
	}
}

func (w *Window) Poll(codes []string) (string, bool) {
	w.pump()
	for i, code := range w.pending {
		if slices.Contains(codes, code) {
			w.pending = slices.Delete(w.pending, i, i+1)
			return code, true
		}
	}
	return "", false
}

func (w *Window) Wait(ctx context.Context, codes []string) (string, error) {
	for {
		if code, ok := w.Poll(codes); ok {
			return code, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sdl.Delay(1)
	}
}

func (w *Window) Clear() {
	w.pump()
	w.pending = w.pending[:0]
}

func (w *Window) Discard(codes []string) {
	w.pump()
	w.pending = slices.DeleteFunc(w.pending, func(code string) bool {
		return slices.Contains(codes, code)
	})
}

func toSDL(c engine.Color) sdl.Color {
	return sdl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
