//go:build raylib

package gui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/voxelworld/internal/config"
	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/physics"
	"github.com/san-kum/voxelworld/internal/sim"
	"github.com/san-kum/voxelworld/internal/world"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

const (
	panSpeed        = 4
	explosionRadius = 10
)

type App struct {
	runner *sim.Runner
	reg    *material.Registry
	opts   Options
	view   Viewport
	font   rl.Font
	log    *slog.Logger

	snap     world.Snapshot
	pixels   []color.RGBA
	tex      rl.Texture2D
	texW     int
	texH     int
	interest image.Rectangle

	materials []material.ID
	selected  int
	brush     int
	running   bool

	// The OpenGL device must be driven from the thread owning the context.
	manual    bool
	fixedStep time.Duration
	nextFixed time.Time

	telemetry history
}

func initWindow(o Options) {
	rl.InitWindow(int32(o.Width), int32(o.Height), o.Title)
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	if font.Texture.ID == 0 {
		return rl.GetFontDefault()
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// Run opens the window, then builds the world so an OpenGL device finds a
// current context. It blocks until the window closes or ctx is done.
func Run(ctx context.Context, cfg *config.Config, phys physics.Engine, opts Options, log *slog.Logger) error {
	initWindow(opts)
	defer rl.CloseWindow()

	r, err := cfg.Build(phys, nil, log)
	if err != nil {
		return err
	}
	a := newApp(r, opts, log)
	defer rl.UnloadTexture(a.tex)

	if err := r.Start(ctx); err != nil {
		return err
	}
	a.running = true
	defer func() {
		if a.running {
			r.Stop()
		}
	}()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		a.Update()
		a.Draw()
	}
	return nil
}

func newApp(r *sim.Runner, opts Options, log *slog.Logger) *App {
	reg := r.World().Registry()
	var ids []material.ID
	for _, p := range reg.All() {
		if p.ID != material.Vacuum {
			ids = append(ids, p.ID)
		}
	}
	size := r.World().ChunkSize()
	interest := r.World().Interest()
	origin := interest.Min.Mul(size)
	cfg := r.Config()
	a := &App{
		runner:    r,
		reg:       reg,
		opts:      opts,
		view:      NewViewport(opts, origin),
		font:      loadFont(),
		log:       log,
		materials: ids,
		brush:     3,
		manual:    cfg.ManualFixedUpdate,
		fixedStep: time.Second / time.Duration(cfg.FixedHz),
		telemetry: history{keep: 200},
	}
	a.resizeTexture()
	return a
}

func (a *App) resizeTexture() {
	r := a.view.Rect()
	if r.Dx() == a.texW && r.Dy() == a.texH {
		return
	}
	if a.tex.ID != 0 {
		rl.UnloadTexture(a.tex)
	}
	img := rl.GenImageColor(r.Dx(), r.Dy(), rl.Blank)
	a.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	a.texW, a.texH = r.Dx(), r.Dy()
	a.pixels = make([]color.RGBA, r.Dx()*r.Dy())
}

func (a *App) Update() {
	a.handleInput()

	if a.manual && a.running && time.Now().After(a.nextFixed) {
		if err := a.runner.FixedUpdate(); err != nil {
			a.log.Warn("fixed update", "err", err)
		}
		a.nextFixed = time.Now().Add(a.fixedStep)
	}

	chunks := a.view.Chunks(a.runner.World().ChunkSize())
	if chunks != a.interest {
		a.runner.SetInterest(chunks)
		a.interest = chunks
	}

	a.resizeTexture()
	a.runner.SnapshotInto(&a.snap, a.view.Rect())
	copy(a.pixels, a.snap.Colors)
	rl.UpdateTexture(a.tex, a.pixels)

	stats := a.runner.Stats()
	a.telemetry.push(float64(stats.LastFixed) / float64(time.Millisecond))
}

func (a *App) handleInput() {
	switch {
	case rl.IsKeyDown(rl.KeyW):
		a.view.Pan(0, -panSpeed)
	case rl.IsKeyDown(rl.KeyS):
		a.view.Pan(0, panSpeed)
	}
	switch {
	case rl.IsKeyDown(rl.KeyA):
		a.view.Pan(-panSpeed, 0)
	case rl.IsKeyDown(rl.KeyD):
		a.view.Pan(panSpeed, 0)
	}

	mx, my := int(rl.GetMouseX()), int(rl.GetMouseY())
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		step := 1
		if wheel < 0 {
			step = -1
		}
		if rl.IsKeyDown(rl.KeyLeftControl) {
			a.view.Zoom(step, mx, my)
		} else {
			a.brush = min(max(a.brush+step, 0), 32)
		}
	}

	if rl.IsKeyPressed(rl.KeyTab) && len(a.materials) > 0 {
		a.selected = (a.selected + 1) % len(a.materials)
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.togglePause()
	}

	at := a.view.ToWorld(mx, my)
	switch {
	case rl.IsMouseButtonDown(rl.MouseButtonLeft) && len(a.materials) > 0:
		a.runner.Paint(a.materials[a.selected], at, a.brush)
	case rl.IsMouseButtonDown(rl.MouseButtonRight):
		a.runner.Paint(material.Vacuum, at, a.brush)
	}
	if rl.IsKeyPressed(rl.KeyE) {
		a.runner.Explode(at, explosionRadius)
	}
}

func (a *App) togglePause() {
	if a.running {
		if err := a.runner.Stop(); err != nil {
			a.log.Warn("stop", "err", err)
		}
		a.running = false
		return
	}
	if err := a.runner.Start(context.Background()); err != nil {
		a.log.Warn("start", "err", err)
		return
	}
	a.running = true
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	scale := float32(a.view.Scale)
	rl.DrawTextureEx(a.tex, rl.NewVector2(0, 0), 0, scale, rl.White)
	a.drawCursor()
	a.DrawHUD()

	rl.EndDrawing()
}

func (a *App) drawCursor() {
	mx, my := rl.GetMouseX(), rl.GetMouseY()
	radius := float32((a.brush + 1) * a.view.Scale)
	rl.DrawCircleLines(mx, my, radius, rl.NewColor(255, 255, 255, 100))
}

func (a *App) DrawHUD() {
	a.drawText("voxsim", 30, 30, 24, ColSelect)
	if len(a.materials) > 0 {
		name := a.reg.Get(a.materials[a.selected]).Name
		a.drawText(fmt.Sprintf(":: %s  r%d", name, a.brush), 140, 34, 16, ColText)
	}

	status := "RUNNING"
	col := ColSelect
	if !a.running {
		status = "PAUSED"
		col = ColTextDim
	}
	a.drawText(status, a.opts.Width-130, 30, 16, col)

	s := a.runner.Stats()
	lines := []string{
		fmt.Sprintf("tick %d", s.Ticks),
		fmt.Sprintf("chunks %d (%d active)", s.Last.Chunks, s.Last.Active),
		fmt.Sprintf("particles %d", s.Last.Particles),
		fmt.Sprintf("quantity %.1f", s.Last.Quantity),
		fmt.Sprintf("behind %d", s.Behind),
	}
	for i, l := range lines {
		a.drawText(l, 30, 70+i*20, 14, ColText)
	}

	a.DrawTelemetry()
	a.drawText("[LMB] PAINT  [RMB] ERASE  [E] EXPLODE  [TAB] MATERIAL  [WASD] PAN  [SPACE] PAUSE",
		a.opts.Width-760, a.opts.Height-40, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, a.opts.Height-40, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

// DrawTelemetry plots fixed-update time.
func (a *App) DrawTelemetry() {
	values := a.telemetry.values
	if len(values) < 2 {
		return
	}
	rectX, rectY := 30, a.opts.Height-120
	width, height := 400, 60
	lo, hi := a.telemetry.bounds()

	points := make([]rl.Vector2, len(values))
	for i, val := range values {
		px := float32(rectX) + (float32(i)/float32(len(values)))*float32(width)
		norm := (val - lo) / (hi - lo)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("fixed %.2fms", values[len(values)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}
