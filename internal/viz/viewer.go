package viz

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/sim"
)

const (
	viewWidth       = 96
	viewHeight      = 28
	historyCapacity = 120
	panStep         = 8
	explosionRadius = 8
)

type TickMsg time.Time

// Model is the live viewer. It never steps the world itself: the runner's
// goroutines do, and every tick the model copies the visible rectangle.
type Model struct {
	runner    *sim.Runner
	pool      *sim.SnapshotPool
	reg       *material.Registry
	canvas    *Canvas
	origin    image.Point
	cursor    image.Point
	materials []material.ID
	selected  int
	brush     int
	paused    bool
	showHelp  bool
	theme     int
	fps       float64
	lastFrame time.Time

	tickHistory     []float64
	quantityHistory []float64
	stats           sim.Stats

	recorder *GIFRecorder
	status   string
}

// NewModel views r with the top-left of the screen at origin.
func NewModel(r *sim.Runner, origin image.Point) Model {
	reg := r.World().Registry()
	var ids []material.ID
	for _, p := range reg.All() {
		if p.ID != material.Vacuum {
			ids = append(ids, p.ID)
		}
	}
	return Model{
		runner:          r,
		pool:            sim.NewSnapshotPool(),
		reg:             reg,
		canvas:          NewCanvas(viewWidth, viewHeight),
		origin:          origin,
		cursor:          origin.Add(image.Pt(viewWidth/2, viewHeight)),
		materials:       ids,
		brush:           2,
		tickHistory:     make([]float64, 0, historyCapacity),
		quantityHistory: make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
				m.fps = 0.9*m.fps + 0.1/dt
			}
		}
		m.lastFrame = now
		m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.finishRecording()
		return m, tea.Quit
	case "up", "k":
		m.cursor.Y--
	case "down", "j":
		m.cursor.Y++
	case "left", "h":
		m.cursor.X--
	case "right", "l":
		m.cursor.X++
	case "K":
		m.origin.Y -= panStep
		m.cursor.Y -= panStep
	case "J":
		m.origin.Y += panStep
		m.cursor.Y += panStep
	case "H":
		m.origin.X -= panStep
		m.cursor.X -= panStep
	case "L":
		m.origin.X += panStep
		m.cursor.X += panStep
	case " ":
		if len(m.materials) > 0 {
			n := m.runner.Paint(m.materials[m.selected], m.cursor, m.brush)
			m.status = fmt.Sprintf("placed %d voxels", n)
		}
	case "x":
		m.runner.Explode(m.cursor, explosionRadius)
		m.status = "boom"
	case "tab":
		if len(m.materials) > 0 {
			m.selected = (m.selected + 1) % len(m.materials)
		}
	case "+", "=":
		m.brush = min(m.brush+1, 12)
	case "-":
		m.brush = max(m.brush-1, 0)
	case "p":
		m.togglePause()
	case "g":
		m.toggleRecording()
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
	case "?":
		m.showHelp = !m.showHelp
	}
	m.keepCursorVisible()
	return m, nil
}

func (m *Model) keepCursorVisible() {
	view := m.viewRect()
	if !m.cursor.In(view) {
		m.cursor.X = min(max(m.cursor.X, view.Min.X), view.Max.X-1)
		m.cursor.Y = min(max(m.cursor.Y, view.Min.Y), view.Max.Y-1)
	}
}

func (m *Model) viewRect() image.Rectangle {
	return m.canvas.Bounds().Add(m.origin)
}

func (m *Model) togglePause() {
	if m.paused {
		if err := m.runner.Start(context.Background()); err != nil {
			m.status = err.Error()
			return
		}
		m.paused = false
		return
	}
	if err := m.runner.Stop(); err != nil {
		m.status = err.Error()
	}
	m.paused = true
}

func (m *Model) toggleRecording() {
	if m.recorder != nil {
		m.finishRecording()
		return
	}
	m.recorder = NewGIFRecorder(m.reg, Themes[m.theme].Sky, 2, 3)
	m.status = "recording"
}

func (m *Model) finishRecording() {
	if m.recorder == nil || m.recorder.Len() == 0 {
		m.recorder = nil
		return
	}
	name := fmt.Sprintf("voxsim-%s.gif", time.Now().Format("20060102-150405"))
	f, err := os.Create(name)
	if err == nil {
		err = m.recorder.Save(f)
		f.Close()
	}
	if err != nil {
		m.status = fmt.Sprintf("gif: %v", err)
	} else {
		m.status = fmt.Sprintf("saved %s (%d frames)", name, m.recorder.Len())
	}
	m.recorder = nil
}

// refresh copies the view out of the world and updates the stats panel.
func (m *Model) refresh() {
	snap := m.pool.Get()
	defer m.pool.Put(snap)
	m.runner.SnapshotInto(snap, m.viewRect())

	theme := Themes[m.theme]
	m.canvas.Clear(theme.Sky)
	m.canvas.Blit(snap)
	c := m.cursor.Sub(m.origin)
	m.canvas.Set(c.X, c.Y, theme.Cursor)
	if m.recorder != nil {
		m.recorder.Capture(snap)
	}

	m.stats = m.runner.Stats()
	m.tickHistory = appendCapped(m.tickHistory, float64(m.stats.LastTick)/float64(time.Millisecond))
	m.quantityHistory = appendCapped(m.quantityHistory, m.stats.Last.Quantity)
}

func appendCapped(h []float64, v float64) []float64 {
	if len(h) == historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

func (m Model) View() string {
	theme := Themes[m.theme]
	canvas := panelStyle.BorderForeground(theme.Muted).Render(m.canvas.String())
	side := m.panel(theme)
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, side)
	if m.showHelp {
		body = lipgloss.JoinVertical(lipgloss.Left, body, hintStyle.Render(helpText))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, body, hintStyle.Render("? help  q quit"))
	}
	return body
}

func (m Model) panel(theme Theme) string {
	var b strings.Builder
	b.WriteString(header(theme, "VOXSIM") + "\n\n")

	state := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88")).Render("running")
	if m.paused {
		state = lipgloss.NewStyle().Bold(true).Foreground(theme.Warning).Render("paused")
	}
	if m.recorder != nil {
		state += lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(fmt.Sprintf("  ● %d", m.recorder.Len()))
	}
	b.WriteString(row("state", state) + "\n")

	name := "-"
	if len(m.materials) > 0 {
		name = m.reg.Get(m.materials[m.selected]).Name
	}
	b.WriteString(row("material", lipgloss.NewStyle().Foreground(theme.Accent).Render(name)) + "\n")
	b.WriteString(row("brush", fmt.Sprintf("%d", m.brush)) + "\n")
	b.WriteString(row("cursor", fmt.Sprintf("%d,%d", m.cursor.X, m.cursor.Y)) + "\n\n")

	s := m.stats
	b.WriteString(row("ticks", fmt.Sprintf("%d", s.Ticks)) + "\n")
	b.WriteString(row("tick", fmt.Sprintf("%.2fms", float64(s.LastTick)/float64(time.Millisecond))) + "\n")
	b.WriteString(row("fixed", fmt.Sprintf("%.2fms", float64(s.LastFixed)/float64(time.Millisecond))) + "\n")
	b.WriteString(row("behind", fmt.Sprintf("%d", s.Behind)) + "\n")
	b.WriteString(row("chunks", fmt.Sprintf("%d (%d active)", s.Last.Chunks, s.Last.Active)) + "\n")
	b.WriteString(row("particles", fmt.Sprintf("%d", s.Last.Particles)) + "\n")
	b.WriteString(row("quantity", fmt.Sprintf("%.1f", s.Last.Quantity)) + "\n")
	b.WriteString(row("fps", fmt.Sprintf("%.0f", m.fps)) + "\n\n")

	b.WriteString(labelStyle.Render("tick ms") + Sparkline(m.tickHistory, 24) + "\n")
	if len(m.quantityHistory) > 1 {
		b.WriteString("\n" + asciigraph.Plot(m.quantityHistory,
			asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("total quantity")) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + hintStyle.Render(m.status))
	}
	return panelStyle.BorderForeground(theme.Muted).Render(b.String())
}

const helpText = `arrows/hjkl cursor   HJKL pan   space paint   x explode
tab material   +/- brush   p pause   g record gif   t theme   q quit`
