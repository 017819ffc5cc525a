// Package stream broadcasts world snapshots to browsers over websockets and
// accepts paint and explosion commands back.
package stream

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/voxelworld/internal/material"
	"github.com/san-kum/voxelworld/internal/sim"
	"github.com/san-kum/voxelworld/internal/world"
)

var (
	ErrBadView        = errors.New("stream: view must be positive and at most 512x512")
	ErrUnknownCommand = errors.New("stream: unknown command")
)

const (
	maxViewArea  = 512 * 512
	writeTimeout = 2 * time.Second
)

// Command is a client message. Type is one of view, paint or explode.
type Command struct {
	Type     string `json:"type"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w,omitempty"`
	H        int    `json:"h,omitempty"`
	Radius   int    `json:"radius,omitempty"`
	Material string `json:"material,omitempty"`
}

// Status is sent as a text message alongside frames.
type Status struct {
	Type      string  `json:"type"`
	Tick      uint64  `json:"tick"`
	Chunks    int     `json:"chunks"`
	Active    int     `json:"active"`
	Particles int     `json:"particles"`
	Quantity  float64 `json:"quantity"`
	FixedMS   float64 `json:"fixed_ms"`
	Error     string  `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	view image.Rectangle
	buf  []byte
}

func (c *client) writeFrame(tick uint64, snap *world.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = EncodeFrame(c.buf, tick, snap)
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, c.buf)
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub is a sim.Observer fanning frames out to every connected client. Each
// client chooses its own view rectangle.
type Hub struct {
	runner *sim.Runner
	log    *slog.Logger
	every  int
	view   image.Rectangle

	upgrader websocket.Upgrader
	pool     *sim.SnapshotPool

	mu      sync.RWMutex
	clients map[*client]struct{}
	samples int
}

// NewHub streams every Nth sample of r. New clients start on view.
func NewHub(r *sim.Runner, view image.Rectangle, every int, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		runner: r,
		log:    log.With("component", "stream"),
		every:  max(every, 1),
		view:   view,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pool:    sim.NewSnapshotPool(),
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it hangs up.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, view: h.view}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("client connected", "remote", r.RemoteAddr)

	defer func() {
		h.drop(c)
		h.log.Debug("client disconnected", "remote", r.RemoteAddr)
	}()

	h.send(c, h.runner.Stats().Last)
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if err := h.apply(c, cmd); err != nil {
			c.writeJSON(Status{Type: "error", Error: err.Error()})
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) apply(c *client, cmd Command) error {
	switch cmd.Type {
	case "view":
		if cmd.W <= 0 || cmd.H <= 0 || cmd.W*cmd.H > maxViewArea {
			return ErrBadView
		}
		h.mu.Lock()
		c.view = image.Rect(cmd.X, cmd.Y, cmd.X+cmd.W, cmd.Y+cmd.H)
		h.mu.Unlock()
	case "paint":
		id, ok := h.runner.World().Registry().Lookup(cmd.Material)
		if !ok {
			return fmt.Errorf("%w: %q", material.ErrUnknownMaterial, cmd.Material)
		}
		h.runner.Paint(id, image.Pt(cmd.X, cmd.Y), min(cmd.Radius, 16))
	case "explode":
		h.runner.Explode(image.Pt(cmd.X, cmd.Y), float64(min(max(cmd.Radius, 1), 32)))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

// OnSample implements sim.Observer.
func (h *Hub) OnSample(s sim.Sample) {
	h.mu.Lock()
	h.samples++
	due := h.samples%h.every == 0
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	if !due {
		return
	}

	var failed []*client
	for _, c := range clients {
		if err := h.send(c, s); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.log.Debug("dropping client", "remote", c.conn.RemoteAddr())
		h.drop(c)
	}
}

func (h *Hub) send(c *client, s sim.Sample) error {
	h.mu.RLock()
	view := c.view
	h.mu.RUnlock()

	snap := h.pool.Get()
	defer h.pool.Put(snap)
	h.runner.SnapshotInto(snap, view)

	if err := c.writeFrame(s.Tick, snap); err != nil {
		return err
	}
	return c.writeJSON(statusOf(s))
}

func statusOf(s sim.Sample) Status {
	return Status{
		Type:      "status",
		Tick:      s.Tick,
		Chunks:    s.Chunks,
		Active:    s.Active,
		Particles: s.Particles,
		Quantity:  s.Quantity,
		FixedMS:   float64(s.Fixed) / float64(time.Millisecond),
	}
}

var _ sim.Observer = (*Hub)(nil)
