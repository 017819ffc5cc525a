package stream

import (
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/voxelworld/internal/sim"
	"github.com/san-kum/voxelworld/internal/world"
)

func newRunner(t *testing.T) *sim.Runner {
	t.Helper()
	opts := world.DefaultOptions()
	opts.ChunkSize = 16
	opts.Workers = 1
	r, err := sim.NewRunner(world.NewMatrix(opts), sim.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.BinaryMessage {
		t.Fatalf("expected a binary frame, got %q", data)
	}
	f, err := DecodeFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func readStatus(t *testing.T, conn *websocket.Conn) Status {
	t.Helper()
	var s Status
	if err := conn.ReadJSON(&s); err != nil {
		t.Fatalf("read status: %v", err)
	}
	return s
}

// await sends a command the hub rejects and waits for the rejection, so
// everything sent before it has been applied.
func await(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.WriteJSON(Command{Type: "noop"}); err != nil {
		t.Fatal(err)
	}
	if s := readStatus(t, conn); s.Type != "error" {
		t.Fatalf("expected error status, got %+v", s)
	}
}

func TestFrameEncoding(t *testing.T) {
	s := &world.Snapshot{
		Rect:   image.Rect(-3, 5, -1, 6),
		Colors: []color.RGBA{{1, 2, 3, 4}, {5, 6, 7, 8}},
	}
	f, err := DecodeFrame(EncodeFrame(nil, 9, s))
	if err != nil {
		t.Fatal(err)
	}
	if f.Tick != 9 || f.Rect != s.Rect {
		t.Errorf("header %d %v", f.Tick, f.Rect)
	}
	if string(f.RGBA) != string([]byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("pixels %v", f.RGBA)
	}

	if _, err := DecodeFrame(make([]byte, 4)); err == nil {
		t.Error("short header accepted")
	}
	b := EncodeFrame(nil, 1, s)
	if _, err := DecodeFrame(b[:len(b)-1]); err == nil {
		t.Error("truncated pixels accepted")
	}
}

func TestHubStreamsView(t *testing.T) {
	r := newRunner(t)
	h := NewHub(r, image.Rect(16, 16, 32, 32), 1, nil)
	conn := dial(t, h)

	if f := readFrame(t, conn); f.Rect != image.Rect(16, 16, 32, 32) {
		t.Errorf("initial frame covers %v", f.Rect)
	}
	readStatus(t, conn)
	if h.Clients() != 1 {
		t.Fatalf("%d clients registered", h.Clients())
	}

	if err := conn.WriteJSON(Command{Type: "view", X: 20, Y: 24, W: 8, H: 4}); err != nil {
		t.Fatal(err)
	}
	await(t, conn)

	h.OnSample(sim.Sample{Tick: 7, Chunks: 3})
	f := readFrame(t, conn)
	if f.Rect != image.Rect(20, 24, 28, 28) || f.Tick != 7 {
		t.Errorf("frame %d %v", f.Tick, f.Rect)
	}
	if len(f.RGBA) != 8*4*4 {
		t.Errorf("frame carries %d bytes", len(f.RGBA))
	}
	if s := readStatus(t, conn); s.Chunks != 3 || s.Tick != 7 {
		t.Errorf("status %+v", s)
	}
}

func TestHubSkipsSamples(t *testing.T) {
	h := NewHub(newRunner(t), image.Rect(16, 16, 20, 20), 3, nil)
	conn := dial(t, h)
	readFrame(t, conn)
	readStatus(t, conn)

	h.OnSample(sim.Sample{Tick: 1})
	h.OnSample(sim.Sample{Tick: 2})
	h.OnSample(sim.Sample{Tick: 3})
	if f := readFrame(t, conn); f.Tick != 3 {
		t.Errorf("first streamed tick %d, want 3", f.Tick)
	}
}

func TestHubCommands(t *testing.T) {
	r := newRunner(t)
	h := NewHub(r, image.Rect(16, 16, 32, 32), 1, nil)
	conn := dial(t, h)
	readFrame(t, conn)
	readStatus(t, conn)

	if err := conn.WriteJSON(Command{Type: "paint", Material: "stone", X: 20, Y: 20}); err != nil {
		t.Fatal(err)
	}
	await(t, conn)

	var snap world.Snapshot
	r.SnapshotInto(&snap, image.Rect(20, 20, 21, 21))
	_, id, ok := snap.At(image.Pt(20, 20))
	if !ok || id != uint16(r.World().Registry().MustID("stone")) {
		t.Errorf("paint left material %d", id)
	}

	tests := []Command{
		{Type: "paint", Material: "unobtainium"},
		{Type: "view", W: 0, H: 10},
		{Type: "view", W: 1024, H: 1024},
	}
	for _, cmd := range tests {
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatal(err)
		}
		if s := readStatus(t, conn); s.Type != "error" || s.Error == "" {
			t.Errorf("%+v: got %+v", cmd, s)
		}
	}
}

func TestHubServesClient(t *testing.T) {
	srv := httptest.NewServer(NewHub(newRunner(t), image.Rect(0, 0, 8, 8), 1, nil).Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}
