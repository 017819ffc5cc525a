package physics

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is the recorder's view of one created body.
type Body struct {
	Def    BodyDef
	Shapes []Triangle
	Alive  bool
}

// Recorder is an in-memory engine. Bodies never move unless SetTransform is
// called.
type Recorder struct {
	mu         sync.Mutex
	bodies     map[BodyID]*Body
	next       BodyID
	Explosions []Explosion
	Destroyed  int
}

func NewRecorder() *Recorder {
	return &Recorder{bodies: make(map[BodyID]*Body)}
}

func (r *Recorder) CreateBody(def BodyDef) BodyID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.bodies[r.next] = &Body{Def: def, Alive: true}
	return r.next
}

func (r *Recorder) DestroyBody(id BodyID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bodies[id]; ok && b.Alive {
		b.Alive = false
		r.Destroyed++
	}
}

func (r *Recorder) CreatePolygonShape(id BodyID, tri Triangle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bodies[id]; ok {
		b.Shapes = append(b.Shapes, tri)
	}
}

func (r *Recorder) ApplyExplosion(e Explosion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Explosions = append(r.Explosions, e)
}

func (r *Recorder) Transform(id BodyID) (mgl64.Vec2, float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bodies[id]
	if !ok || !b.Alive {
		return mgl64.Vec2{}, 0, false
	}
	return b.Def.Position, b.Def.Rotation, true
}

// SetTransform moves a body as if the engine had stepped it.
func (r *Recorder) SetTransform(id BodyID, pos mgl64.Vec2, rot float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bodies[id]; ok {
		b.Def.Position = pos
		b.Def.Rotation = rot
	}
}

// Body returns a copy of the recorded body.
func (r *Recorder) Body(id BodyID) (Body, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bodies[id]
	if !ok {
		return Body{}, false
	}
	out := *b
	out.Shapes = append([]Triangle(nil), b.Shapes...)
	return out, true
}

// LiveBodies counts bodies not yet destroyed.
func (r *Recorder) LiveBodies() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bodies {
		if b.Alive {
			n++
		}
	}
	return n
}

// ExplosionCount is safe to call while the simulation runs.
func (r *Recorder) ExplosionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Explosions)
}
