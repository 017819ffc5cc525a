package physics

import "github.com/go-gl/mathgl/mgl64"

// BodyID identifies a body inside the engine. Zero is never a valid body.
type BodyID uint64

// Triangle is one convex collision polygon in world coordinates.
type Triangle [3]mgl64.Vec2

// BodyDef describes a body to create.
type BodyDef struct {
	Static   bool
	Position mgl64.Vec2
	Rotation float64
}

// Explosion is an impulse the engine applies to every body in range.
type Explosion struct {
	Position  mgl64.Vec2
	Radius    float64
	Falloff   float64
	Magnitude float64
}

type Engine interface {
	CreateBody(def BodyDef) BodyID
	DestroyBody(id BodyID)
	CreatePolygonShape(body BodyID, tri Triangle)
	ApplyExplosion(e Explosion)
	// Transform reports the post-step pose of a body; ok is false for
	// unknown bodies.
	Transform(body BodyID) (pos mgl64.Vec2, rot float64, ok bool)
}

// Null is an engine that accepts and forgets everything.
type Null struct {
	next BodyID
}

func (n *Null) CreateBody(BodyDef) BodyID {
	n.next++
	return n.next
}

func (n *Null) DestroyBody(BodyID)                  {}
func (n *Null) CreatePolygonShape(BodyID, Triangle) {}
func (n *Null) ApplyExplosion(Explosion)            {}

func (n *Null) Transform(BodyID) (mgl64.Vec2, float64, bool) {
	return mgl64.Vec2{}, 0, false
}
