// Package material holds the immutable per-material physical properties the
// voxel simulation reads while stepping.
//
// A [Registry] is filled once during setup, then closed:
//
//	reg := material.Default()
//	water := reg.MustID("water")
//	props := reg.Get(water)
//
// After [Registry.Close] the registry is read-only and safe for concurrent
// readers. Registering after close, or asking for an id that was never
// registered, panics: both are authoring mistakes, not runtime conditions.
//
// # Kinds
//
// Every material has a [Kind], a closed set of behaviours (gas, liquid,
// solid and the reactive fire/acid variants). Per-kind capabilities such as
// the phase, whether the kind can ignite and its inertia resistance live in a
// fixed table looked up with [Kind.Capability].
package material
