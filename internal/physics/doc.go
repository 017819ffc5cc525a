// Package physics is the boundary to the rigid-body engine that owns the
// collision world.
//
// The voxel core never simulates rigid bodies itself. It produces static
// collision triangles for settled terrain, dynamic bodies for voxel objects
// and explosion impulses, and reads back body transforms after each physics
// step through the [Engine] interface:
//
//   - [Null]: discards everything, for headless runs
//   - [Recorder]: keeps every call, for tests and diagnostics
package physics
