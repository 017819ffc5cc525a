// Package world holds the chunked voxel matrix and its cellular automaton.
//
// A Matrix owns sparse, lazily generated chunks of size×size voxels. Each
// tick commits every chunk's dirty rectangle, then steps the four parity
// classes of chunks in sequence, running the chunks of one class in
// parallel. No two chunks of a class share an edge and no step rule reaches
// further than half a chunk, so those goroutines never touch the same cell.
//
// World coordinates are screen-like: +y points down, which is also the
// direction of gravity.
//
// Matrix methods are not safe for concurrent use. Callers serialize access
// with Locks.Voxel; structural changes additionally take Locks.Chunks, in
// that order.
package world
