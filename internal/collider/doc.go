// Package collider turns a boolean occupancy grid into collision geometry.
//
// Generate runs the whole pipeline: 4-connected labeling with pinhole
// filling, a boundary trace per label on the cell-corner lattice,
// simplification, winding normalization and ear-clipping triangulation.
// Degenerate input never fails; it simply yields no geometry for that
// label.
package collider
