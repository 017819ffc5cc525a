// Package gen provides the chunk generators a world is created with.
//
// Generators are pure functions of the seed and the chunk coordinate, so a
// chunk evicted and regenerated later comes back identical. Names map to
// constructors through a Registry, which the CLI and config layer use.
package gen
