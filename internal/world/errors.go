package world

import "errors"

// ErrInvalidOptions is raised when a matrix is built with options that would
// break the stepping invariants. It is a programming error and panics.
var ErrInvalidOptions = errors.New("world: invalid options")
