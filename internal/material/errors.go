package material

import "errors"

var (
	// ErrUnknownMaterial indicates an id or name that was never registered.
	ErrUnknownMaterial = errors.New("material: unknown material")

	// ErrRegistryClosed indicates a mutation after Close.
	ErrRegistryClosed = errors.New("material: registry is closed")

	// ErrDuplicateMaterial indicates a name registered twice.
	ErrDuplicateMaterial = errors.New("material: duplicate material name")

	// ErrUnresolvedReference indicates a transition, burn or reaction target
	// naming a material that does not exist at close time.
	ErrUnresolvedReference = errors.New("material: unresolved material reference")

	// ErrUnknownKind indicates a kind name that is not one of the closed set.
	ErrUnknownKind = errors.New("material: unknown kind")
)
