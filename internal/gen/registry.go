package gen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/voxelworld/internal/world"
)

var ErrUnknownGenerator = errors.New("unknown generator")

type Registry struct {
	generators map[string]func(Params) world.Generator
}

func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]func(Params) world.Generator)}
	r.generators["empty"] = Empty
	r.generators["flat"] = Flat
	r.generators["terrain"] = Terrain
	return r
}

// Register adds or replaces a named generator constructor.
func (r *Registry) Register(name string, fn func(Params) world.Generator) {
	r.generators[name] = fn
}

func (r *Registry) Get(name string, p Params) (world.Generator, error) {
	fn, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGenerator, name)
	}
	return fn(p), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
