package schema

import (
	"fmt"
	"sort"

	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Registry maps type identifiers to record types.
// It is populated once before an import and read-only afterwards.
type Registry struct {
	types map[csvasset.TypeID]*RecordType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[csvasset.TypeID]*RecordType)}
}

// Register adds a record type. Registering the same identifier twice fails.
func (r *Registry) Register(rt *RecordType) error {
	if _, exists := r.types[rt.ID()]; exists {
		return fmt.Errorf("record type %s already registered: %w", rt.ID(), csvasset.ErrInvalidConfig)
	}
	r.types[rt.ID()] = rt
	return nil
}

// RegisterAll registers every type, stopping at the first failure.
func (r *Registry) RegisterAll(types []*RecordType) error {
	for _, rt := range types {
		if err := r.Register(rt); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the record type with exactly this identifier.
func (r *Registry) Lookup(id csvasset.TypeID) (*RecordType, error) {
	rt, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, csvasset.ErrUnknownType)
	}
	return rt, nil
}

// Resolve accepts a full identifier or a short name that matches exactly one type.
func (r *Registry) Resolve(name string) (*RecordType, error) {
	if rt, err := r.Lookup(csvasset.TypeID(name)); err == nil {
		return rt, nil
	}

	var matches []*RecordType
	for _, rt := range r.types {
		if rt.Name() == name {
			matches = append(matches, rt)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s: %w", name, csvasset.ErrUnknownType)
	case 1:
		return matches[0], nil
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].ID() < matches[j].ID() })
		return nil, fmt.Errorf("%s is ambiguous (%s, %s, ...), use the full name: %w",
			name, matches[0].ID(), matches[1].ID(), csvasset.ErrInvalidConfig)
	}
}

// List returns all record types ordered by full identifier.
func (r *Registry) List() []*RecordType {
	out := make([]*RecordType, 0, len(r.types))
	for _, rt := range r.types {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.types)
}
