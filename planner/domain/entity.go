package domain

import (
	"fmt"
	"sort"
)

// EntityRequirement declares that an action needs count entities of a
// capability type for its whole extent.
type EntityRequirement struct {
	Type  string
	Count int
}

// EntityRegistry maps entity types to capabilities and concrete entity
// ids to their types. It is read-only at planning time; per-plan
// allocation state lives with the search, not here.
type EntityRegistry struct {
	capabilities map[string][]string
	entities     map[string]string // entity id → type
}

// NewEntityRegistry creates an empty registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		capabilities: make(map[string][]string),
		entities:     make(map[string]string),
	}
}

// RegisterType declares an entity type and its capabilities.
func (r *EntityRegistry) RegisterType(typ string, capabilities []string) {
	r.capabilities[typ] = append([]string(nil), capabilities...)
}

// AddEntity declares a concrete entity of a registered type.
func (r *EntityRegistry) AddEntity(id, typ string) error {
	if _, ok := r.capabilities[typ]; !ok {
		return fmt.Errorf("entity %q: unregistered type %q", id, typ)
	}
	r.entities[id] = typ
	return nil
}

// CapabilitiesOf returns the capabilities of a type.
func (r *EntityRegistry) CapabilitiesOf(typ string) ([]string, bool) {
	caps, ok := r.capabilities[typ]
	return caps, ok
}

// EntitiesOfType returns the ids of all entities of the given type,
// sorted for determinism.
func (r *EntityRegistry) EntitiesOfType(typ string) []string {
	var out []string
	for id, t := range r.entities {
		if t == typ {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// TypeOf returns the type of a concrete entity.
func (r *EntityRegistry) TypeOf(id string) (string, bool) {
	t, ok := r.entities[id]
	return t, ok
}

func (r *EntityRegistry) clone() *EntityRegistry {
	out := NewEntityRegistry()
	for typ, caps := range r.capabilities {
		out.capabilities[typ] = append([]string(nil), caps...)
	}
	for id, typ := range r.entities {
		out.entities[id] = typ
	}
	return out
}
