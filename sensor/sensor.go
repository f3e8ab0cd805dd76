// Package sensor projects coordinator snapshots into named sensor values.
//
// A sensor is a stateless projection: a scalar state plus a string
// attribute map derived from the latest snapshot. Definitions carry the
// Home Assistant presentation metadata (icon, unit, state class) alongside
// the projection funcs.
package sensor

import (
	"fmt"

	"github.com/hassbridge/sonarrbridge/coordinator"
)

// Definition describes one sensor projected from the coordinator snapshot.
type Definition struct {
	Key            string
	Name           string
	Icon           string
	Unit           string
	StateClass     string
	EnabledDefault bool

	// Datapoints the sensor needs beyond the always-collected app
	// datapoint.
	Datapoints []coordinator.Datapoint

	// State returns the scalar sensor value. ok is false while the
	// backing datapoint has no data yet.
	State func(data *coordinator.Data) (value any, ok bool)

	// Attributes returns the extra state attributes.
	Attributes func(data *coordinator.Data) map[string]string
}

// Registry holds the active sensor definitions in a stable order.
type Registry struct {
	defs  []*Definition
	byKey map[string]*Definition
}

// NewRegistry builds a registry from the given definitions. Duplicate
// keys are rejected.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{
		byKey: make(map[string]*Definition, len(defs)),
	}

	for _, def := range defs {
		if def.Key == "" {
			return nil, fmt.Errorf("sensor definition without a key")
		}

		if _, ok := r.byKey[def.Key]; ok {
			return nil, fmt.Errorf("duplicate sensor key: %s", def.Key)
		}

		r.defs = append(r.defs, def)
		r.byKey[def.Key] = def
	}

	return r, nil
}

// All returns every definition in registration order.
func (r *Registry) All() []*Definition {
	return r.defs
}

// Get looks up a definition by key.
func (r *Registry) Get(key string) (*Definition, bool) {
	def, ok := r.byKey[key]
	return def, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}
