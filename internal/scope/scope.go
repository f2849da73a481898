// Package scope implements the OAuth2 scope registry: scope names mapped to
// bit positions so a scope set can be stored as a single integer.
package scope

import (
	"errors"
	"fmt"
	"strings"
)

// OpenID is the distinguished scope that switches a request into OIDC mode.
const OpenID = "openid"

// ErrInvalidScope is returned when a scope string contains unknown tokens.
var ErrInvalidScope = errors.New("invalid_scope")

// Registry asigna un bit a cada scope conocido. El orden de registro define
// la posición del bit, por lo que la representación entera es estable.
type Registry struct {
	bits  map[string]uint64
	names []string // indexed by bit position
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bits: make(map[string]uint64)}
}

// Default returns a registry with the built-in provider scopes.
func Default() *Registry {
	r := NewRegistry()
	for _, name := range []string{OpenID, "profile", "email", "permissions"} {
		_ = r.Register(name)
	}
	return r
}

// Register agrega un scope al registry. Retorna error si ya existe o si se
// agotaron los 64 bits disponibles.
func (r *Registry) Register(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty scope name")
	}
	if _, ok := r.bits[name]; ok {
		return fmt.Errorf("scope already registered: %q", name)
	}
	if len(r.names) >= 64 {
		return fmt.Errorf("scope registry full")
	}
	r.bits[name] = 1 << uint(len(r.names))
	r.names = append(r.names, name)
	return nil
}

// Known reports whether the scope name is registered.
func (r *Registry) Known(name string) bool {
	_, ok := r.bits[name]
	return ok
}

// Parse convierte un scope string (tokens separados por whitespace) en un Set.
// Un token desconocido produce ErrInvalidScope.
func (r *Registry) Parse(s string) (Set, error) {
	var set Set
	for _, tok := range strings.Fields(s) {
		bit, ok := r.bits[tok]
		if !ok {
			return 0, fmt.Errorf("%w: unknown scope %q", ErrInvalidScope, tok)
		}
		set |= Set(bit)
	}
	return set, nil
}

// FromInt reconstructs a Set from its canonical integer form. Bits outside
// the registered range fail with ErrInvalidScope.
func (r *Registry) FromInt(v uint64) (Set, error) {
	var max uint64
	if len(r.names) == 64 {
		max = ^uint64(0)
	} else {
		max = (uint64(1) << uint(len(r.names))) - 1
	}
	if v&^max != 0 {
		return 0, fmt.Errorf("%w: unregistered bits in %#x", ErrInvalidScope, v)
	}
	return Set(v), nil
}

// Strings devuelve los nombres del set en orden de bit (determinístico).
func (r *Registry) Strings(s Set) []string {
	out := make([]string, 0, len(r.names))
	for i, name := range r.names {
		if s&(1<<uint(i)) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// Join serializa el set como string space-separated, en orden de bit.
func (r *Registry) Join(s Set) string {
	return strings.Join(r.Strings(s), " ")
}

// Set is a scope set in canonical bitmask form.
type Set uint64

// Has reports whether the set contains the named scope under the registry.
func (s Set) Has(r *Registry, name string) bool {
	bit, ok := r.bits[name]
	return ok && uint64(s)&bit != 0
}

// IsEmpty reports whether no scopes are set.
func (s Set) IsEmpty() bool { return s == 0 }

// Int returns the canonical integer representation.
func (s Set) Int() uint64 { return uint64(s) }
