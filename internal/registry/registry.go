// Package registry implements the per-connection name-to-object mapping:
// explicit bindings that live for the connection's lifetime, and implicit
// bindings that the peer can release.
package registry

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Kind distinguishes the two binding lifetimes a Name can have.
type Kind int

const (
	// Explicit bindings survive until the connection terminates; a
	// Release referencing one is ignored.
	Explicit Kind = iota
	// Implicit bindings live for as long as the peer holds interest
	// (tracked by its ProxyTable) and are removed on Release.
	Implicit
)

type binding struct {
	object any
	kind   Kind
}

// Registry maps Name to Binding for one connection. Implicit bindings are
// additionally indexed by object identity so repeated BindImplicit calls
// for the same object coalesce onto one Name.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]binding
	byObject     map[any]string
	nextImplicit atomic.Uint64
	prefix       string
}

// New creates an empty Registry. prefix distinguishes implicit names
// generated on this side of a connection from the peer's (cosmetic; it
// has no protocol meaning beyond being a string Name).
func New(prefix string) *Registry {
	return &Registry{
		byName:   make(map[string]binding),
		byObject: make(map[any]string),
		prefix:   prefix,
	}
}

// BindExplicit binds name to object with Explicit lifetime, overwriting
// any existing binding under that name (idempotent from the caller's
// perspective: repeated calls with the same object are no-ops in effect).
func (r *Registry) BindExplicit(name string, object any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = binding{object: object, kind: Explicit}
}

// BindImplicit returns the Name for object, generating and recording a
// fresh one on first sight. object must be comparable; it is used as a
// map key for identity-based coalescing. The comparability check happens
// before any lock is taken, so a non-comparable object never reaches the
// map access that would panic.
func (r *Registry) BindImplicit(object any) (string, error) {
	if object == nil || !reflect.TypeOf(object).Comparable() {
		return "", fmt.Errorf("registry: object of type %T is not comparable", object)
	}

	r.mu.RLock()
	if existing, ok := r.byObject[object]; ok {
		r.mu.RUnlock()
		return existing, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byObject[object]; ok {
		return existing, nil
	}
	id := r.nextImplicit.Add(1)
	name := fmt.Sprintf("%simplicit-%d", r.prefix, id)
	r.byName[name] = binding{object: object, kind: Implicit}
	r.byObject[object] = name
	return name, nil
}

// Lookup returns the object bound to name, if any.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return b.object, true
}

// Release removes name's binding only if it is Implicit; Explicit and
// unknown names are left untouched.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byName[name]
	if !ok || b.kind != Implicit {
		return
	}
	delete(r.byName, name)
	delete(r.byObject, b.object)
}

// Names returns a snapshot of every bound name, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}
