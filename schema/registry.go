package schema

import "sync"

// Registry is the process-wide, interned cache of DocumentSchema keyed by
// fully-qualified host class name (e.g. "module.ClassName"), per spec §4.2.
// Registration is idempotent: a second Register for the same name
// overwrites the first, supporting interactive redefinition from the host
// binding. Reads vastly outnumber writes, so a RWMutex is sufficient; this
// mirrors the teacher driver's own read-heavy topology description cache.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]entry
}

type entry struct {
	schema DocumentSchema
	strict bool
}

// NewRegistry constructs an empty Registry. Callers typically hold one
// Registry per Client (see package engine), not a single package-level
// global, so that tests and independently configured pools never share
// cache state.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]entry)}
}

// Register stores s under name, overwriting any previous registration.
func (r *Registry) Register(name string, s DocumentSchema) {
	r.register(name, s, false)
}

// RegisterStrict is Register with strict mode enabled: Lookup callers that
// check Strict will reject documents carrying fields the schema does not
// declare. This is the per-class opt-in spec.md §9 reserves for "a future
// option behind a per-class flag."
func (r *Registry) RegisterStrict(name string, s DocumentSchema) {
	r.register(name, s, true)
}

func (r *Registry) register(name string, s DocumentSchema, strict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = entry{schema: s, strict: strict}
}

// Lookup returns the DocumentSchema registered under name, if any. A miss
// (ok == false) means "no schema", which the operation layer interprets as
// "skip validation" unless the caller explicitly requires registration.
func (r *Registry) Lookup(name string) (DocumentSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.classes[name]
	return e.schema, ok
}

// Strict reports whether name was registered with RegisterStrict. Returns
// false for an unregistered class.
func (r *Registry) Strict(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[name].strict
}

// Forget removes a registration. Not part of spec.md's contract but needed
// by tests that must not leak registrations across cases when a Registry is
// shared (see package engine's pool-scoped registries, which normally make
// this unnecessary in production use).
func (r *Registry) Forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.classes, name)
}
