// Package snapshot tracks the last value published for every (category,
// entity, field) triple so the watchdog only emits MQTT publishes on
// change, per spec.md §4.E. Categories are independent and never compared
// against each other; the fast scan owns the zones/secteurs/doors/outputs
// categories and the controller scan owns its own etat category, matching
// the no-cross-access rule in spec.md §5.
package snapshot

import "sync"

// Store holds, for every category, a map from entity id to a map from field
// name to the last value actually published for it. A (category, id, field)
// triple with no entry has never been published.
type Store struct {
	mu         sync.Mutex
	categories map[string]map[string]map[string]string
}

// New returns an empty Store. The first scan against it will find no prior
// entries and therefore publish every field it considers, matching spec.md
// §4.E's "initial scan ... publishes every metadata field and every
// parseable state, unconditionally."
func New() *Store {
	return &Store{categories: make(map[string]map[string]map[string]string)}
}

// ShouldPublish reports whether value differs from the last value committed
// for (category, id, field), or whether no value has ever been committed for
// it. It does not mutate the store -- callers commit only once the publish
// actually succeeds, so a transient MQTT error leaves the snapshot
// unchanged and the next scan retries the emit (spec.md §4.F, §7).
func (s *Store) ShouldPublish(category, id, field, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.categories[category][id]
	last, ok := fields[field]
	return !ok || last != value
}

// Commit records value as the last published value for (category, id,
// field). Call it only after a successful publish.
func (s *Store) Commit(category, id, field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entities, ok := s.categories[category]
	if !ok {
		entities = make(map[string]map[string]string)
		s.categories[category] = entities
	}
	fields, ok := entities[id]
	if !ok {
		fields = make(map[string]string)
		entities[id] = fields
	}
	fields[field] = value
}
