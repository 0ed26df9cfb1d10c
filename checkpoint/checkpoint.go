// Package checkpoint tracks which channels have been processed in the
// current harvest cycle. The set is loaded once at run start, mutated in
// memory, and persisted wholesale at run end; entries are never pruned
// individually.
package checkpoint

import (
	"context"
	"sort"
)

// Set is the collection of channel IDs processed since the last cycle reset.
type Set map[string]struct{}

// NewSet builds a set from the given channel IDs.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add records a channel as processed.
func (s Set) Add(id string) { s[id] = struct{}{} }

// Has reports whether a channel has been processed this cycle.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of processed channels.
func (s Set) Len() int { return len(s) }

// Clear empties the set in place, starting a new cycle.
func (s Set) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// IDs returns the channel IDs in sorted order for deterministic persistence.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store loads and persists the processed-channel set. Save replaces the
// stored set wholesale; implementations never merge or append.
type Store interface {
	// Load returns the persisted set. A backend with no prior state
	// returns an empty set, not an error.
	Load(ctx context.Context) (Set, error)
	// Save overwrites the persisted set with the given one.
	Save(ctx context.Context, set Set) error
}
