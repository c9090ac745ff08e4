package pipeline

import (
	"iter"

	"go.trai.ch/zerr"
)

// Store is an insertion-ordered registry of entities keyed by their declaration identifier.
type Store[T any] struct {
	keys  []string
	items map[string]T
}

// NewStore creates an empty Store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Add registers item under id.
// It returns an error if id is already taken.
func (s *Store[T]) Add(id string, item T) error {
	if s.items == nil {
		s.items = make(map[string]T)
	}
	if _, exists := s.items[id]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicateIdentifier, "cannot add "+id), "identifier", id)
	}
	s.keys = append(s.keys, id)
	s.items[id] = item
	return nil
}

// Get returns the item registered under id.
func (s *Store[T]) Get(id string) (T, bool) {
	item, ok := s.items[id]
	return item, ok
}

// Len returns the number of registered items.
func (s *Store[T]) Len() int {
	return len(s.keys)
}

// Keys returns the identifiers in declaration order.
func (s *Store[T]) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// All yields identifier and item pairs in declaration order.
func (s *Store[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, k := range s.keys {
			if !yield(k, s.items[k]) {
				return
			}
		}
	}
}

func mustAdd[T any](s *Store[T], id string, item T) T {
	if err := s.Add(id, item); err != nil {
		panic(err)
	}
	return item
}
