// Package registry stores named entities of one kind behind stable,
// generation-checked handles.
package registry

import (
	"iter"
	"maps"
	"slices"
)

// ID is an opaque handle to a registry entry. The zero ID never resolves.
// Replacing or deleting an entry bumps its generation, so an ID obtained
// before the change stops resolving instead of pointing at the new value.
type ID struct {
	index uint32
	gen   uint32
}

func (id ID) Valid() bool {
	return id.gen != 0
}

type entry[T any] struct {
	name  string
	gen   uint32
	value *T
}

type Registry[T any] struct {
	entries []entry[T]
	byName  map[string]int
}

func New[T any]() *Registry[T] {
	return &Registry[T]{byName: make(map[string]int)}
}

// Set inserts value under name, or replaces the existing entry.
func (r *Registry[T]) Set(name string, value T) ID {
	v := value
	if i, ok := r.byName[name]; ok {
		e := &r.entries[i]
		e.gen++
		e.value = &v
		return ID{index: uint32(i), gen: e.gen}
	}
	r.entries = append(r.entries, entry[T]{name: name, gen: 1, value: &v})
	i := len(r.entries) - 1
	r.byName[name] = i
	return ID{index: uint32(i), gen: 1}
}

func (r *Registry[T]) Get(name string) (*T, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].value, true
}

func (r *Registry[T]) Lookup(name string) (ID, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ID{}, false
	}
	return ID{index: uint32(i), gen: r.entries[i].gen}, true
}

// Resolve returns the entity for id, or false when id is stale, zero or
// issued by another registry with fewer entries.
func (r *Registry[T]) Resolve(id ID) (*T, bool) {
	e, ok := r.entry(id)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Name returns the name owning id, or "" when id does not resolve.
func (r *Registry[T]) Name(id ID) string {
	e, ok := r.entry(id)
	if !ok {
		return ""
	}
	return e.name
}

func (r *Registry[T]) Delete(name string) bool {
	i, ok := r.byName[name]
	if !ok {
		return false
	}
	e := &r.entries[i]
	e.gen++
	e.value = nil
	delete(r.byName, name)
	return true
}

func (r *Registry[T]) Clear() {
	for name := range r.byName {
		r.Delete(name)
	}
}

func (r *Registry[T]) Len() int {
	return len(r.byName)
}

// Names returns the live names in lexicographic order.
func (r *Registry[T]) Names() []string {
	return slices.Sorted(maps.Keys(r.byName))
}

// IDs returns the live handles in name order.
func (r *Registry[T]) IDs() []ID {
	names := r.Names()
	ids := make([]ID, 0, len(names))
	for _, name := range names {
		id, _ := r.Lookup(name)
		ids = append(ids, id)
	}
	return ids
}

// All iterates live entries in name order.
func (r *Registry[T]) All() iter.Seq2[string, *T] {
	return func(yield func(string, *T) bool) {
		for _, name := range r.Names() {
			if !yield(name, r.entries[r.byName[name]].value) {
				return
			}
		}
	}
}

func (r *Registry[T]) entry(id ID) (*entry[T], bool) {
	if !id.Valid() || int(id.index) >= len(r.entries) {
		return nil, false
	}
	e := &r.entries[id.index]
	if e.gen != id.gen || e.value == nil {
		return nil, false
	}
	return e, true
}
