package event

import (
	"cmp"
	"maps"
	"slices"

	"talesim/internal/diag"
	"talesim/internal/registry"
	"talesim/internal/world"
)

// Triple names a relation edge between two slots of the same event.
type Triple struct {
	Left     string
	Relation string
	Right    string
}

func (t Triple) String() string {
	return t.Left + ":" + t.Relation + ":" + t.Right
}

func compareTriples(a, b Triple) int {
	return cmp.Or(
		cmp.Compare(a.Left, b.Left),
		cmp.Compare(a.Relation, b.Relation),
		cmp.Compare(a.Right, b.Right),
	)
}

type TripleSet map[Triple]struct{}

func (s TripleSet) Add(t Triple) {
	s[t] = struct{}{}
}

func (s TripleSet) Sorted() []Triple {
	return slices.SortedFunc(maps.Keys(s), compareTriples)
}

type RelSpec struct {
	Require TripleSet
	Forbid  TripleSet
	Add     TripleSet
	Remove  TripleSet
}

func NewRelSpec() RelSpec {
	return RelSpec{
		Require: TripleSet{},
		Forbid:  TripleSet{},
		Add:     TripleSet{},
		Remove:  TripleSet{},
	}
}

// Constrained reports whether the spec restricts which bindings are
// acceptable. Adds and removes alone do not.
func (r *RelSpec) Constrained() bool {
	return len(r.Require) > 0 || len(r.Forbid) > 0
}

func (r *RelSpec) IsZero() bool {
	return !r.Constrained() && len(r.Add) == 0 && len(r.Remove) == 0
}

// All returns every triple of the spec in a stable order.
func (r *RelSpec) All() []Triple {
	var out []Triple
	for _, set := range []TripleSet{r.Require, r.Forbid, r.Add, r.Remove} {
		out = append(out, set.Sorted()...)
	}
	return out
}

// Satisfied checks the binding against the relation predicates. Triples
// naming an unknown relation or an unbound slot are reported and skipped.
// A binding that would need a reflexive add on a relation refusing those
// is rejected up front.
func (r *RelSpec) Satisfied(b *Binding, w *world.World, d *diag.Collector) bool {
	for _, t := range r.Require.Sorted() {
		rel, left, right, ok := resolveTriple(t, b, w, d)
		if ok && !rel.Contains(left, right) {
			return false
		}
	}
	for _, t := range r.Forbid.Sorted() {
		rel, left, right, ok := resolveTriple(t, b, w, d)
		if ok && rel.Contains(left, right) {
			return false
		}
	}
	for _, t := range r.Add.Sorted() {
		rel, left, right, ok := resolveTriple(t, b, w, d)
		if ok && !rel.AllowReflexive && left == right {
			return false
		}
	}
	return true
}

// Mutate inserts every add edge, then erases every remove edge.
func (r *RelSpec) Mutate(b *Binding, w *world.World, d *diag.Collector) {
	for _, t := range r.Add.Sorted() {
		if rel, left, right, ok := resolveTriple(t, b, w, d); ok {
			rel.Insert(left, right)
		}
	}
	for _, t := range r.Remove.Sorted() {
		if rel, left, right, ok := resolveTriple(t, b, w, d); ok {
			rel.Erase(left, right)
		}
	}
}

func resolveTriple(t Triple, b *Binding, w *world.World, d *diag.Collector) (*world.Relation, registry.ID, registry.ID, bool) {
	rel, ok := w.Relations.Get(t.Relation)
	if !ok {
		d.Warnf(diag.CodeUnknownRelation, "relspec: relation %s does not exist", t.Relation)
		return nil, registry.ID{}, registry.ID{}, false
	}
	left, ok := b.Slot(t.Left)
	if !ok {
		d.Warnf(diag.CodeUnknownSlot, "relspec: slot %s does not exist", t.Left)
		return nil, registry.ID{}, registry.ID{}, false
	}
	right, ok := b.Slot(t.Right)
	if !ok {
		d.Warnf(diag.CodeUnknownSlot, "relspec: slot %s does not exist", t.Right)
		return nil, registry.ID{}, registry.ID{}, false
	}
	return rel, left, right, true
}
