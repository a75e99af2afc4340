package world

import "talesim/internal/registry"

type Edge struct {
	Left  registry.ID
	Right registry.ID
}

// Relation is a named set of actor pairs. Both flags are fixed at creation.
type Relation struct {
	Directional    bool
	AllowReflexive bool

	edges map[Edge]struct{}
}

func NewRelation(directional, allowReflexive bool) Relation {
	return Relation{
		Directional:    directional,
		AllowReflexive: allowReflexive,
		edges:          make(map[Edge]struct{}),
	}
}

// Insert adds (left, right), and (right, left) when undirected. A
// reflexive pair is silently refused unless the relation allows it.
func (r *Relation) Insert(left, right registry.ID) {
	if !r.AllowReflexive && left == right {
		return
	}
	if r.edges == nil {
		r.edges = make(map[Edge]struct{})
	}
	r.edges[Edge{Left: left, Right: right}] = struct{}{}
	if !r.Directional {
		r.edges[Edge{Left: right, Right: left}] = struct{}{}
	}
}

func (r *Relation) Erase(left, right registry.ID) {
	delete(r.edges, Edge{Left: left, Right: right})
	if !r.Directional {
		delete(r.edges, Edge{Left: right, Right: left})
	}
}

func (r *Relation) Contains(left, right registry.ID) bool {
	_, ok := r.edges[Edge{Left: left, Right: right}]
	return ok
}

func (r *Relation) Len() int {
	return len(r.edges)
}

// Edges returns every stored pair in unspecified order.
func (r *Relation) Edges() []Edge {
	out := make([]Edge, 0, len(r.edges))
	for e := range r.edges {
		out = append(out, e)
	}
	return out
}
