package event

import (
	"maps"
	"slices"

	"talesim/internal/diag"
	"talesim/internal/template"
	"talesim/internal/world"
)

// ActorSpec is the predicate and mutation attached to one slot of an event,
// or to the world pseudo-actor. For required and forbidden properties an
// empty value matches on key presence alone. Property additions and
// removals hold templates rendered against the binding at mutation time.
type ActorSpec struct {
	Require world.Tags
	Forbid  world.Tags
	Add     world.Tags
	Remove  world.Tags

	RequireProps map[string]string
	ForbidProps  map[string]string
	AddProps     map[string]string
	RemoveProps  map[string]string
}

func NewActorSpec() ActorSpec {
	return ActorSpec{
		Require:      world.Tags{},
		Forbid:       world.Tags{},
		Add:          world.Tags{},
		Remove:       world.Tags{},
		RequireProps: map[string]string{},
		ForbidProps:  map[string]string{},
		AddProps:     map[string]string{},
		RemoveProps:  map[string]string{},
	}
}

// AppliesTo reports whether every clause of the predicate holds for a.
func (s *ActorSpec) AppliesTo(a *world.Actor) bool {
	for attr := range s.Require {
		if !a.Attrs.Has(attr) {
			return false
		}
	}
	for attr := range s.Forbid {
		if a.Attrs.Has(attr) {
			return false
		}
	}
	for key, want := range s.RequireProps {
		got, ok := a.Props[key]
		if !ok || (want != "" && got != want) {
			return false
		}
	}
	for key, want := range s.ForbidProps {
		got, ok := a.Props[key]
		if ok && (want == "" || got == want) {
			return false
		}
	}
	return true
}

// IsZero reports whether the spec neither constrains nor mutates.
func (s *ActorSpec) IsZero() bool {
	return len(s.Require) == 0 && len(s.Forbid) == 0 && len(s.Add) == 0 && len(s.Remove) == 0 &&
		len(s.RequireProps) == 0 && len(s.ForbidProps) == 0 && len(s.AddProps) == 0 && len(s.RemoveProps) == 0
}

// MutateAdditions applies attribute and property additions. An empty
// property template erases the key instead of setting it. Properties are
// visited in key order, so a template sees the writes of earlier keys.
func (s *ActorSpec) MutateAdditions(a *world.Actor, w *world.World, b *Binding, d *diag.Collector) {
	for attr := range s.Add {
		a.Attrs.Add(attr)
	}
	for _, key := range slices.Sorted(maps.Keys(s.AddProps)) {
		tmpl := s.AddProps[key]
		if tmpl == "" {
			delete(a.Props, key)
			continue
		}
		a.Props[key] = template.RenderString(tmpl, w, b, d)
	}
}

// MutateDeletions applies attribute and property removals. A non-empty
// property template only erases the key while its current value equals
// the rendered template.
func (s *ActorSpec) MutateDeletions(a *world.Actor, w *world.World, b *Binding, d *diag.Collector) {
	for attr := range s.Remove {
		a.Attrs.Remove(attr)
	}
	for _, key := range slices.Sorted(maps.Keys(s.RemoveProps)) {
		tmpl := s.RemoveProps[key]
		if tmpl == "" {
			delete(a.Props, key)
			continue
		}
		want := template.RenderString(tmpl, w, b, d)
		if got, ok := a.Props[key]; ok && got == want {
			delete(a.Props, key)
		}
	}
}

// PropTemplates returns every property template the spec renders:
// additions, then removals, each in key order.
func (s *ActorSpec) PropTemplates() []string {
	var out []string
	for _, props := range []map[string]string{s.AddProps, s.RemoveProps} {
		for _, key := range slices.Sorted(maps.Keys(props)) {
			if v := props[key]; v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
