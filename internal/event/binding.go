package event

import (
	"maps"
	"slices"

	"talesim/internal/diag"
	"talesim/internal/registry"
	"talesim/internal/template"
	"talesim/internal/world"
)

// Binding assigns actors to the slots of one event firing. The slot map is
// fixed after construction; the last referenced actor is rendering state.
type Binding struct {
	EventName string
	Event     *Event

	slots map[string]registry.ID
	last  registry.ID
}

func NewBinding(name string, ev *Event, slots map[string]registry.ID) *Binding {
	return &Binding{EventName: name, Event: ev, slots: maps.Clone(slots)}
}

func (b *Binding) Slot(name string) (registry.ID, bool) {
	id, ok := b.slots[name]
	return id, ok
}

func (b *Binding) SlotNames() []string {
	return slices.Sorted(maps.Keys(b.slots))
}

func (b *Binding) LastActor() registry.ID {
	return b.last
}

func (b *Binding) SetLastActor(id registry.ID) {
	b.last = id
}

// Actors returns the bound actor IDs in slot order.
func (b *Binding) Actors() []registry.ID {
	out := make([]registry.ID, 0, len(b.slots))
	for _, name := range b.SlotNames() {
		out = append(out, b.slots[name])
	}
	return out
}

// Render interprets the event message against the current world state.
func (b *Binding) Render(w *world.World, d *diag.Collector) string {
	b.last = registry.ID{}
	return template.Render(b.Event.Message, w, b, d)
}

// CauseEffects mutates the world in three phases: every addition across
// all slots and the world, then every deletion, then the relation edits.
// Property templates added in phase one may read values that phase two is
// about to delete.
func (b *Binding) CauseEffects(w *world.World, d *diag.Collector) {
	ev := b.Event
	for _, slot := range ev.SlotNames() {
		if actor, ok := b.actor(slot, w, d); ok {
			ev.Needs[slot].MutateAdditions(actor, w, b, d)
		}
	}
	ev.World.MutateAdditions(w.Global, w, b, d)

	for _, slot := range ev.SlotNames() {
		if actor, ok := b.actor(slot, w, d); ok {
			ev.Needs[slot].MutateDeletions(actor, w, b, d)
		}
	}
	ev.World.MutateDeletions(w.Global, w, b, d)

	ev.Rel.Mutate(b, w, d)
}

func (b *Binding) actor(slot string, w *world.World, d *diag.Collector) (*world.Actor, bool) {
	id, ok := b.slots[slot]
	if !ok {
		d.Warnf(diag.CodeUnknownSlot, "event %s: slot %s is not bound", b.EventName, slot)
		return nil, false
	}
	actor, ok := w.Actor(id)
	if !ok {
		d.Warnf(diag.CodeUnknownActor, "event %s: slot %s is bound to an actor that no longer exists", b.EventName, slot)
		return nil, false
	}
	return actor, true
}

// TryBind assigns actors from pool to every slot of ev. On success the
// chosen actors are removed from pool.
//
// Without predicates, or without relation constraints, slots are filled
// greedily in name order. That path takes actors out of pool as it goes
// and never backtracks, so a failed attempt leaves pool partially drained
// and an early pick can starve a later slot. Callers that need the pool
// intact on failure pass a copy.
//
// Otherwise every combination of candidates is tried, first slot varying
// fastest, until one is pairwise distinct and satisfies the relation spec.
func TryBind(name string, ev *Event, w *world.World, pool *[]registry.ID, usePredicates bool, d *diag.Collector) (*Binding, bool) {
	if usePredicates && !ev.World.AppliesTo(w.Global) {
		return nil, false
	}
	if !usePredicates || !ev.Rel.Constrained() {
		return bindGreedy(name, ev, w, pool, usePredicates)
	}
	return bindExhaustive(name, ev, w, pool, d)
}

func bindGreedy(name string, ev *Event, w *world.World, pool *[]registry.ID, usePredicates bool) (*Binding, bool) {
	slots := make(map[string]registry.ID, len(ev.Needs))
	for _, slot := range ev.SlotNames() {
		spec := ev.Needs[slot]
		i := slices.IndexFunc(*pool, func(id registry.ID) bool {
			actor, ok := w.Actor(id)
			return ok && (!usePredicates || spec.AppliesTo(actor))
		})
		if i < 0 {
			return nil, false
		}
		slots[slot] = (*pool)[i]
		*pool = slices.Delete(*pool, i, i+1)
	}
	return NewBinding(name, ev, slots), true
}

func bindExhaustive(name string, ev *Event, w *world.World, pool *[]registry.ID, d *diag.Collector) (*Binding, bool) {
	names := ev.SlotNames()
	candidates := make([][]registry.ID, len(names))
	for i, slot := range names {
		spec := ev.Needs[slot]
		for _, id := range *pool {
			if actor, ok := w.Actor(id); ok && spec.AppliesTo(actor) {
				candidates[i] = append(candidates[i], id)
			}
		}
		if len(candidates[i]) == 0 {
			return nil, false
		}
	}

	odometer := make([]int, len(names))
	for {
		slots := make(map[string]registry.ID, len(names))
		for i, slot := range names {
			slots[slot] = candidates[i][odometer[i]]
		}
		b := NewBinding(name, ev, slots)
		if distinct(slots) && ev.Rel.Satisfied(b, w, d) {
			*pool = slices.DeleteFunc(*pool, func(id registry.ID) bool {
				return slices.Contains(b.Actors(), id)
			})
			return b, true
		}
		if !advance(odometer, candidates) {
			return nil, false
		}
	}
}

// advance steps the odometer, first position fastest, and reports false
// once every combination has been visited.
func advance(odometer []int, candidates [][]registry.ID) bool {
	for i := range odometer {
		odometer[i]++
		if odometer[i] < len(candidates[i]) {
			return true
		}
		odometer[i] = 0
	}
	return false
}

func distinct(slots map[string]registry.ID) bool {
	seen := make(map[registry.ID]bool, len(slots))
	for _, id := range slots {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
