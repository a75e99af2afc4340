// Package event holds event rules and the machinery that binds them to
// actors, renders their messages and applies their effects.
package event

import (
	"maps"
	"slices"

	"talesim/internal/template"
)

// Event is one rule. Needs maps slot names to the spec the bound actor must
// satisfy. Events are immutable once loaded.
type Event struct {
	Needs   map[string]*ActorSpec
	World   ActorSpec
	Rel     RelSpec
	Message []template.Token

	// Multiplicity is the number of firing attempts per round; each attempt
	// succeeds with probability 1/Unlikeliness.
	Multiplicity int
	Unlikeliness int
}

func New() Event {
	return Event{
		Needs:        map[string]*ActorSpec{},
		World:        NewActorSpec(),
		Rel:          NewRelSpec(),
		Multiplicity: 1,
		Unlikeliness: 1,
	}
}

// SlotNames returns the declared slots in binding order.
func (e *Event) SlotNames() []string {
	return slices.Sorted(maps.Keys(e.Needs))
}

// Need returns the spec for slot, adding an empty one when absent.
func (e *Event) Need(slot string) *ActorSpec {
	if e.Needs == nil {
		e.Needs = map[string]*ActorSpec{}
	}
	spec, ok := e.Needs[slot]
	if !ok {
		s := NewActorSpec()
		spec = &s
		e.Needs[slot] = spec
	}
	return spec
}

// Associated reports whether the event binds at least one actor.
func (e *Event) Associated() bool {
	return len(e.Needs) > 0
}
