// Package scenario bundles a world with the events that act on it: the unit
// that is loaded, simulated and written back.
package scenario

import (
	"talesim/internal/event"
	"talesim/internal/registry"
	"talesim/internal/world"
)

type Scenario struct {
	World  *world.World
	Events *registry.Registry[event.Event]
}

func New() *Scenario {
	return &Scenario{
		World:  world.New(),
		Events: registry.New[event.Event](),
	}
}

// Clone copies the world deeply. Events are immutable after loading and
// are shared with the original.
func (s *Scenario) Clone() *Scenario {
	c := &Scenario{
		World:  s.World.Clone(),
		Events: registry.New[event.Event](),
	}
	for name, ev := range s.Events.All() {
		c.Events.Set(name, *ev)
	}
	return c
}

// ActorPool returns every actor ID in name order.
func (s *Scenario) ActorPool() []registry.ID {
	return s.World.Actors.IDs()
}
