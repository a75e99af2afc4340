// Package sim drives rounds of simulation over a scenario: selecting
// events, binding them, rendering their messages and applying effects.
package sim

import (
	"math/rand/v2"

	"talesim/internal/diag"
	"talesim/internal/event"
	"talesim/internal/registry"
	"talesim/internal/scenario"
)

type State int

const (
	StateInit State = iota
	StateBindActorEvents
	StateBindUnassociated
	StateRender
	StateApply
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateBindActorEvents:
		return "bind-actor-events"
	case StateBindUnassociated:
		return "bind-unassociated-events"
	case StateRender:
		return "render"
	case StateApply:
		return "apply"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Firing is one binding as rendered, with slots resolved to actor keys.
type Firing struct {
	Event   string
	Slots   map[string]string
	Message string
}

type RoundResult struct {
	Number   int
	Bindings []*event.Binding
	Fired    []Firing
	// Messages holds the non-empty renderings in binding order.
	Messages []string
}

type queued struct {
	name string
	ev   *event.Event
}

// Round is one scheduling pass. Each Step performs one transition of the
// state machine, so callers can observe the intermediate states.
type Round struct {
	Number int

	sc    *scenario.Scenario
	rng   *rand.Rand
	diag  *diag.Collector
	state State

	pool         []registry.ID
	actorEvents  []queued
	unassociated []queued

	bindings []*event.Binding
	fired    []Firing
	messages []string
}

func NewRound(number int, sc *scenario.Scenario, rng *rand.Rand, d *diag.Collector) *Round {
	return &Round{Number: number, sc: sc, rng: rng, diag: d}
}

func (r *Round) State() State {
	return r.state
}

// Step advances the round and returns the new state.
func (r *Round) Step() State {
	switch r.state {
	case StateInit:
		r.init()
		r.state = StateBindActorEvents

	case StateBindActorEvents:
		if len(r.pool) > 0 && len(r.actorEvents) > 0 {
			r.bindActorEvent()
		} else {
			r.state = StateBindUnassociated
		}

	case StateBindUnassociated:
		if len(r.unassociated) > 0 {
			r.bindUnassociated()
		} else {
			r.state = StateRender
		}

	case StateRender:
		w := r.sc.World
		for _, b := range r.bindings {
			msg := b.Render(w, r.diag)
			slots := make(map[string]string, len(b.SlotNames()))
			for _, slot := range b.SlotNames() {
				id, _ := b.Slot(slot)
				slots[slot] = w.ActorKey(id)
			}
			r.fired = append(r.fired, Firing{Event: b.EventName, Slots: slots, Message: msg})
			if msg != "" {
				r.messages = append(r.messages, msg)
			}
		}
		r.state = StateApply

	case StateApply:
		for _, b := range r.bindings {
			b.CauseEffects(r.sc.World, r.diag)
		}
		r.state = StateDone
	}
	return r.state
}

// Resolve steps the round to completion.
func (r *Round) Resolve() RoundResult {
	for r.state != StateDone {
		r.Step()
	}
	return r.Result()
}

func (r *Round) Result() RoundResult {
	return RoundResult{
		Number:   r.Number,
		Bindings: r.bindings,
		Fired:    r.fired,
		Messages: r.messages,
	}
}

func (r *Round) init() {
	r.pool = r.sc.ActorPool()
	for name, ev := range r.sc.Events.All() {
		for range ev.Multiplicity {
			if ev.Associated() {
				r.actorEvents = append(r.actorEvents, queued{name: name, ev: ev})
			} else {
				r.unassociated = append(r.unassociated, queued{name: name, ev: ev})
			}
		}
	}
	shuffle(r.rng, r.pool)
	shuffle(r.rng, r.actorEvents)
	shuffle(r.rng, r.unassociated)
}

// bindActorEvent pops events until one binds against a copy of the pool,
// which then replaces the pool. A failed roll ends the call early.
func (r *Round) bindActorEvent() {
	pool := append([]registry.ID(nil), r.pool...)
	for len(r.actorEvents) > 0 {
		q := pop(&r.actorEvents)
		if !Happens(r.rng, q.ev) {
			return
		}
		if b, ok := event.TryBind(q.name, q.ev, r.sc.World, &pool, true, r.diag); ok {
			r.bindings = append(r.bindings, b)
			r.pool = pool
			return
		}
	}
}

// bindUnassociated works through the slotless events. A failed roll
// abandons every event still queued for this round.
func (r *Round) bindUnassociated() {
	var none []registry.ID
	for len(r.unassociated) > 0 {
		q := pop(&r.unassociated)
		if !Happens(r.rng, q.ev) {
			r.unassociated = nil
			return
		}
		if b, ok := event.TryBind(q.name, q.ev, r.sc.World, &none, true, r.diag); ok {
			r.bindings = append(r.bindings, b)
		}
	}
}

// Happens rolls one firing attempt: true with probability 1/Unlikeliness.
// Unlikeliness below 1 counts as 1.
func Happens(rng *rand.Rand, ev *event.Event) bool {
	return rng.IntN(max(ev.Unlikeliness, 1)) == 0
}

func pop[T any](s *[]T) T {
	last := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return last
}

func shuffle[T any](rng *rand.Rand, s []T) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
