package sim

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"

	"talesim/internal/diag"
	"talesim/internal/event"
	"talesim/internal/registry"
	"talesim/internal/scenario"
	"talesim/internal/store"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownSlot  = errors.New("unknown slot")
	ErrUnknownActor = errors.New("unknown actor")
	ErrSlotCount    = errors.New("wrong number of slot assignments")
)

const seedStream = 0x9e3779b97f4a7c15

// NewRand returns the deterministic source every run draws from.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedStream))
}

// RandomSeed picks a seed from the runtime's random source.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Run resolves rounds consecutive rounds against sc, numbering them from 1.
func Run(sc *scenario.Scenario, rng *rand.Rand, rounds int, d *diag.Collector) []RoundResult {
	return RunFrom(1, sc, rng, rounds, d)
}

// RunFrom is Run with the first round numbered first.
func RunFrom(first int, sc *scenario.Scenario, rng *rand.Rand, rounds int, d *diag.Collector) []RoundResult {
	results := make([]RoundResult, 0, rounds)
	for i := range rounds {
		results = append(results, NewRound(first+i, sc, rng, d).Resolve())
	}
	return results
}

// Record converts a round into a chronicle record.
func Record(seed uint64, result RoundResult) store.RoundRecord {
	rec := store.RoundRecord{
		Seed:     seed,
		Number:   result.Number,
		Events:   make([]store.FiredEvent, 0, len(result.Fired)),
		Messages: append([]string{}, result.Messages...),
	}
	for _, f := range result.Fired {
		rec.Events = append(rec.Events, store.FiredEvent{
			Event:   f.Event,
			Slots:   maps.Clone(f.Slots),
			Message: f.Message,
		})
	}
	return rec
}

// TryEvent fires name with explicit slot assignments, mapping slot names
// to actor keys. Predicates are not checked. The effects are applied
// first, so the message describes the world as it is afterwards.
func TryEvent(sc *scenario.Scenario, name string, assignments map[string]string, d *diag.Collector) (string, error) {
	ev, ok := sc.Events.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if len(assignments) != len(ev.Needs) {
		return "", fmt.Errorf("%w: event %s expects %d actors, got %d", ErrSlotCount, name, len(ev.Needs), len(assignments))
	}

	slots := make(map[string]registry.ID, len(assignments))
	for slot, key := range assignments {
		if _, ok := ev.Needs[slot]; !ok {
			return "", fmt.Errorf("%w: event %s has no slot %s", ErrUnknownSlot, name, slot)
		}
		id, ok := sc.World.Actors.Lookup(key)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownActor, key)
		}
		slots[slot] = id
	}

	b := event.NewBinding(name, ev, slots)
	b.CauseEffects(sc.World, d)
	return b.Render(sc.World, d), nil
}

// TryEvents renders every event, in name order, with a binding chosen
// while ignoring predicates. Each event draws from a fresh pool of all
// actors. Nothing is applied.
func TryEvents(sc *scenario.Scenario, d *diag.Collector) []Firing {
	var out []Firing
	for name, ev := range sc.Events.All() {
		pool := sc.ActorPool()
		b, ok := event.TryBind(name, ev, sc.World, &pool, false, d)
		if !ok {
			d.Warnf(diag.CodeUnbindableEvent, "event %s needs %d actors, only %d exist", name, len(ev.Needs), sc.World.Actors.Len())
			continue
		}
		slots := make(map[string]string, len(ev.Needs))
		for _, slot := range b.SlotNames() {
			id, _ := b.Slot(slot)
			slots[slot] = sc.World.ActorKey(id)
		}
		out = append(out, Firing{Event: name, Slots: slots, Message: b.Render(sc.World, d)})
	}
	return out
}
