// Package world holds the simulated population: pronoun sets, actors,
// relations and the global pseudo-actor.
package world

import (
	"maps"
	"slices"
	"strings"

	"talesim/internal/registry"
)

// GlobalName is the display name of the pseudo-actor carrying world state.
const GlobalName = "<world>"

type Part int

const (
	Subject Part = iota
	Object
	Possessive
	Reflexive
)

// Letter is the template letter selecting p: s, o, p or r.
func (p Part) Letter() string {
	switch p {
	case Subject:
		return "s"
	case Object:
		return "o"
	case Possessive:
		return "p"
	case Reflexive:
		return "r"
	}
	return "?"
}

func PartFromLetter(letter string) (Part, bool) {
	switch letter {
	case "s":
		return Subject, true
	case "o":
		return Object, true
	case "p":
		return Possessive, true
	case "r":
		return Reflexive, true
	}
	return 0, false
}

type Pronouns struct {
	Subject    string
	Object     string
	Possessive string
	Reflexive  string
	Tense      string
}

func (p *Pronouns) Word(part Part) string {
	switch part {
	case Subject:
		return p.Subject
	case Object:
		return p.Object
	case Possessive:
		return p.Possessive
	case Reflexive:
		return p.Reflexive
	}
	return "???"
}

// Tags is a set of boolean attributes.
type Tags map[string]struct{}

func NewTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, name := range names {
		t[name] = struct{}{}
	}
	return t
}

func (t Tags) Has(name string) bool {
	_, ok := t[name]
	return ok
}

func (t Tags) Add(name string) {
	t[name] = struct{}{}
}

func (t Tags) Remove(name string) {
	delete(t, name)
}

func (t Tags) Sorted() []string {
	return slices.Sorted(maps.Keys(t))
}

func (t Tags) Clone() Tags {
	return maps.Clone(t)
}

type Actor struct {
	Name     string
	Pronouns registry.ID
	Attrs    Tags
	Props    map[string]string
}

func NewActor(name string) Actor {
	return Actor{Name: name, Attrs: Tags{}, Props: map[string]string{}}
}

func (a *Actor) Prop(key string) (string, bool) {
	v, ok := a.Props[key]
	return v, ok
}

// EndsInS reports whether the display name ends in s or S, which selects
// the bare apostrophe as possessive particle.
func (a *Actor) EndsInS() bool {
	return a.Name != "" && strings.EqualFold(a.Name[len(a.Name)-1:], "s")
}

func (a *Actor) Clone() Actor {
	c := *a
	c.Attrs = a.Attrs.Clone()
	if c.Attrs == nil {
		c.Attrs = Tags{}
	}
	c.Props = maps.Clone(a.Props)
	if c.Props == nil {
		c.Props = map[string]string{}
	}
	return c
}

type World struct {
	Pronouns  *registry.Registry[Pronouns]
	Actors    *registry.Registry[Actor]
	Relations *registry.Registry[Relation]
	Global    *Actor
}

func New() *World {
	global := NewActor(GlobalName)
	return &World{
		Pronouns:  registry.New[Pronouns](),
		Actors:    registry.New[Actor](),
		Relations: registry.New[Relation](),
		Global:    &global,
	}
}

func (w *World) Actor(id registry.ID) (*Actor, bool) {
	return w.Actors.Resolve(id)
}

// ActorKey returns the registry name of the actor behind id.
func (w *World) ActorKey(id registry.ID) string {
	return w.Actors.Name(id)
}

// PronounsOf resolves the actor's pronoun set; actors may have none.
func (w *World) PronounsOf(a *Actor) (*Pronouns, bool) {
	if a == nil {
		return nil, false
	}
	return w.Pronouns.Resolve(a.Pronouns)
}

// Clone deep-copies the world. Handles are reissued, so IDs obtained from
// w must be looked up again by name in the copy.
func (w *World) Clone() *World {
	c := New()
	pronouns := make(map[registry.ID]registry.ID)
	for _, name := range w.Pronouns.Names() {
		old, _ := w.Pronouns.Lookup(name)
		p, _ := w.Pronouns.Get(name)
		pronouns[old] = c.Pronouns.Set(name, *p)
	}
	actors := make(map[registry.ID]registry.ID)
	for _, name := range w.Actors.Names() {
		old, _ := w.Actors.Lookup(name)
		a, _ := w.Actors.Get(name)
		copied := a.Clone()
		copied.Pronouns = pronouns[a.Pronouns]
		actors[old] = c.Actors.Set(name, copied)
	}
	for name, rel := range w.Relations.All() {
		copied := NewRelation(rel.Directional, rel.AllowReflexive)
		for e := range rel.edges {
			copied.edges[Edge{Left: actors[e.Left], Right: actors[e.Right]}] = struct{}{}
		}
		c.Relations.Set(name, copied)
	}
	global := w.Global.Clone()
	c.Global = &global
	return c
}
