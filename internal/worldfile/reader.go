// Package worldfile reads and writes the textual world format: sections of
// pronoun sets, actors, relations, world attributes and events.
package worldfile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"talesim/internal/diag"
	"talesim/internal/event"
	"talesim/internal/scenario"
	"talesim/internal/template"
	"talesim/internal/world"
)

// ParseFile reads the world file at path.
func ParseFile(path string, d *diag.Collector) (*scenario.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc, err := Parse(f, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse reads a whole world. Malformed structure returns an error matching
// ErrSyntax. References to undeclared pronoun sets or actors are reported
// to d and skipped. An unknown section word stops reading and keeps what
// was read so far.
func Parse(r io.Reader, d *diag.Collector) (*scenario.Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading world: %w", err)
	}
	p := &reader{
		s:    &scanner{src: strings.TrimPrefix(string(data), "\ufeff")},
		sc:   scenario.New(),
		diag: d,
	}
	if err := p.read(); err != nil {
		d.Errorf(diag.CodeSyntax, "%v", err)
		return nil, err
	}
	return p.sc, nil
}

type reader struct {
	s    *scanner
	sc   *scenario.Scenario
	diag *diag.Collector
}

func (p *reader) read() error {
	for {
		p.s.section = ""
		p.s.skipSpace()
		if p.s.eof() {
			return nil
		}
		section, err := p.s.word()
		if err != nil {
			return err
		}
		p.s.section = section

		switch section {
		case "pronouns":
			p.sc.World.Pronouns.Clear()
			err = p.entries(p.pronouns)
		case "players":
			p.sc.World.Actors.Clear()
			err = p.entries(p.actor)
		case "relations":
			p.sc.World.Relations.Clear()
			err = p.entries(p.relation)
		case "world":
			err = p.worldAttrs()
		case "events":
			p.sc.Events.Clear()
			err = p.entries(p.event)
		default:
			p.diag.Warnf(diag.CodeUnknownSection, "non-section %q, ignoring the rest of the input", section)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// entries reads `{ name: body ... }`, calling body for every entry.
func (p *reader) entries(body func(name string) error) error {
	if err := p.s.expect('{'); err != nil {
		return err
	}
	for !p.s.closing('}') {
		if p.s.eof() {
			return p.s.errorf("missing '}'")
		}
		name, err := p.s.until(':')
		if err != nil {
			return err
		}
		p.s.skipSpace()
		if err := body(strings.TrimSpace(name)); err != nil {
			return err
		}
	}
	return nil
}

func (p *reader) pronouns(name string) error {
	var words [5]string
	for i := range words {
		w, err := p.s.word()
		if err != nil {
			return err
		}
		words[i] = w
	}
	p.sc.World.Pronouns.Set(name, world.Pronouns{
		Subject:    words[0],
		Object:     words[1],
		Possessive: words[2],
		Reflexive:  words[3],
		Tense:      words[4],
	})
	return nil
}

func (p *reader) actor(key string) error {
	name, err := p.s.until('(')
	if err != nil {
		return err
	}
	pronouns, err := p.s.until(')')
	if err != nil {
		return err
	}

	a := world.NewActor(strings.TrimSpace(name))
	if pronouns = strings.TrimSpace(pronouns); pronouns != "" {
		if id, ok := p.sc.World.Pronouns.Lookup(pronouns); ok {
			a.Pronouns = id
		} else {
			p.diag.Warnf(diag.CodeUnknownPronouns, "actor %s: unknown pronouns %q", key, pronouns)
		}
	}

	p.s.skipSpace()
	if p.s.peek() == '[' {
		list, err := p.s.list()
		if err != nil {
			return err
		}
		for _, elem := range list {
			k, v, ok := strings.Cut(elem, ":")
			if !ok {
				a.Attrs.Add(elem)
				continue
			}
			if k != "" && v != "" {
				a.Props[k] = v
			}
		}
	}
	p.sc.World.Actors.Set(key, a)
	return nil
}

func (p *reader) relation(name string) error {
	kind, err := p.s.word()
	if err != nil {
		return err
	}
	var rel world.Relation
	switch kind {
	case "dir":
		rel = world.NewRelation(true, false)
	case "undir":
		rel = world.NewRelation(false, false)
	default:
		return p.s.errorf("relation %s: expected dir or undir, found %q", name, kind)
	}

	p.s.skipSpace()
	if p.s.peek() != '{' {
		flag, err := p.s.word()
		if err != nil {
			return err
		}
		if flag != "reflex" {
			return p.s.errorf("relation %s: expected reflex or '{', found %q", name, flag)
		}
		rel.AllowReflexive = true
	}
	if err := p.s.expect('{'); err != nil {
		return err
	}

	for {
		left, err := p.s.word()
		if err != nil {
			return err
		}
		if left == "}" {
			break
		}
		right, err := p.s.word()
		if err != nil {
			return err
		}
		l, lok := p.sc.World.Actors.Lookup(left)
		if !lok {
			p.diag.Warnf(diag.CodeUnknownActor, "relation %s: bad actor name %s", name, left)
		}
		r, rok := p.sc.World.Actors.Lookup(right)
		if !rok {
			p.diag.Warnf(diag.CodeUnknownActor, "relation %s: bad actor name %s", name, right)
		}
		if lok && rok {
			rel.Insert(l, r)
		}
	}
	p.sc.World.Relations.Set(name, rel)
	return nil
}

func (p *reader) worldAttrs() error {
	list, err := p.s.list()
	if err != nil {
		return err
	}
	for _, attr := range list {
		p.sc.World.Global.Attrs.Add(attr)
	}
	return nil
}

func (p *reader) event(name string) error {
	if err := p.s.expect('{'); err != nil {
		return err
	}
	ev := event.New()
	for !p.s.closing('}') {
		section, err := p.s.word()
		if err != nil {
			return err
		}
		switch section {
		case "needs":
			err = p.entries(func(slot string) error {
				return p.actorSpec(ev.Need(slot))
			})
		case "world":
			err = p.actorSpec(&ev.World)
		case "rel":
			err = p.relSpec(&ev.Rel)
		case "chance":
			err = p.chance(&ev)
		case "message":
			err = p.message(&ev)
		default:
			err = p.s.errorf("event %s: unknown section %q", name, section)
		}
		if err != nil {
			return err
		}
	}
	p.sc.Events.Set(name, ev)
	return nil
}

// actorSpec reads `[req,!forbid,key:val,!key:val]`, optionally followed by
// `+[add,key:val]` and `-[remove,key:val]`.
func (p *reader) actorSpec(spec *event.ActorSpec) error {
	list, err := p.s.list()
	if err != nil {
		return err
	}
	for _, elem := range list {
		negated := strings.HasPrefix(elem, "!")
		elem = strings.TrimPrefix(elem, "!")
		k, v, isProp := strings.Cut(elem, ":")
		switch {
		case negated && isProp:
			spec.ForbidProps[k] = v
		case negated:
			spec.Forbid.Add(elem)
		case isProp:
			spec.RequireProps[k] = v
		default:
			spec.Require.Add(elem)
		}
	}

	for _, op := range []byte{'+', '-'} {
		p.s.skipSpace()
		if p.s.peek() != op {
			continue
		}
		p.s.pos++
		list, err := p.s.list()
		if err != nil {
			return err
		}
		attrs, props := spec.Add, spec.AddProps
		if op == '-' {
			attrs, props = spec.Remove, spec.RemoveProps
		}
		for _, elem := range list {
			if k, v, ok := strings.Cut(elem, ":"); ok {
				props[k] = v
			} else {
				attrs.Add(elem)
			}
		}
	}
	return nil
}

// relSpec reads `{ l:rel:r !l:rel:r +l:rel:r -l:rel:r }`. Incomplete
// triples are dropped.
func (p *reader) relSpec(spec *event.RelSpec) error {
	if err := p.s.expect('{'); err != nil {
		return err
	}
	for {
		elem, err := p.s.word()
		if err != nil {
			return err
		}
		if elem == "}" {
			return nil
		}
		set := spec.Require
		switch elem[0] {
		case '!':
			set, elem = spec.Forbid, elem[1:]
		case '+':
			set, elem = spec.Add, elem[1:]
		case '-':
			set, elem = spec.Remove, elem[1:]
		}
		parts := strings.SplitN(elem, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			continue
		}
		set.Add(event.Triple{Left: parts[0], Relation: parts[1], Right: parts[2]})
	}
}

// chance reads `M` or `M/U`.
func (p *reader) chance(ev *event.Event) error {
	m, err := p.s.integer()
	if err != nil {
		return err
	}
	ev.Multiplicity = m
	if !p.s.closing('/') {
		return nil
	}
	u, err := p.s.integer()
	if err != nil {
		return err
	}
	ev.Unlikeliness = u
	return nil
}

func (p *reader) message(ev *event.Event) error {
	if err := p.s.expect('{'); err != nil {
		return err
	}
	text, err := p.s.until('}')
	if err != nil {
		return err
	}
	ev.Message = template.Parse(text, p.diag)
	return nil
}
