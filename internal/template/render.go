package template

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"talesim/internal/diag"
	"talesim/internal/registry"
	"talesim/internal/world"
)

// Scope is the per-firing state a template renders against: the slot
// assignments plus the last referenced actor, which resolves tokens that
// name no slot.
type Scope interface {
	Slot(name string) (registry.ID, bool)
	SlotNames() []string
	LastActor() registry.ID
	SetLastActor(id registry.ID)
}

// Render interprets tokens left to right. Resolution failures are reported
// to d and the token renders as nothing.
func Render(tokens []Token, w *world.World, s Scope, d *diag.Collector) string {
	var b strings.Builder
	for _, tok := range tokens {
		renderToken(&b, tok, w, s, d)
	}
	return b.String()
}

// RenderString parses and renders src in one step; property templates are
// rendered this way at mutation time.
func RenderString(src string, w *world.World, s Scope, d *diag.Collector) string {
	return Render(Parse(src, d), w, s, d)
}

func renderToken(b *strings.Builder, tok Token, w *world.World, s Scope, d *diag.Collector) {
	switch tok.Kind {
	case KindLiteral:
		b.WriteString(tok.Text)

	case KindActor:
		id, actor, ok := resolveNamed(tok.Actor, w, s, d)
		if !ok {
			return
		}
		b.WriteString(actor.Name)
		s.SetLastActor(id)

	case KindProp:
		id, actor, ok := resolve(tok.Actor, w, s, d)
		if !ok {
			d.Warnf(diag.CodeUnresolvedActor, "property %q has no actor: it was used before any actor reference or its slot is unbound", tok.Prop)
			return
		}
		s.SetLastActor(id)
		if v, ok := actor.Prop(tok.Prop); ok {
			b.WriteString(v)
		}

	case KindTense:
		_, actor, ok := resolve(tok.Actor, w, s, d)
		if !ok {
			d.Warnf(diag.CodeUnresolvedActor, "tense choice has no actor: it was used before any actor reference or its slot is unbound")
			return
		}
		pro, ok := w.PronounsOf(actor)
		if !ok {
			d.Warnf(diag.CodeMissingPronouns, "actor %s has no pronouns, cannot pick a tense", actor.Name)
			return
		}
		if text, ok := tok.Tenses[pro.Tense]; ok {
			b.WriteString(text)
		}

	case KindPronoun:
		id, actor, ok := resolve(tok.Actor, w, s, d)
		if !ok {
			d.Warnf(diag.CodeUnresolvedActor, "pronoun has no actor: it was used before any actor reference or its slot is unbound")
			return
		}
		s.SetLastActor(id)
		pro, ok := w.PronounsOf(actor)
		if !ok {
			d.Warnf(diag.CodeMissingPronouns, "actor %s has no pronouns, cannot use one", actor.Name)
			return
		}
		word := pro.Word(tok.Part)
		if tok.Upper {
			word = capitalize(word)
		}
		b.WriteString(word)

	case KindPossessive:
		id, actor, ok := resolve(tok.Actor, w, s, d)
		if !ok {
			d.Warnf(diag.CodeUnresolvedActor, "possessive particle has no actor: it was used before any actor reference or its slot is unbound")
			return
		}
		s.SetLastActor(id)
		if actor.EndsInS() {
			b.WriteString("'")
		} else {
			b.WriteString("'s")
		}
	}
}

// resolve finds the named slot's actor, or the last referenced actor when
// slot is empty.
func resolve(slot string, w *world.World, s Scope, d *diag.Collector) (registry.ID, *world.Actor, bool) {
	if slot != "" {
		return resolveNamed(slot, w, s, d)
	}
	id := s.LastActor()
	actor, ok := w.Actor(id)
	if !ok {
		return registry.ID{}, nil, false
	}
	return id, actor, true
}

func resolveNamed(slot string, w *world.World, s Scope, d *diag.Collector) (registry.ID, *world.Actor, bool) {
	id, ok := s.Slot(slot)
	if !ok {
		d.Warnf(diag.CodeUnresolvedActor, "bad actor reference to %s: not in [%s]", slot, strings.Join(s.SlotNames(), ", "))
		return registry.ID{}, nil, false
	}
	actor, ok := w.Actor(id)
	if !ok {
		d.Warnf(diag.CodeUnknownActor, "slot %s is bound to an actor that no longer exists", slot)
		return registry.ID{}, nil, false
	}
	return id, actor, true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
