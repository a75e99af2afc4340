package worldfile

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"talesim/internal/event"
	"talesim/internal/scenario"
	"talesim/internal/template"
	"talesim/internal/world"
)

// Write serializes sc in the grammar Parse reads. Registries and sets are
// written in name order.
func Write(w io.Writer, sc *scenario.Scenario) error {
	var b bytes.Buffer
	wld := sc.World

	b.WriteString("pronouns {\n")
	for name, p := range wld.Pronouns.All() {
		fmt.Fprintf(&b, "  %s: %s %s %s %s %s\n", name, p.Subject, p.Object, p.Possessive, p.Reflexive, p.Tense)
	}
	b.WriteString("}\n")

	b.WriteString("players {\n")
	for key, a := range wld.Actors.All() {
		fmt.Fprintf(&b, "  %s: %s\n", key, FormatActor(wld, a))
	}
	b.WriteString("}\n")

	b.WriteString("relations {\n")
	for name, rel := range wld.Relations.All() {
		writeRelation(&b, wld, name, rel)
	}
	b.WriteString("}\n")

	fmt.Fprintf(&b, "world [%s]\n", strings.Join(wld.Global.Attrs.Sorted(), ", "))

	b.WriteString("events {\n")
	for name, ev := range sc.Events.All() {
		fmt.Fprintf(&b, "  %s: %s\n", name, FormatEvent(ev))
	}
	b.WriteString("}\n")

	_, err := w.Write(b.Bytes())
	return err
}

// FormatActor renders an actor body: `Name(pronouns)[attr, key:value]`.
func FormatActor(w *world.World, a *world.Actor) string {
	entries := a.Attrs.Sorted()
	for _, k := range slices.Sorted(maps.Keys(a.Props)) {
		entries = append(entries, k+":"+a.Props[k])
	}
	return fmt.Sprintf("%s(%s)[%s]", a.Name, w.Pronouns.Name(a.Pronouns), strings.Join(entries, ", "))
}

func writeRelation(b *bytes.Buffer, w *world.World, name string, rel *world.Relation) {
	kind := "undir"
	if rel.Directional {
		kind = "dir"
	}
	if rel.AllowReflexive {
		kind += " reflex"
	}
	fmt.Fprintf(b, "  %s: %s {\n", name, kind)
	var pairs []string
	for _, e := range rel.Edges() {
		left, right := w.ActorKey(e.Left), w.ActorKey(e.Right)
		if left != "" && right != "" {
			pairs = append(pairs, left+" "+right)
		}
	}
	slices.Sort(pairs)
	for _, pair := range pairs {
		b.WriteString("    " + pair + "\n")
	}
	b.WriteString("  }\n")
}

// FormatEvent renders an event body on a single logical entry.
func FormatEvent(ev *event.Event) string {
	var b strings.Builder
	b.WriteString("{ needs {\n")
	for _, slot := range ev.SlotNames() {
		fmt.Fprintf(&b, "    %s: %s\n", slot, FormatActorSpec(ev.Needs[slot]))
	}
	fmt.Fprintf(&b, "  } world %s rel %s chance %d/%d message {%s} }",
		FormatActorSpec(&ev.World), FormatRelSpec(&ev.Rel), ev.Multiplicity, ev.Unlikeliness, template.Format(ev.Message))
	return b.String()
}

func FormatActorSpec(s *event.ActorSpec) string {
	match := s.Require.Sorted()
	for _, attr := range s.Forbid.Sorted() {
		match = append(match, "!"+attr)
	}
	match = append(match, pairs("", s.RequireProps)...)
	match = append(match, pairs("!", s.ForbidProps)...)

	out := "[" + strings.Join(match, ", ") + "]"
	if adds := append(s.Add.Sorted(), pairs("", s.AddProps)...); len(adds) > 0 {
		out += "+[" + strings.Join(adds, ", ") + "]"
	}
	if removes := append(s.Remove.Sorted(), pairs("", s.RemoveProps)...); len(removes) > 0 {
		out += "-[" + strings.Join(removes, ", ") + "]"
	}
	return out
}

func FormatRelSpec(r *event.RelSpec) string {
	var specs []string
	for _, set := range []struct {
		prefix  string
		triples event.TripleSet
	}{
		{"", r.Require},
		{"!", r.Forbid},
		{"+", r.Add},
		{"-", r.Remove},
	} {
		for _, t := range set.triples.Sorted() {
			specs = append(specs, set.prefix+t.String())
		}
	}
	return "{ " + strings.Join(specs, " ") + " }"
}

func pairs(prefix string, m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, prefix+k+":"+m[k])
	}
	return out
}
