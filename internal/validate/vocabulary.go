package validate

import (
	"maps"
	"slices"
	"strings"

	"talesim/internal/config"
	"talesim/internal/diag"
	"talesim/internal/event"
	"talesim/internal/scenario"
	"talesim/internal/world"
)

func validateVocabulary(sc *scenario.Scenario, vocab *config.Vocabulary) []diag.Issue {
	var issues []diag.Issue
	w := sc.World

	for key, actor := range w.Actors.All() {
		issues = append(issues, checkActor("actor "+key, actor, vocab)...)
	}
	issues = append(issues, checkActor("world", w.Global, vocab)...)

	for _, name := range w.Relations.Names() {
		if !vocab.HasRelation(name) {
			issues = append(issues, warning(diag.CodeUnknownRelation, "relation %s is not in the vocabulary", name))
		}
	}

	for name, ev := range sc.Events.All() {
		issues = append(issues, checkSpec("event "+name+" world spec", &ev.World, vocab)...)
		for _, slot := range ev.SlotNames() {
			issues = append(issues, checkSpec("event "+name+" slot "+slot, ev.Needs[slot], vocab)...)
		}
		for _, t := range ev.Rel.All() {
			if !vocab.HasRelation(t.Relation) {
				issues = append(issues, warning(diag.CodeUnknownRelation, "event %s: relation %s is not in the vocabulary", name, t.Relation))
			}
		}
	}
	return issues
}

func checkActor(where string, a *world.Actor, vocab *config.Vocabulary) []diag.Issue {
	var issues []diag.Issue
	for _, attr := range a.Attrs.Sorted() {
		if !vocab.HasAttribute(attr) {
			issues = append(issues, warning(diag.CodeUnknownAttribute, "%s: attribute %s is not in the vocabulary", where, attr))
		}
	}
	for _, key := range slices.Sorted(maps.Keys(a.Props)) {
		issues = append(issues, checkProperty(where, key, a.Props[key], vocab)...)
	}
	return issues
}

func checkSpec(where string, s *event.ActorSpec, vocab *config.Vocabulary) []diag.Issue {
	var issues []diag.Issue
	for _, tags := range []world.Tags{s.Require, s.Forbid, s.Add, s.Remove} {
		for _, attr := range tags.Sorted() {
			if !vocab.HasAttribute(attr) {
				issues = append(issues, warning(diag.CodeUnknownAttribute, "%s: attribute %s is not in the vocabulary", where, attr))
			}
		}
	}
	for _, props := range []map[string]string{s.RequireProps, s.ForbidProps, s.AddProps, s.RemoveProps} {
		for _, key := range slices.Sorted(maps.Keys(props)) {
			value := props[key]
			if isTemplate(value) {
				value = ""
			}
			issues = append(issues, checkProperty(where, key, value, vocab)...)
		}
	}
	return issues
}

// checkProperty reports an undeclared key, or a literal value outside a
// declared enum. An empty value is not checked.
func checkProperty(where, key, value string, vocab *config.Vocabulary) []diag.Issue {
	prop, ok := vocab.PropertyByName(key)
	if !ok {
		return []diag.Issue{warning(diag.CodeUnknownProperty, "%s: property %s is not in the vocabulary", where, key)}
	}
	if value != "" && !prop.Allows(value) {
		return []diag.Issue{failure(diag.CodeInvalidPropertyValue, "%s: invalid value for %s: %s (allowed: %s)", where, key, value, strings.Join(prop.Values, ", "))}
	}
	return nil
}

// isTemplate reports whether a property value is rendered per binding and
// so cannot be checked statically.
func isTemplate(v string) bool {
	return strings.ContainsAny(v, "$<[")
}
