// Package validate runs static consistency checks over a loaded scenario.
package validate

import (
	"fmt"
	"maps"
	"slices"

	"talesim/internal/config"
	"talesim/internal/diag"
	"talesim/internal/event"
	"talesim/internal/scenario"
	"talesim/internal/template"
)

type Report struct {
	Issues []diag.Issue
}

func (r *Report) Errors() []diag.Issue {
	return r.filter(diag.SeverityError)
}

func (r *Report) Warnings() []diag.Issue {
	return r.filter(diag.SeverityWarn)
}

func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r *Report) filter(sev diag.Severity) []diag.Issue {
	var out []diag.Issue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// Run checks sc. vocab may be nil, which skips the vocabulary checks.
func Run(sc *scenario.Scenario, vocab *config.Vocabulary) *Report {
	var issues []diag.Issue

	issues = append(issues, validateActors(sc)...)
	for name, ev := range sc.Events.All() {
		issues = append(issues, validateChance(name, ev)...)
		issues = append(issues, validateSlotReferences(name, ev)...)
		issues = append(issues, validateRelations(sc, name, ev)...)
		issues = append(issues, validateBindable(sc, name, ev)...)
	}
	if vocab != nil {
		issues = append(issues, validateVocabulary(sc, vocab)...)
	}

	return &Report{Issues: issues}
}

func validateActors(sc *scenario.Scenario) []diag.Issue {
	var issues []diag.Issue
	for key, actor := range sc.World.Actors.All() {
		if _, ok := sc.World.PronounsOf(actor); !ok {
			issues = append(issues, warning(diag.CodeMissingPronouns, "actor %s has no pronoun set; pronouns and tense choices naming it render as nothing", key))
		}
	}
	return issues
}

func validateChance(name string, ev *event.Event) []diag.Issue {
	var issues []diag.Issue
	if ev.Multiplicity < 0 {
		issues = append(issues, failure(diag.CodeInvalidChance, "event %s: multiplicity %d is negative", name, ev.Multiplicity))
	}
	if ev.Unlikeliness < 1 {
		issues = append(issues, failure(diag.CodeInvalidChance, "event %s: unlikeliness %d is below 1", name, ev.Unlikeliness))
	}
	return issues
}

func validateSlotReferences(name string, ev *event.Event) []diag.Issue {
	var issues []diag.Issue
	check := func(where string, tokens []template.Token) {
		for _, slot := range template.Slots(tokens) {
			if _, ok := ev.Needs[slot]; !ok {
				issues = append(issues, warning(diag.CodeUnknownSlot, "event %s: %s refers to undeclared slot %s", name, where, slot))
			}
		}
	}

	check("message", ev.Message)
	specs := map[string]*event.ActorSpec{"world spec": &ev.World}
	for slot, spec := range ev.Needs {
		specs["slot "+slot] = spec
	}
	for _, where := range slices.Sorted(maps.Keys(specs)) {
		for _, tmpl := range specs[where].PropTemplates() {
			check(where+" property template", template.Parse(tmpl, nil))
		}
	}

	for _, t := range ev.Rel.All() {
		for _, slot := range []string{t.Left, t.Right} {
			if _, ok := ev.Needs[slot]; !ok {
				issues = append(issues, warning(diag.CodeUnknownSlot, "event %s: relation triple %s refers to undeclared slot %s", name, t, slot))
			}
		}
	}
	return issues
}

func validateRelations(sc *scenario.Scenario, name string, ev *event.Event) []diag.Issue {
	var issues []diag.Issue
	seen := make(map[string]bool)
	for _, t := range ev.Rel.All() {
		if seen[t.Relation] {
			continue
		}
		seen[t.Relation] = true
		if _, ok := sc.World.Relations.Get(t.Relation); !ok {
			issues = append(issues, warning(diag.CodeUnknownRelation, "event %s: relation %s does not exist", name, t.Relation))
		}
	}
	return issues
}

// validateBindable warns about events that cannot fire against the world
// as loaded.
func validateBindable(sc *scenario.Scenario, name string, ev *event.Event) []diag.Issue {
	actors := sc.World.Actors.Len()
	if len(ev.Needs) > actors {
		return []diag.Issue{warning(diag.CodeUnbindableEvent, "event %s needs %d actors, only %d exist", name, len(ev.Needs), actors)}
	}

	var issues []diag.Issue
	for _, slot := range ev.SlotNames() {
		spec := ev.Needs[slot]
		matched := false
		for _, actor := range sc.World.Actors.All() {
			if spec.AppliesTo(actor) {
				matched = true
				break
			}
		}
		if !matched {
			issues = append(issues, warning(diag.CodeUnbindableEvent, "event %s: no actor satisfies slot %s", name, slot))
		}
	}
	return issues
}

func warning(code, format string, args ...any) diag.Issue {
	return diag.Issue{Severity: diag.SeverityWarn, Code: code, Message: fmt.Sprintf(format, args...)}
}

func failure(code, format string, args ...any) diag.Issue {
	return diag.Issue{Severity: diag.SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
}
