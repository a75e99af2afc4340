// Package diag collects non-fatal diagnostics raised while loading, binding
// and rendering, so callers decide what to do with them.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	CodeSyntax               = "syntax"
	CodeUnknownSection       = "unknown_section"
	CodeUnknownPronouns      = "unknown_pronouns"
	CodeUnknownActor         = "unknown_actor"
	CodeUnknownRelation      = "unknown_relation"
	CodeUnknownSlot          = "unknown_slot"
	CodeUnresolvedActor      = "unresolved_actor"
	CodeMissingPronouns      = "missing_pronouns"
	CodeUnknownPronounPart   = "unknown_pronoun_part"
	CodeInvalidChance        = "invalid_chance"
	CodeUnbindableEvent      = "unbindable_event"
	CodeUnknownAttribute     = "unknown_attribute"
	CodeUnknownProperty      = "unknown_property"
	CodeInvalidPropertyValue = "invalid_property_value"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Severity, i.Message, i.Code)
}

// Collector accumulates issues. A nil *Collector discards everything.
type Collector struct {
	logger *slog.Logger
	issues []Issue
}

// New returns a collector that also forwards issues to logger when it is
// not nil.
func New(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

func (c *Collector) Warnf(code, format string, args ...any) {
	c.add(SeverityWarn, code, fmt.Sprintf(format, args...))
}

func (c *Collector) Errorf(code, format string, args ...any) {
	c.add(SeverityError, code, fmt.Sprintf(format, args...))
}

func (c *Collector) Add(issue Issue) {
	c.add(issue.Severity, issue.Code, issue.Message)
}

func (c *Collector) Issues() []Issue {
	if c == nil {
		return nil
	}
	return append([]Issue(nil), c.issues...)
}

func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.issues)
}

// Has reports whether an issue with code was collected.
func (c *Collector) Has(code string) bool {
	if c == nil {
		return false
	}
	for _, issue := range c.issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.issues = c.issues[:0]
}

func (c *Collector) add(severity Severity, code, message string) {
	if c == nil {
		return
	}
	c.issues = append(c.issues, Issue{Severity: severity, Code: code, Message: message})
	if c.logger == nil {
		return
	}
	level := slog.LevelWarn
	if severity == SeverityError {
		level = slog.LevelError
	}
	c.logger.Log(context.Background(), level, message, "code", code)
}
