// Package template parses event message templates into tokens and renders
// them against a binding of slot names to actors.
package template

import (
	"maps"
	"slices"
	"strings"

	"talesim/internal/diag"
	"talesim/internal/world"
)

type Kind int

const (
	KindLiteral Kind = iota
	KindActor
	KindProp
	KindTense
	KindPronoun
	KindPossessive
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindActor:
		return "actor"
	case KindProp:
		return "prop"
	case KindTense:
		return "tense"
	case KindPronoun:
		return "pronoun"
	case KindPossessive:
		return "possessive"
	}
	return "unknown"
}

// Token is one pre-parsed step of a message. Only the fields that matter
// for Kind are set. An empty Actor on a non-actor token refers to the last
// referenced actor.
type Token struct {
	Kind   Kind
	Text   string
	Actor  string
	Prop   string
	Tenses map[string]string
	Part   world.Part
	Upper  bool
}

func Literal(text string) Token {
	return Token{Kind: KindLiteral, Text: text}
}

func ActorRef(slot string) Token {
	return Token{Kind: KindActor, Actor: slot}
}

func PropRef(slot, prop string) Token {
	return Token{Kind: KindProp, Actor: slot, Prop: prop}
}

func TenseChoice(slot string, tenses map[string]string) Token {
	return Token{Kind: KindTense, Actor: slot, Tenses: tenses}
}

func Pronoun(slot string, part world.Part, upper bool) Token {
	return Token{Kind: KindPronoun, Actor: slot, Part: part, Upper: upper}
}

func Possessive(slot string) Token {
	return Token{Kind: KindPossessive, Actor: slot}
}

// Parse splits msg into tokens. Unknown pronoun letters are reported to d
// and dropped.
func Parse(msg string, d *diag.Collector) []Token {
	p := &parser{src: msg, diag: d}
	return p.parse()
}

type parser struct {
	src     string
	pos     int
	literal strings.Builder
	tokens  []Token
	diag    *diag.Collector
}

func (p *parser) parse() []Token {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '$':
			p.reference()
		case '[':
			p.flush()
			p.tense()
		case '<':
			p.flush()
			p.pronoun()
		default:
			p.literal.WriteByte(c)
		}
	}
	p.flush()
	return p.tokens
}

func (p *parser) flush() {
	if p.literal.Len() == 0 {
		return
	}
	p.tokens = append(p.tokens, Literal(p.literal.String()))
	p.literal.Reset()
}

func (p *parser) reference() {
	if p.peek() == '<' {
		p.pos++
		p.flush()
		p.emitRef(p.until('>'))
		return
	}

	name := p.ident()
	prop := ""
	if p.peek() == '.' && p.pos+1 < len(p.src) && isIdent(p.src[p.pos+1]) {
		p.pos++
		prop = p.ident()
	}
	if name == "" && prop == "" {
		p.literal.WriteByte('$')
		return
	}
	p.flush()
	if prop != "" {
		p.tokens = append(p.tokens, PropRef(name, prop))
		return
	}
	p.tokens = append(p.tokens, ActorRef(name))
}

func (p *parser) emitRef(ref string) {
	if slot, prop, ok := strings.Cut(ref, "."); ok {
		p.tokens = append(p.tokens, PropRef(slot, prop))
		return
	}
	p.tokens = append(p.tokens, ActorRef(ref))
}

func (p *parser) tense() {
	slot := p.parenName()
	tenses := make(map[string]string)
	for _, alt := range strings.Split(p.until(']'), "/") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		tense, text, ok := strings.Cut(alt, "=")
		if !ok {
			continue
		}
		tenses[tense] = text
	}
	p.tokens = append(p.tokens, TenseChoice(slot, tenses))
}

func (p *parser) pronoun() {
	slot := p.parenName()
	contents := p.until('>')
	if contents == "'s" {
		p.tokens = append(p.tokens, Possessive(slot))
		return
	}
	upper := false
	letter := contents
	if lower := strings.ToLower(contents); lower != contents && len(contents) == 1 {
		letter = lower
		upper = true
	}
	part, ok := world.PartFromLetter(letter)
	if !ok {
		p.diag.Warnf(diag.CodeUnknownPronounPart, "unknown pronoun spec %q: only s, o, p, r (and their uppercase variants) and 's are known", contents)
		return
	}
	p.tokens = append(p.tokens, Pronoun(slot, part, upper))
}

func (p *parser) parenName() string {
	if p.peek() != '(' {
		return ""
	}
	p.pos++
	return p.until(')')
}

// until consumes up to and including delim and returns the text before it.
// Without delim it consumes the rest of the input.
func (p *parser) until(delim byte) string {
	rest := p.src[p.pos:]
	i := strings.IndexByte(rest, delim)
	if i < 0 {
		p.pos = len(p.src)
		return rest
	}
	p.pos += i + 1
	return rest[:i]
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func isIdent(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// Format writes tokens back in canonical template syntax.
func Format(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case KindLiteral:
			b.WriteString(tok.Text)
		case KindActor:
			b.WriteString("$<" + tok.Actor + ">")
		case KindProp:
			b.WriteString("$<" + tok.Actor + "." + tok.Prop + ">")
		case KindTense:
			b.WriteString("[")
			writeParen(&b, tok.Actor)
			for i, tense := range slices.Sorted(maps.Keys(tok.Tenses)) {
				if i > 0 {
					b.WriteString("/")
				}
				b.WriteString(tense + "=" + tok.Tenses[tense])
			}
			b.WriteString("]")
		case KindPronoun:
			b.WriteString("<")
			writeParen(&b, tok.Actor)
			letter := tok.Part.Letter()
			if tok.Upper {
				letter = strings.ToUpper(letter)
			}
			b.WriteString(letter + ">")
		case KindPossessive:
			b.WriteString("<")
			writeParen(&b, tok.Actor)
			b.WriteString("'s>")
		}
	}
	return b.String()
}

func writeParen(b *strings.Builder, slot string) {
	if slot != "" {
		b.WriteString("(" + slot + ")")
	}
}

// Slots lists the slot names tokens name explicitly, in first-use order.
func Slots(tokens []Token) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok.Kind == KindLiteral || tok.Actor == "" || seen[tok.Actor] {
			continue
		}
		seen[tok.Actor] = true
		out = append(out, tok.Actor)
	}
	return out
}
