package worldfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("malformed world file")

// SyntaxError reports where the reader gave up. It matches ErrSyntax.
type SyntaxError struct {
	Offset  int
	Section string
	Msg     string
}

func (e *SyntaxError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("%s at offset %d: %s", ErrSyntax, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s in %s section at offset %d: %s", ErrSyntax, e.Section, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

type scanner struct {
	src     string
	pos     int
	section string
}

func (s *scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: s.pos, Section: s.section, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) skipSpace() {
	for !s.eof() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// word skips leading whitespace and returns the next run of non-space bytes.
func (s *scanner) word() (string, error) {
	s.skipSpace()
	start := s.pos
	for !s.eof() && !isSpace(s.src[s.pos]) {
		s.pos++
	}
	if start == s.pos {
		return "", s.errorf("unexpected end of input")
	}
	return s.src[start:s.pos], nil
}

// expect skips whitespace and consumes c.
func (s *scanner) expect(c byte) error {
	s.skipSpace()
	if s.peek() != c {
		if s.eof() {
			return s.errorf("expected %q, found end of input", c)
		}
		return s.errorf("expected %q, found %q", c, s.peek())
	}
	s.pos++
	return nil
}

// until consumes up to and including delim and returns the text before it.
func (s *scanner) until(delim byte) (string, error) {
	rest := s.src[s.pos:]
	i := strings.IndexByte(rest, delim)
	if i < 0 {
		s.pos = len(s.src)
		return "", s.errorf("missing %q", delim)
	}
	s.pos += i + 1
	return rest[:i], nil
}

// closing skips whitespace and consumes c if it is next.
func (s *scanner) closing(c byte) bool {
	s.skipSpace()
	if s.peek() == c {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) integer() (int, error) {
	s.skipSpace()
	start := s.pos
	if s.peek() == '-' || s.peek() == '+' {
		s.pos++
	}
	for !s.eof() && '0' <= s.src[s.pos] && s.src[s.pos] <= '9' {
		s.pos++
	}
	n, err := strconv.Atoi(s.src[start:s.pos])
	if err != nil {
		return 0, s.errorf("expected a number, found %q", s.src[start:s.pos])
	}
	return n, nil
}

// list reads a bracketed, comma separated list. Entries are trimmed and
// empty ones dropped.
func (s *scanner) list() ([]string, error) {
	if err := s.expect('['); err != nil {
		return nil, err
	}
	body, err := s.until(']')
	if err != nil {
		return nil, err
	}
	var out []string
	for _, elem := range strings.Split(body, ",") {
		if elem = strings.TrimSpace(elem); elem != "" {
			out = append(out, elem)
		}
	}
	return out, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
