// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner walks over SQL text one rune at a time. It knows enough SQL to
// step over string literals, comments and parenthesised sections so that
// tokens inside them are left alone.
type scanner struct {
	input string
	pos   int
	// nextPos is start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches the
	// end of input.
	char rune
}

func newScanner(input string) *scanner {
	s := &scanner{input: input}
	s.advanceChar()
	return s
}

func (s *scanner) done() bool {
	return s.pos >= len(s.input)
}

// advanceChar moves the scanner to the next character in the input.
func (s *scanner) advanceChar() bool {
	if s.nextPos >= len(s.input) {
		s.char = 0
		s.pos = s.nextPos
		return false
	}
	var size int
	s.char, size = utf8.DecodeRuneInString(s.input[s.nextPos:])
	s.pos = s.nextPos
	s.nextPos += size
	return true
}

// peekNext returns the rune after the current one, or 0 at the end of input.
func (s *scanner) peekNext() rune {
	if s.nextPos >= len(s.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.input[s.nextPos:])
	return r
}

// skipChar jumps over the current char if it matches the char passed as a
// parameter. Returns true in that case, false otherwise.
func (s *scanner) skipChar(c rune) bool {
	if !s.done() && s.char == c {
		s.advanceChar()
		return true
	}
	return false
}

// skipStringLiteral jumps over single and double quoted sections of input.
// Doubled up quotes are escaped. An unterminated literal runs to the end of
// the input.
func (s *scanner) skipStringLiteral() bool {
	c := s.char
	if !s.skipChar('"') && !s.skipChar('\'') {
		return false
	}
	for !s.done() {
		if s.skipChar(c) {
			// A doubled quote is an escaped quote.
			if !s.skipChar(c) {
				return true
			}
			continue
		}
		s.advanceChar()
	}
	return true
}

// skipComment jumps over -- and /* */ comments.
func (s *scanner) skipComment() bool {
	switch {
	case s.char == '-' && s.peekNext() == '-':
		for !s.done() && s.char != '\n' {
			s.advanceChar()
		}
		return true
	case s.char == '/' && s.peekNext() == '*':
		s.advanceChar()
		s.advanceChar()
		for !s.done() {
			if s.char == '*' && s.peekNext() == '/' {
				s.advanceChar()
				s.advanceChar()
				return true
			}
			s.advanceChar()
		}
		return true
	}
	return false
}

// skipName advances the scanner past a name and returns it.
func (s *scanner) skipName() string {
	mark := s.pos
	if !s.done() && isInitialNameChar(s.char) {
		s.advanceChar()
		for !s.done() && isNameChar(s.char) {
			s.advanceChar()
		}
	}
	return s.input[mark:s.pos]
}

// isNameChar returns true if the given char can be part of a name.
func isNameChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// isInitialNameChar returns true if the given char can appear at the start of a
// name.
func isInitialNameChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

// token is a ":name" placeholder found by scanTokens.
type token struct {
	start, end int
	name       string
}

// scanTokens returns the ":name" tokens of input found outside string
// literals and comments. Postgres style casts ("x::int") are not tokens.
func scanTokens(input string) []token {
	var tokens []token
	s := newScanner(input)
	for !s.done() {
		if s.skipStringLiteral() || s.skipComment() {
			continue
		}
		if s.char == ':' {
			start := s.pos
			s.advanceChar()
			if s.skipChar(':') {
				// Skip the cast target as well.
				s.skipName()
				continue
			}
			if name := s.skipName(); name != "" {
				tokens = append(tokens, token{start: start, end: s.pos, name: ":" + name})
			}
			continue
		}
		s.advanceChar()
	}
	return tokens
}

// Substitute replaces the ":name" tokens of template that have an entry in
// replacements. Tokens inside string literals and comments are left alone,
// as are tokens without a replacement.
func Substitute(template string, replacements map[string]string) string {
	var b strings.Builder
	last := 0
	for _, t := range scanTokens(template) {
		r, ok := replacements[t.name]
		if !ok {
			continue
		}
		b.WriteString(template[last:t.start])
		b.WriteString(r)
		last = t.end
	}
	b.WriteString(template[last:])
	return b.String()
}

// Placeholders returns the distinct ":name" placeholders of sql in order of
// first appearance.
func Placeholders(sql string) []string {
	var names []string
	seen := map[string]bool{}
	for _, t := range scanTokens(sql) {
		if !seen[t.name] {
			seen[t.name] = true
			names = append(names, t.name)
		}
	}
	return names
}

// IsPlaceholder reports whether s is exactly a ":name" or "?" placeholder.
func IsPlaceholder(s string) bool {
	if s == "?" {
		return true
	}
	if !strings.HasPrefix(s, ":") || len(s) < 2 {
		return false
	}
	sc := newScanner(s[1:])
	return sc.skipName() != "" && sc.done()
}

// Enclosed reports whether s is wrapped in a single matching pair of
// parentheses, as in "(a OR b)" but not "(a) OR (b)".
func Enclosed(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return false
	}
	sc := newScanner(s)
	depth := 0
	for !sc.done() {
		if sc.skipStringLiteral() || sc.skipComment() {
			continue
		}
		switch sc.char {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return sc.nextPos >= len(s)
			}
		}
		sc.advanceChar()
	}
	return false
}

// HasBooleanOperator reports whether s contains an AND or OR outside
// parentheses, string literals and comments. The AND of a BETWEEN
// predicate does not count.
func HasBooleanOperator(s string) bool {
	sc := newScanner(s)
	depth := 0
	between := false
	for !sc.done() {
		if sc.skipStringLiteral() || sc.skipComment() {
			continue
		}
		switch {
		case sc.char == '(':
			depth++
		case sc.char == ')':
			depth--
		case isInitialNameChar(sc.char):
			word := sc.skipName()
			if depth != 0 {
				continue
			}
			switch strings.ToUpper(word) {
			case "BETWEEN":
				between = true
			case "AND":
				if !between {
					return true
				}
				between = false
			case "OR":
				return true
			}
			continue
		case isNameChar(sc.char):
			// Digits and underscores cannot start a word, skip the rest of
			// the run so that "1AND" is not split.
			for !sc.done() && isNameChar(sc.char) {
				sc.advanceChar()
			}
			continue
		}
		sc.advanceChar()
	}
	return false
}
