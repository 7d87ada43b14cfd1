// Package naming turns raw column identifiers into readable labels.
package naming

import (
	"strings"
	"unicode"
)

// Options control Format.
type Options struct {
	// Enabled splits identifiers at capital letters. When false, Format only
	// removes whitespace.
	Enabled bool
	// PreserveAdjacentCapitals keeps a run of capitals together, so
	// "TPSReport" becomes "TPS Report" rather than "T P S Report".
	PreserveAdjacentCapitals bool
}

// RemoveWhitespace drops every whitespace rune from s.
func RemoveWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Format converts an identifier into a spaced label.
//
// A space goes before an uppercase letter unless it is the first rune or the
// last emitted rune is already a space. With PreserveAdjacentCapitals, the
// space is also skipped when both neighbours of the capital are capitals; the
// end of the identifier or a following space counts as a capital neighbour so
// trailing acronyms stay whole ("PersonID" → "Person ID") and formatted
// labels come back unchanged.
func Format(name string, opts Options) string {
	if !opts.Enabled {
		return RemoveWhitespace(name)
	}

	s := scanner{preserve: opts.PreserveAdjacentCapitals}
	s.out.Grow(len(name) + len(name)/4)
	for _, r := range name {
		s.push(r)
	}
	s.flush()
	return s.out.String()
}

// scanner holds a window of three runes: prev, cur and the rune being pushed
// as lookahead. cur is emitted once its lookahead is known.
type scanner struct {
	preserve bool
	out      strings.Builder

	prev, cur       rune
	hasPrev, hasCur bool
	lastEmitted     rune
	emitted         bool
}

func (s *scanner) push(next rune) {
	if s.hasCur {
		s.emit(next, true)
	}
	s.prev, s.hasPrev = s.cur, s.hasCur
	s.cur, s.hasCur = next, true
}

func (s *scanner) flush() {
	if s.hasCur {
		s.emit(0, false)
	}
}

func (s *scanner) emit(next rune, hasNext bool) {
	r := s.cur
	if unicode.IsUpper(r) && s.emitted && s.lastEmitted != ' ' && s.splitBefore(next, hasNext) {
		s.write(' ')
	}
	s.write(r)
}

func (s *scanner) splitBefore(next rune, hasNext bool) bool {
	if !s.preserve {
		return true
	}
	if !s.hasPrev || !unicode.IsUpper(s.prev) {
		return true
	}
	// whitespace ends a word like the end of input does
	return hasNext && !unicode.IsUpper(next) && !unicode.IsSpace(next)
}

func (s *scanner) write(r rune) {
	s.out.WriteRune(r)
	s.lastEmitted = r
	s.emitted = true
}
