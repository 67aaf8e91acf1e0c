// Package sanitize normalizes freeform prefix strings (whether produced
// by an LLM callback or the heuristic contextualizer) before they are
// cached and indexed. The rules mirror the small stdlib-only string
// hygiene helpers the engine applies close to its call sites: no
// external formatting library is warranted for a handful of trims.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

const maxPrefixChars = 600

// Prefix applies the caching contract's normalization rules to a raw
// prefix string:
//
//   - newlines (and other whitespace runs) collapse to single spaces
//   - leading/trailing whitespace is trimmed
//   - a leading literal "answer:" (case-insensitive) is dropped
//   - a trailing "." is trimmed before the length cap, and one more
//     trailing "." (with surrounding whitespace) after it, so at most two
//     trailing periods are removed per call
//   - the result is capped at 600 user-perceived characters (runes),
//     truncating on a rune boundary rather than a byte boundary
//
// Prefix(Prefix(s)) == Prefix(s) holds unless s ends in three or more
// trailing periods, since each call removes at most two of them.
func Prefix(s string) string {
	s = collapseWhitespace(s)
	s = strings.TrimSpace(s)
	s = trimLeadingAnswerLabel(s)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	s = truncateRunes(s, maxPrefixChars)
	// Truncation (or the period trim above) may have exposed trailing
	// whitespace or a new trailing period; trim those too so that Prefix
	// stays idempotent under repeated application.
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSpace(s)
	return s
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// trimLeadingAnswerLabel strips every leading "answer:" label, not just
// one, so that a string like "answer:answer: x" collapses fully within a
// single Prefix call instead of peeling one layer per call.
func trimLeadingAnswerLabel(s string) string {
	const label = "answer:"
	for {
		s = strings.TrimLeft(s, " ")
		if len(s) < len(label) || !strings.EqualFold(s[:len(label)], label) {
			return s
		}
		s = s[len(label):]
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == max {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
