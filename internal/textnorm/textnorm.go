// Package textnorm provides an optional stemming pass over query terms
// before they are handed to the FTS MATCH operator, grounded on
// deidaraiorek-deisearch's indexer/internal/textprocessor/stemmer.go.
// It is opt-in: the specification passes query strings to MATCH
// verbatim by default so that FTS boolean operators, phrase quoting,
// and prefix operators keep working unmodified; stemming is useful
// only for callers who pre-index unstemmed content and want looser
// lexical matching at query time.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Stemmer reduces English words to their word stem using the Snowball
// (Porter2) algorithm.
type Stemmer struct{}

// NewStemmer returns a ready-to-use Stemmer.
func NewStemmer() *Stemmer {
	return &Stemmer{}
}

// Stem returns word's stem, or word unchanged if stemming fails (e.g.
// because it contains no letters).
func (st *Stemmer) Stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stemmed
}

// StemQuery stems each bare word token in a query string while leaving
// FTS5 syntax characters (quotes, parentheses, boolean operators, the
// prefix-match "*") untouched, so a stemmed query remains valid MATCH
// syntax.
func (st *Stemmer) StemQuery(query string) string {
	var b strings.Builder
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		switch w := word.String(); w {
		case "AND", "OR", "NOT", "NEAR":
			b.WriteString(w) // FTS5 boolean/proximity operators
		default:
			b.WriteString(st.Stem(w))
		}
		word.Reset()
	}

	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()

	return b.String()
}
