package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/folio-eng/folio/internal/ports"
	"github.com/folio-eng/folio/internal/sanitize"
)

var barePageLineRe = regexp.MustCompile(`(?i)^page\s+\d+$`)

// heuristicPrefix is the synchronous contextualizer: a deterministic,
// no-network fallback used whenever a caller-supplied PrefixFunc is
// absent, errors, or returns an empty sanitized result. It derives a
// short prefix from the document name, the chunk's page, and the first
// non-trivial line of that page (skipping bare "page N" running
// headers), then sanitizes the result the same way an LLM-provided
// prefix would be.
func heuristicPrefix(doc *ports.LoadedDocument, page *int, chunkText string) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(doc.Name)
	if page != nil {
		fmt.Fprintf(&b, " p.%d", *page+1)
	}
	b.WriteByte(']')

	if line := firstNonTrivialLine(doc, page, chunkText); line != "" {
		b.WriteByte(' ')
		b.WriteString(line)
	}
	return sanitize.Prefix(b.String())
}

// firstNonTrivialLine returns the first non-blank line of the chunk's
// source page that is not itself a bare "page N" running header,
// falling back to the chunk text when the page cannot be located.
func firstNonTrivialLine(doc *ports.LoadedDocument, page *int, chunkText string) string {
	text := chunkText
	if page != nil {
		for _, p := range doc.Pages {
			if p.Index == *page {
				text = p.Text
				break
			}
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || barePageLineRe.MatchString(trimmed) {
			continue
		}
		return trimmed
	}
	return ""
}
