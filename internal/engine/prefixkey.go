package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// prefixCacheKey computes the content-addressed key async ingest uses
// to memoize a chunk's contextual prefix: a SHA-256 over
// sourceID | "|" | pageOrMinusOne | "|" | chunkText, hex-encoded. The
// page placeholder for "no page" is the literal -1, which no loader
// emits as a real (zero-based) page index.
func prefixCacheKey(sourceID string, page *int, chunkText string) string {
	pageValue := -1
	if page != nil {
		pageValue = *page
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s", sourceID, pageValue, chunkText)
	return hex.EncodeToString(h.Sum(nil))
}
