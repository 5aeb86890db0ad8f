// Package fingerprint derives stable deduplication keys from the
// structural shape of a URL. Two URLs that differ only in query parameter
// values (or page content) share a fingerprint and are treated as the same
// scan target.
package fingerprint

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Generate computes the fingerprint for a URL. The canonical form joins
// the network location, the path depth, the final path segment and the
// sorted names of query parameters carrying a non-empty value, then hashes
// it to a 128-bit digest. Parameters with empty values are excluded, so
// "?x=&y=1" contributes only "y".
func Generate(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		// Unparseable URLs still fingerprint deterministically.
		return hash(rawURL)
	}

	depth := strings.Count(parsed.EscapedPath(), "/")
	page := parsed.EscapedPath()
	if idx := strings.LastIndex(page, "/"); idx >= 0 {
		page = page[idx+1:]
	}

	var params []string
	for _, pair := range strings.Split(parsed.RawQuery, "&") {
		name, value, found := strings.Cut(pair, "=")
		if found && value != "" {
			params = append(params, name)
		}
	}
	sort.Strings(params)

	canonical := strings.Join([]string{
		parsed.Host,
		fmt.Sprintf("%d", depth),
		page,
		strings.Join(params, ","),
	}, "|")

	return hash(canonical)
}

// URLHash returns a stable hash of the raw URL itself, used to derive
// report filenames.
func URLHash(rawURL string) string {
	return hash(rawURL)
}

func hash(s string) string {
	h1, h2 := murmur3.Sum128([]byte(s))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
