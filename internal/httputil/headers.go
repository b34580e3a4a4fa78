package httputil

import (
	"net/http"
	"strings"
)

// FilterHeaders copies only headers named in allowlist (lower-cased names).
// Everything else, cookies and host headers included, is dropped. The input
// is never modified.
func FilterHeaders(headers http.Header, allowlist map[string]struct{}) http.Header {
	filtered := make(http.Header, len(allowlist))
	for name, values := range headers {
		if _, ok := allowlist[strings.ToLower(name)]; !ok {
			continue
		}
		for _, v := range values {
			filtered.Add(name, v)
		}
	}
	return filtered
}

// Allowlist builds the lower-cased set FilterHeaders expects.
func Allowlist(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}
