package header

import (
	"slices"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Wildcard is the Access-Control-Expose-Headers value that exposes every
// header of a non-credentialed response.
const Wildcard = "*"

var forbiddenResponseHeaderNames = []string{
	"set-cookie",
	"set-cookie2",
}

var corsSafelistedResponseHeaderNames = []string{
	"cache-control",
	"content-language",
	"content-length",
	"content-type",
	"expires",
	"last-modified",
	"pragma",
}

func containsFold(names []string, name string) bool {
	return slices.ContainsFunc(names, func(n string) bool {
		return strings.EqualFold(n, name)
	})
}

// IsForbiddenResponseHeaderName reports whether name must never be exposed
// to script, whatever the response tainting.
func IsForbiddenResponseHeaderName(name string) bool {
	return containsFold(forbiddenResponseHeaderNames, name)
}

// IsCORSSafelistedResponseHeaderName reports whether name is visible to
// cross-origin script, either because it is always safelisted or because it
// appears in exposed. Exposing a forbidden response-header name has no effect.
func IsCORSSafelistedResponseHeaderName(name string, exposed []string) bool {
	if containsFold(corsSafelistedResponseHeaderNames, name) {
		return true
	}

	return containsFold(exposed, name) && !IsForbiddenResponseHeaderName(name)
}

// ParseNameList splits a comma-separated list of header names, such as the
// value of Access-Control-Expose-Headers. Tokens that are not valid header
// names are dropped, except for the wildcard.
func ParseNameList(value string) []string {
	var names []string

	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token == Wildcard || httpguts.ValidHeaderFieldName(token) {
			names = append(names, token)
		}
	}

	return names
}

// ExpandExposedNames resolves the wildcard of a non-credentialed response:
// when exposed contains it, the result holds every distinct name in l.
// Otherwise exposed is returned unchanged.
func ExpandExposedNames(exposed []string, l *List) []string {
	if !slices.Contains(exposed, Wildcard) {
		return exposed
	}

	var names []string
	for h := range l.All() {
		if !containsFold(names, h.Name) {
			names = append(names, h.Name)
		}
	}

	return names
}
