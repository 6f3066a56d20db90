// Package defang rewrites indicators of compromise so they cannot be
// clicked or resolved by accident when a case is shared.
package defang

import (
	"regexp"
	"strings"
)

var (
	ipPattern     = regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3})\.(\d{1,3})`)
	schemePattern = regexp.MustCompile(`(?i)(https?)(://)`)
	domainPattern = regexp.MustCompile(`([a-zA-Z0-9][-a-zA-Z0-9]*\.[a-zA-Z0-9][-a-zA-Z0-9]*)\.([a-zA-Z]{2,})`)
)

// Text defangs IPv4 addresses, URL schemes, domains and e-mail addresses in
// s, in that order:
//
//	10.0.0.1            -> 10.0.0[.]1
//	https://            -> hxxp://
//	evil.example.com    -> evil.example[.]com
//	a@b                 -> a[at]b
//
// Only the last dot of an address or three-label domain is bracketed.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = ipPattern.ReplaceAllString(s, "${1}[.]${2}")
	s = schemePattern.ReplaceAllString(s, "hxxp${2}")
	s = domainPattern.ReplaceAllString(s, "${1}[.]${2}")
	return strings.ReplaceAll(s, "@", "[at]")
}

// Changed reports whether Text would modify s.
func Changed(s string) bool {
	return Text(s) != s
}
