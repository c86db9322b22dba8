package matching

import (
	"regexp"
	"strings"

	"github.com/getmockd/contractmock/pkg/exchange"
)

// MatchHeaderPattern checks if a header matches a pattern.
// Header names are case-insensitive.
// Supports simple prefix (*suffix), suffix (prefix*), and contains (*middle*) patterns.
func MatchHeaderPattern(name, pattern string, headers exchange.Header) bool {
	actualValue := headers.Get(name)
	if actualValue == "" {
		return false
	}

	// Exact match
	if !strings.Contains(pattern, "*") {
		return actualValue == pattern
	}

	// Prefix match (pattern*)
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(actualValue, prefix)
	}

	// Suffix match (*pattern)
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(actualValue, suffix)
	}

	// Contains match (*pattern*)
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		middle := strings.Trim(pattern, "*")
		return strings.Contains(actualValue, middle)
	}

	return false
}

// MatchHeaderRegexp reports whether any value of the header matches re.
// An absent header never matches.
func MatchHeaderRegexp(name string, re *regexp.Regexp, headers exchange.Header) bool {
	for _, v := range headers.Values(name) {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}
