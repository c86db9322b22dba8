package matching

import (
	"regexp"
	"strings"
)

// MatchBodyContains checks if the body contains the substring.
func MatchBodyContains(body []byte, contains string) bool {
	if contains == "" {
		return true
	}
	return strings.Contains(string(body), contains)
}

// MatchBodyEquals checks if the body exactly equals the expected value.
func MatchBodyEquals(body []byte, expected string) bool {
	if expected == "" {
		return true
	}
	return string(body) == expected
}

// MatchBodyPattern checks if the request body matches a compiled pattern.
// The pattern is unanchored, like a WireMock "matches" body pattern wrapped
// in ".*".
func MatchBodyPattern(re *regexp.Regexp, body []byte) bool {
	if re == nil {
		return true
	}
	return re.Match(body)
}
