package matching

import (
	"net/url"
)

// MatchQueryParam checks if a specific query parameter matches.
func MatchQueryParam(name, expectedValue string, params url.Values) bool {
	if !params.Has(name) {
		return false
	}
	return params.Get(name) == expectedValue
}
