package matching

import (
	"fmt"
	"sort"
	"strings"
)

// FieldResult describes whether a single matcher field matched the request.
type FieldResult struct {
	Field    string      `json:"field"`
	Matched  bool        `json:"matched"`
	Score    int         `json:"score"`
	MaxScore int         `json:"maxScore"`
	Expected interface{} `json:"expected,omitempty"`
	Actual   interface{} `json:"actual,omitempty"`
	Details  interface{} `json:"details,omitempty"`
}

// KeyDetail describes the match result for a single header or query parameter.
type KeyDetail struct {
	Key      string `json:"key"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Matched  bool   `json:"matched"`
}

// NearMiss is a stub that partially matched an incoming request.
type NearMiss struct {
	StubID           string        `json:"stubId"`
	StubName         string        `json:"stubName,omitempty"`
	Score            int           `json:"score"`
	MaxPossibleScore int           `json:"maxPossibleScore"`
	MatchPercentage  int           `json:"matchPercentage"`
	Fields           []FieldResult `json:"fields"`
	Reason           string        `json:"reason"`
}

// Candidate is a compiled stub matcher with its identity.
type Candidate struct {
	ID      string
	Name    string
	Matcher *Compiled
}

// CollectNearMisses explains every candidate against the request and returns
// the top N by partial score. Candidates where nothing matched are skipped.
// Only called for unmatched requests.
func CollectNearMisses(candidates []Candidate, in *Input, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}

	var misses []NearMiss
	for _, c := range candidates {
		if c.Matcher == nil {
			continue
		}
		nm := c.Matcher.Explain(in)
		if nm.Score == 0 {
			continue
		}
		nm.StubID = c.ID
		nm.StubName = c.Name
		misses = append(misses, *nm)
	}

	sort.SliceStable(misses, func(i, j int) bool {
		if misses[i].Score != misses[j].Score {
			return misses[i].Score > misses[j].Score
		}
		return misses[i].MatchPercentage > misses[j].MatchPercentage
	})

	if len(misses) > topN {
		misses = misses[:topN]
	}
	return misses
}

// GenerateReason creates a human-readable explanation of why a stub
// partially matched but ultimately failed.
func GenerateReason(fields []FieldResult) string {
	if len(fields) == 0 {
		return "no fields to compare"
	}

	var matched []string
	var firstMismatch *FieldResult

	for i := range fields {
		if fields[i].Matched {
			matched = append(matched, fields[i].Field)
		} else if firstMismatch == nil {
			firstMismatch = &fields[i]
		}
	}

	if firstMismatch == nil {
		return "all specified fields matched"
	}

	if len(matched) == 0 {
		return formatMismatch(firstMismatch)
	}

	matchedStr := joinFields(matched)
	return matchedStr + " matched, but " + formatMismatch(firstMismatch)
}

// formatMismatch formats a single field mismatch into a human-readable string.
func formatMismatch(f *FieldResult) string {
	switch f.Field {
	case "method":
		return fmt.Sprintf("method expected %q, got %q", f.Expected, f.Actual)
	case "path", "pathPattern":
		return fmt.Sprintf("path expected %q, got %q", f.Expected, f.Actual)
	case "headers", "headerPatterns":
		if d := firstMismatchedKey(f); d != nil {
			return fmt.Sprintf("header %s expected %q, got %q", d.Key, d.Expected, d.Actual)
		}
		return "header mismatch"
	case "queryParams":
		if d := firstMismatchedKey(f); d != nil {
			return fmt.Sprintf("query param %s expected %q, got %q", d.Key, d.Expected, d.Actual)
		}
		return "query parameter mismatch"
	case "bodyEquals":
		return fmt.Sprintf("body expected exact match %q", f.Expected)
	case "bodyContains":
		return fmt.Sprintf("body expected to contain %q", f.Expected)
	case "bodyPattern":
		return fmt.Sprintf("body expected to match pattern %q", f.Expected)
	case "bodyJsonPath":
		return "body JSONPath condition not satisfied"
	case "when":
		return fmt.Sprintf("when expression %q evaluated to %v", f.Expected, f.Actual)
	default:
		return f.Field + " did not match"
	}
}

// joinFields joins field names with commas and "and".
func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
	}
}

func firstMismatchedKey(f *FieldResult) *KeyDetail {
	details, ok := f.Details.([]KeyDetail)
	if !ok {
		return nil
	}
	for i := range details {
		if !details[i].Matched {
			return &details[i]
		}
	}
	return nil
}

// truncate shortens a string to maxLen, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
