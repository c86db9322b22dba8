package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Level is the enforcement level of a validation message.
type Level string

// Enforcement levels. Only ERROR blocks an exchange.
const (
	LevelError  Level = "ERROR"
	LevelWarn   Level = "WARN"
	LevelIgnore Level = "IGNORE"
)

// ParseLevel parses a level name case-insensitively. "WARNING" is accepted
// as an alias of WARN.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "IGNORE":
		return LevelIgnore, nil
	default:
		return "", fmt.Errorf("unknown validation level %q (want ERROR, WARN or IGNORE)", s)
	}
}

type levelRule struct {
	pattern string
	level   Level
}

// LevelResolver maps rule keys to enforcement levels.
//
// Patterns are doublestar globs over dotted rule keys, e.g.
// "validation.request.security.*". When several patterns match a key the
// longest one wins. Forced rules are consulted before ordinary rules and
// cannot be overridden. A LevelResolver is immutable once built.
type LevelResolver struct {
	forced []levelRule
	rules  []levelRule
}

// NewLevelResolver builds a resolver from user overrides (pattern -> level
// name) with the forced rules applied on top.
func NewLevelResolver(overrides map[string]string) (*LevelResolver, error) {
	r := &LevelResolver{}
	patterns := make([]string, 0, len(overrides))
	for p := range overrides {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	for _, p := range patterns {
		level, err := ParseLevel(overrides[p])
		if err != nil {
			return nil, fmt.Errorf("level override %q: %w", p, err)
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("level override %q: invalid pattern", p)
		}
		r.rules = append(r.rules, levelRule{pattern: p, level: level})
	}

	r.forced = forcedLevels()
	return r, nil
}

// forcedLevels returns the overrides that always apply: security violations
// are errors on both sides of an exchange, and response status codes the
// contract does not declare are ignored so negative-path stubs (401, 403)
// pass through.
func forcedLevels() []levelRule {
	return []levelRule{
		{pattern: "validation.request.security.*", level: LevelError},
		{pattern: "validation.response.security.*", level: LevelError},
		{pattern: RuleResponseStatusUnknown, level: LevelIgnore},
	}
}

// Resolve returns the level for key, or def when no rule matches.
func (r *LevelResolver) Resolve(key string, def Level) Level {
	if r == nil {
		return def
	}
	if level, ok := bestMatch(r.forced, key); ok {
		return level
	}
	if level, ok := bestMatch(r.rules, key); ok {
		return level
	}
	return def
}

func bestMatch(rules []levelRule, key string) (Level, bool) {
	best := -1
	for i, rule := range rules {
		matched := rule.pattern == key
		if !matched {
			var err error
			matched, err = doublestar.Match(rule.pattern, key)
			if err != nil {
				continue
			}
		}
		if matched && (best < 0 || len(rule.pattern) >= len(rules[best].pattern)) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return rules[best].level, true
}
