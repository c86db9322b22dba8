package matching

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/contractmock/pkg/stub"
)

// Compiled is a stub.Matcher with its expressions parsed. It is immutable and
// safe for concurrent use.
type Compiled struct {
	matcher *stub.Matcher

	pathPattern    *regexp.Regexp
	bodyPattern    *regexp.Regexp
	headerNames    []string
	headerPatterns []headerPattern
	queryNames     []string
	jsonPaths      []jsonPathCondition
	when           *vm.Program
}

type headerPattern struct {
	name string
	re   *regexp.Regexp
}

type jsonPathCondition struct {
	path     string
	expr     jp.Expr
	expected interface{}
}

// Compile parses every expression in m.
func Compile(m *stub.Matcher) (*Compiled, error) {
	if m == nil {
		return nil, fmt.Errorf("matcher is nil")
	}
	if m.Path != "" && m.PathPattern != "" {
		return nil, fmt.Errorf("cannot specify both path and pathPattern")
	}

	c := &Compiled{matcher: m}
	var err error

	if m.PathPattern != "" {
		if c.pathPattern, err = regexp.Compile(m.PathPattern); err != nil {
			return nil, fmt.Errorf("invalid pathPattern: %w", err)
		}
	}
	if m.BodyPattern != "" {
		if c.bodyPattern, err = regexp.Compile(m.BodyPattern); err != nil {
			return nil, fmt.Errorf("invalid bodyPattern: %w", err)
		}
	}

	c.headerNames = sortedKeys(m.Headers)
	c.queryNames = sortedKeys(m.QueryParams)

	for _, name := range sortedKeys(m.HeaderPatterns) {
		re, err := regexp.Compile(m.HeaderPatterns[name])
		if err != nil {
			return nil, fmt.Errorf("invalid headerPatterns.%s: %w", name, err)
		}
		c.headerPatterns = append(c.headerPatterns, headerPattern{name: name, re: re})
	}

	paths := make([]string, 0, len(m.BodyJSONPath))
	for path := range m.BodyJSONPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		x, err := jp.ParseString(path)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
		}
		c.jsonPaths = append(c.jsonPaths, jsonPathCondition{path: path, expr: x, expected: m.BodyJSONPath[path]})
	}

	if m.When != "" {
		c.when, err = expr.Compile(m.When, expr.Env(exprEnvSample()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid when expression: %w", err)
		}
	}

	return c, nil
}

// Matcher returns the source matcher.
func (c *Compiled) Matcher() *stub.Matcher {
	return c.matcher
}

// Score returns the match score of in, or 0 when any criterion fails.
func (c *Compiled) Score(in *Input) int {
	result := c.evaluate(in, false)
	if result == nil {
		return 0
	}
	return result.Score
}

// Explain evaluates every criterion without short-circuiting.
func (c *Compiled) Explain(in *Input) *NearMiss {
	result := c.evaluate(in, true)
	if result.MaxPossibleScore > 0 {
		result.MatchPercentage = (result.Score * 100) / result.MaxPossibleScore
	}
	result.Reason = GenerateReason(result.Fields)
	return result
}

// evaluate checks each criterion in a fixed order. Unless full is set it
// returns nil at the first mismatch.
func (c *Compiled) evaluate(in *Input, full bool) *NearMiss {
	m := c.matcher
	result := &NearMiss{}

	add := func(f FieldResult) bool {
		if f.Matched {
			result.Score += f.Score
		} else {
			f.Score = 0
		}
		result.MaxPossibleScore += f.MaxScore
		if full {
			result.Fields = append(result.Fields, f)
		}
		return f.Matched || full
	}

	if m.Method != "" {
		if !add(FieldResult{
			Field:    "method",
			Matched:  MatchMethod(m.Method, in.Method),
			Score:    ScoreMethod,
			MaxScore: ScoreMethod,
			Expected: m.Method,
			Actual:   in.Method,
		}) {
			return nil
		}
	}

	if m.Path != "" {
		score := MatchPath(m.Path, in.Path)
		if !add(FieldResult{
			Field:    "path",
			Matched:  score > 0,
			Score:    score,
			MaxScore: maxPathScore(m.Path),
			Expected: m.Path,
			Actual:   in.Path,
		}) {
			return nil
		}
	}

	if c.pathPattern != nil {
		if !add(FieldResult{
			Field:    "pathPattern",
			Matched:  c.pathPattern.MatchString(in.Path),
			Score:    ScorePathPattern,
			MaxScore: ScorePathPattern,
			Expected: m.PathPattern,
			Actual:   in.Path,
		}) {
			return nil
		}
	}

	if len(c.headerNames) > 0 {
		f := FieldResult{Field: "headers", Matched: true}
		var details []KeyDetail
		for _, name := range c.headerNames {
			expected := m.Headers[name]
			matched := MatchHeaderPattern(name, expected, in.Header)
			if matched {
				f.Score += ScoreHeader
			} else {
				f.Matched = false
			}
			f.MaxScore += ScoreHeader
			details = append(details, KeyDetail{Key: name, Expected: expected, Actual: orMissing(in.Header.Get(name)), Matched: matched})
			if !matched && !full {
				break
			}
		}
		f.Details = details
		if !add(f) {
			return nil
		}
	}

	if len(c.headerPatterns) > 0 {
		f := FieldResult{Field: "headerPatterns", Matched: true}
		var details []KeyDetail
		for _, hp := range c.headerPatterns {
			matched := MatchHeaderRegexp(hp.name, hp.re, in.Header)
			if matched {
				f.Score += ScoreHeaderPattern
			} else {
				f.Matched = false
			}
			f.MaxScore += ScoreHeaderPattern
			details = append(details, KeyDetail{Key: hp.name, Expected: hp.re.String(), Actual: orMissing(in.Header.Get(hp.name)), Matched: matched})
			if !matched && !full {
				break
			}
		}
		f.Details = details
		if !add(f) {
			return nil
		}
	}

	if len(c.queryNames) > 0 {
		f := FieldResult{Field: "queryParams", Matched: true}
		var details []KeyDetail
		for _, name := range c.queryNames {
			expected := m.QueryParams[name]
			matched := MatchQueryParam(name, expected, in.Query)
			if matched {
				f.Score += ScoreQueryParam
			} else {
				f.Matched = false
			}
			f.MaxScore += ScoreQueryParam
			details = append(details, KeyDetail{Key: name, Expected: expected, Actual: orMissing(in.Query.Get(name)), Matched: matched})
			if !matched && !full {
				break
			}
		}
		f.Details = details
		if !add(f) {
			return nil
		}
	}

	if m.BodyEquals != "" {
		if !add(FieldResult{
			Field:    "bodyEquals",
			Matched:  MatchBodyEquals(in.Body, m.BodyEquals),
			Score:    ScoreBodyEquals,
			MaxScore: ScoreBodyEquals,
			Expected: truncate(m.BodyEquals, 200),
			Actual:   truncate(string(in.Body), 200),
		}) {
			return nil
		}
	}

	if m.BodyContains != "" {
		matched := MatchBodyContains(in.Body, m.BodyContains)
		if !add(FieldResult{
			Field:    "bodyContains",
			Matched:  matched,
			Score:    ScoreBodyContains,
			MaxScore: ScoreBodyContains,
			Expected: m.BodyContains,
			Actual:   describe(matched, "(body contains substring)", "(body does not contain substring)"),
		}) {
			return nil
		}
	}

	if c.bodyPattern != nil {
		matched := MatchBodyPattern(c.bodyPattern, in.Body)
		if !add(FieldResult{
			Field:    "bodyPattern",
			Matched:  matched,
			Score:    ScoreBodyPattern,
			MaxScore: ScoreBodyPattern,
			Expected: m.BodyPattern,
			Actual:   describe(matched, "(body matches pattern)", "(body does not match pattern)"),
		}) {
			return nil
		}
	}

	if len(c.jsonPaths) > 0 {
		score := matchJSONPaths(c.jsonPaths, in)
		if !add(FieldResult{
			Field:    "bodyJsonPath",
			Matched:  score > 0,
			Score:    score,
			MaxScore: len(c.jsonPaths) * ScoreJSONPathCondition,
			Expected: m.BodyJSONPath,
		}) {
			return nil
		}
	}

	if c.when != nil {
		matched, err := c.evalWhen(in)
		f := FieldResult{
			Field:    "when",
			Matched:  matched,
			Score:    ScoreWhen,
			MaxScore: ScoreWhen,
			Expected: m.When,
			Actual:   describe(matched, "true", "false"),
		}
		if err != nil {
			f.Actual = err.Error()
		}
		if !add(f) {
			return nil
		}
	}

	return result
}

// evalWhen runs the compiled expression. Runtime errors count as a mismatch.
func (c *Compiled) evalWhen(in *Input) (bool, error) {
	out, err := expr.Run(c.when, in.exprEnv())
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	return ok && b, nil
}

// MatchMethod checks if the request method matches.
func MatchMethod(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orMissing(v string) string {
	if v == "" {
		return "(missing)"
	}
	return v
}

func describe(matched bool, yes, no string) string {
	if matched {
		return yes
	}
	return no
}
