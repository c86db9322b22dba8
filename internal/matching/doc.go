// Package matching scores requests against stub matchers.
//
// A stub.Matcher is compiled once with Compile: regular expressions, JSONPath
// expressions and the "when" expression are parsed up front, so evaluating a
// request never recompiles anything. Every criterion the matcher sets must
// hold; each one that holds adds to the score:
//
//   - method: ScoreMethod
//   - path: exact, {named} params or * wildcards (ScorePathExact, ScorePathNamedParams, ScorePathWildcard)
//   - pathPattern: regular expression (ScorePathPattern)
//   - headers: exact values or prefix*, *suffix, *middle* wildcards (ScoreHeader each)
//   - headerPatterns: regular expressions (ScoreHeaderPattern each)
//   - queryParams: exact values (ScoreQueryParam each)
//   - bodyEquals, bodyContains, bodyPattern
//   - bodyJsonPath: JSONPath conditions (ScoreJSONPathCondition each)
//   - when: boolean expression (ScoreWhen)
//
// Explain evaluates every criterion without short-circuiting and is used to
// report near misses when no stub matches.
package matching
