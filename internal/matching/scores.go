package matching

// Match score constants for body matching.
// Higher scores indicate more specific/precise matches.
const (
	// ScoreBodyEquals is the score for an exact body match.
	ScoreBodyEquals = 25

	// ScoreBodyPattern is the score for a body regex pattern match.
	// Between contains (20) and equals (25).
	ScoreBodyPattern = 22

	// ScoreBodyContains is the score for a body substring match.
	ScoreBodyContains = 20
)

// Match score constants for path matching.
const (
	// ScorePathExact is the score for an exact path match.
	ScorePathExact = 15

	// ScorePathPattern is the score for a path regex pattern match.
	// Between exact (15) and named params (12).
	ScorePathPattern = 14

	// ScorePathNamedParams is the score for a path with named parameters match.
	ScorePathNamedParams = 12

	// ScorePathWildcard is the score for a wildcard path match.
	ScorePathWildcard = 10
)

// Match score constants for method, header, and query matching.
const (
	// ScoreMethod is the score for a method match.
	ScoreMethod = 10

	// ScoreHeader is the score for each header match.
	ScoreHeader = 10

	// ScoreHeaderPattern is the score for each header regex match.
	ScoreHeaderPattern = 8

	// ScoreQueryParam is the score for each query parameter match.
	ScoreQueryParam = 5
)

// ScoreJSONPathCondition is the score per matched JSONPath condition.
const ScoreJSONPathCondition = 15

// ScoreWhen is the score for a satisfied "when" expression.
const ScoreWhen = 10
