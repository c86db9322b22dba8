package matching

import (
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// matchJSONPaths evaluates compiled JSONPath conditions against the request
// body. It returns ScoreJSONPathCondition per condition, or 0 when the body
// is not JSON or any condition fails.
func matchJSONPaths(conditions []jsonPathCondition, in *Input) int {
	if len(conditions) == 0 {
		return 0
	}

	data, ok := in.JSON()
	if !ok {
		return 0
	}

	score := 0
	for _, cond := range conditions {
		if !matchSingleJSONPath(cond.expr, cond.expected, data) {
			return 0
		}
		score += ScoreJSONPathCondition
	}
	return score
}

// matchSingleJSONPath evaluates a single JSONPath condition.
func matchSingleJSONPath(x jp.Expr, expected interface{}, data interface{}) bool {
	results := x.Get(data)

	if isExistenceCheck(expected) {
		// {exists: true} needs a result, {exists: false} needs none.
		return getExistsValue(expected) == (len(results) > 0)
	}

	// For wildcard paths that return multiple results, check if any match
	for _, result := range results {
		if valuesEqual(result, expected) {
			return true
		}
	}

	return false
}

// isExistenceCheck determines if the expected value is an existence check object.
// An existence check is a map with an "exists" key containing a boolean.
func isExistenceCheck(expected interface{}) bool {
	m, ok := expected.(map[string]interface{})
	if !ok {
		return false
	}
	_, hasExists := m["exists"]
	return hasExists && len(m) == 1
}

// getExistsValue extracts the boolean value from an existence check.
func getExistsValue(expected interface{}) bool {
	m, ok := expected.(map[string]interface{})
	if !ok {
		return false
	}
	exists, ok := m["exists"]
	if !ok {
		return false
	}
	b, ok := exists.(bool)
	return ok && b
}

// valuesEqual compares two values for equality, handling type coercion.
// Supports comparing:
//   - strings
//   - numbers (float64, int, etc.)
//   - booleans
//   - null
func valuesEqual(actual, expected interface{}) bool {
	// Handle nil/null
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	// Try direct equality first
	if reflect.DeepEqual(actual, expected) {
		return true
	}

	// Handle numeric comparison (JSON numbers are float64)
	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	// Handle string comparison
	actualStr, actualIsStr := actual.(string)
	expectedStr, expectedIsStr := expected.(string)
	if actualIsStr && expectedIsStr {
		return actualStr == expectedStr
	}

	// Handle boolean comparison
	actualBool, actualIsBool := actual.(bool)
	expectedBool, expectedIsBool := expected.(bool)
	if actualIsBool && expectedIsBool {
		return actualBool == expectedBool
	}

	return false
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}
