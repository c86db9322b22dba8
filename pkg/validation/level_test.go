package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"ERROR", LevelError, false},
		{"error", LevelError, false},
		{" warn ", LevelWarn, false},
		{"WARNING", LevelWarn, false},
		{"ignore", LevelIgnore, false},
		{"INFO", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelResolver_ForcedRules(t *testing.T) {
	t.Parallel()

	r, err := NewLevelResolver(map[string]string{
		"validation.request.security.missing": "IGNORE",
		"validation.response.*":               "WARN",
		"validation.response.status.unknown":  "ERROR",
	})
	require.NoError(t, err)

	assert.Equal(t, LevelError, r.Resolve(RuleRequestSecurityMissing, LevelError), "security cannot be downgraded")
	assert.Equal(t, LevelError, r.Resolve("validation.response.security.missing", LevelError))
	assert.Equal(t, LevelIgnore, r.Resolve(RuleResponseStatusUnknown, LevelError), "unknown status is always ignored")
	assert.Equal(t, LevelWarn, r.Resolve(RuleResponseBodySchema, LevelError))
}

func TestLevelResolver_MostSpecificWins(t *testing.T) {
	t.Parallel()

	r, err := NewLevelResolver(map[string]string{
		"validation.request.*":                      "WARN",
		"validation.request.parameter.*":            "IGNORE",
		"validation.request.parameter.query.*":      "ERROR",
		"validation.request.parameter.header.extra": "WARN",
	})
	require.NoError(t, err)

	assert.Equal(t, LevelWarn, r.Resolve(RuleRequestBodySchema, LevelError))
	assert.Equal(t, LevelIgnore, r.Resolve("validation.request.parameter.path.invalid", LevelError))
	assert.Equal(t, LevelError, r.Resolve("validation.request.parameter.query.missing", LevelWarn))
	assert.Equal(t, LevelWarn, r.Resolve("validation.request.parameter.header.extra", LevelError))
	assert.Equal(t, LevelError, r.Resolve(RuleResponseBodySchema, LevelError), "falls back to default")
}

func TestLevelResolver_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewLevelResolver(map[string]string{"validation.request.*": "LOUD"})
	assert.Error(t, err)

	_, err = NewLevelResolver(map[string]string{"validation.[request": "WARN"})
	assert.Error(t, err)
}

func TestLevelResolver_Nil(t *testing.T) {
	t.Parallel()

	var r *LevelResolver
	assert.Equal(t, LevelWarn, r.Resolve(RuleRequestBodySchema, LevelWarn))
}
