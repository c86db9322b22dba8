package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/contractmock/pkg/exchange"
)

func TestBearerChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header map[string]string
		want   Decision
	}{
		{"valid token", map[string]string{"Authorization": "Bearer abc.def"}, Authorized},
		{"lower-case header name", map[string]string{"authorization": "Bearer abc"}, Authorized},
		{"lower-case scheme", map[string]string{"Authorization": "bearer abc"}, Authorized},
		{"upper-case scheme", map[string]string{"Authorization": "BEARER abc"}, Authorized},
		{"token with padding", map[string]string{"Authorization": "Bearer    abc   "}, Authorized},
		{"missing header", map[string]string{}, Unauthorized},
		{"empty header", map[string]string{"Authorization": ""}, Unauthorized},
		{"scheme only", map[string]string{"Authorization": "Bearer "}, Unauthorized},
		{"scheme without space", map[string]string{"Authorization": "Bearer"}, Unauthorized},
		{"whitespace token", map[string]string{"Authorization": "Bearer \t  "}, Unauthorized},
		{"basic scheme", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, Unauthorized},
		{"no space after scheme", map[string]string{"Authorization": "Bearerabc"}, Unauthorized},
		{"token in other header", map[string]string{"X-Authorization": "Bearer abc"}, Unauthorized},
	}

	checker := NewBearerChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var h exchange.Header
			for k, v := range tt.header {
				h.Add(k, v)
			}
			assert.Equal(t, tt.want, checker.Check(h))
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	token, ok := BearerToken("bEaReR  xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = BearerToken("Token xyz")
	assert.False(t, ok)
}

func TestAllowAll(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Authorized, AllowAll{}.Check(exchange.Header{}))
}

func TestDecisionString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "authorized", Authorized.String())
	assert.Equal(t, "unauthorized", Unauthorized.String())
}
