package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"

	"github.com/getmockd/contractmock/pkg/auth"
)

// checkCredentials is the kin-openapi AuthenticationFunc. It checks that a
// credential for the security scheme is present in the request; credential
// values are never verified.
func checkCredentials(_ context.Context, in *openapi3filter.AuthenticationInput) error {
	scheme := in.SecurityScheme
	if scheme == nil {
		return fmt.Errorf("security scheme %q is not defined", in.SecuritySchemeName)
	}
	req := in.RequestValidationInput.Request
	authz := req.Header.Get("Authorization")

	switch scheme.Type {
	case "http":
		switch strings.ToLower(scheme.Scheme) {
		case "bearer":
			if _, ok := auth.BearerToken(authz); !ok {
				return fmt.Errorf("authorization header with Bearer token is required by security scheme '%s'", in.SecuritySchemeName)
			}
		case "basic":
			if !hasScheme(authz, "basic") {
				return fmt.Errorf("authorization header with Basic credentials is required by security scheme '%s'", in.SecuritySchemeName)
			}
		default:
			if strings.TrimSpace(authz) == "" {
				return fmt.Errorf("authorization header is required by security scheme '%s'", in.SecuritySchemeName)
			}
		}
	case "apiKey":
		var present bool
		switch scheme.In {
		case "header":
			present = strings.TrimSpace(req.Header.Get(scheme.Name)) != ""
		case "query":
			present = req.URL.Query().Get(scheme.Name) != ""
		case "cookie":
			c, err := req.Cookie(scheme.Name)
			present = err == nil && c.Value != ""
		}
		if !present {
			return fmt.Errorf("API key '%s' in %s is required by security scheme '%s'", scheme.Name, scheme.In, in.SecuritySchemeName)
		}
	case "oauth2", "openIdConnect":
		if _, ok := auth.BearerToken(authz); !ok {
			return fmt.Errorf("authorization header with Bearer token is required by security scheme '%s'", in.SecuritySchemeName)
		}
	}
	return nil
}

func hasScheme(value, scheme string) bool {
	prefix := scheme + " "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return false
	}
	return strings.TrimSpace(value[len(prefix):]) != ""
}
