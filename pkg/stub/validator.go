package stub

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// ValidationError represents a validation failure with context.
type ValidationError struct {
	StubID  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.StubID != "" {
		return fmt.Sprintf("stub %q: validation error on %s: %s", e.StubID, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// MaxDelayMs caps fixed response delays.
const MaxDelayMs = 60000

var validHTTPMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// headerNameRegex validates HTTP header names (RFC 7230).
var headerNameRegex = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+\-.^_\x60|~]+$`)

// Validate checks the stub for structural errors.
func (s *Stub) Validate() error {
	if s.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if s.Request == nil {
		return &ValidationError{StubID: s.ID, Field: "request", Message: "request is required"}
	}
	if s.Response == nil {
		return &ValidationError{StubID: s.ID, Field: "response", Message: "response is required"}
	}
	if err := s.Request.Validate(); err != nil {
		return withStubID(err, s.ID)
	}
	if err := s.Response.Validate(); err != nil {
		return withStubID(err, s.ID)
	}
	return nil
}

func withStubID(err error, id string) error {
	if ve, ok := err.(*ValidationError); ok {
		ve.StubID = id
		return ve
	}
	return err
}

// Validate checks the matcher for structural errors.
func (m *Matcher) Validate() error {
	hasAnyCriteria := m.Method != "" ||
		m.Path != "" ||
		m.PathPattern != "" ||
		len(m.Headers) > 0 ||
		len(m.HeaderPatterns) > 0 ||
		len(m.QueryParams) > 0 ||
		m.BodyContains != "" ||
		m.BodyEquals != "" ||
		m.BodyPattern != "" ||
		len(m.BodyJSONPath) > 0 ||
		m.When != ""
	if !hasAnyCriteria {
		return &ValidationError{Field: "request", Message: "at least one matching criterion must be specified"}
	}

	if m.Method != "" && !validHTTPMethods[strings.ToUpper(m.Method)] {
		return &ValidationError{Field: "request.method", Message: fmt.Sprintf("invalid HTTP method: %s", m.Method)}
	}

	if m.Path != "" && !strings.HasPrefix(m.Path, "/") {
		return &ValidationError{Field: "request.path", Message: "path must start with /"}
	}
	if m.Path != "" && m.PathPattern != "" {
		return &ValidationError{Field: "request", Message: "cannot specify both path and pathPattern"}
	}

	if err := validateRegexp("request.pathPattern", m.PathPattern); err != nil {
		return err
	}
	if err := validateRegexp("request.bodyPattern", m.BodyPattern); err != nil {
		return err
	}

	for name := range m.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "request.headers", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}
	for name, pattern := range m.HeaderPatterns {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "request.headerPatterns", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
		if err := validateRegexp("request.headerPatterns."+name, pattern); err != nil {
			return err
		}
	}

	if m.BodyEquals != "" && m.BodyContains != "" {
		return &ValidationError{Field: "request", Message: "cannot specify both bodyEquals and bodyContains"}
	}

	for path := range m.BodyJSONPath {
		if _, err := jp.ParseString(path); err != nil {
			return &ValidationError{
				Field:   "request.bodyJsonPath",
				Message: fmt.Sprintf("invalid JSONPath expression %q: %s", path, err.Error()),
			}
		}
	}

	return nil
}

func validateRegexp(field, pattern string) error {
	if pattern == "" {
		return nil
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("invalid regex pattern: %s", err.Error())}
	}
	return nil
}

// Validate checks the response for structural errors.
func (r *Response) Validate() error {
	if r.Status < 100 || r.Status > 599 {
		return &ValidationError{
			Field:   "response.status",
			Message: fmt.Sprintf("status must be between 100-599, got %d", r.Status),
		}
	}
	if r.Body != "" && r.BodyFile != "" {
		return &ValidationError{Field: "response", Message: "cannot specify both body and bodyFile"}
	}
	if r.DelayMs < 0 {
		return &ValidationError{Field: "response.delayMs", Message: "delayMs must be >= 0"}
	}
	if r.DelayMs > MaxDelayMs {
		return &ValidationError{Field: "response.delayMs", Message: fmt.Sprintf("delayMs must be <= %d", MaxDelayMs)}
	}
	for name := range r.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "response.headers", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}
	return nil
}
