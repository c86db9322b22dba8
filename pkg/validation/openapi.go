package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"golang.org/x/text/encoding/unicode"

	"github.com/getmockd/contractmock/pkg/exchange"
)

// ContractValidator validates both sides of an exchange against a contract.
// Implementations must be safe for concurrent use. An error means the
// validator could not run; contract violations are reported in the Report.
type ContractValidator interface {
	ValidateRequest(ctx context.Context, req *exchange.Request) (*Report, error)
	ValidateResponse(ctx context.Context, rawURL, method string, resp *exchange.Response) (*Report, error)
}

// ValidationConfig configures contract validation.
type ValidationConfig struct {
	Enabled          bool              `json:"enabled" yaml:"enabled"`
	ValidateRequest  bool              `json:"validateRequest" yaml:"validateRequest"`
	ValidateResponse bool              `json:"validateResponse" yaml:"validateResponse"`
	Levels           map[string]string `json:"levels,omitempty" yaml:"levels,omitempty"`
}

// DefaultValidationConfig returns a configuration validating both sides.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		Enabled:          true,
		ValidateRequest:  true,
		ValidateResponse: true,
	}
}

// OpenAPIValidator validates exchanges against an OpenAPI contract using
// kin-openapi. All fields are set at construction and never modified.
type OpenAPIValidator struct {
	contract *Contract
	router   routers.Router
	levels   *LevelResolver
	config   ValidationConfig
}

var _ ContractValidator = (*OpenAPIValidator)(nil)

// NewOpenAPIValidator creates a validator for contract.
func NewOpenAPIValidator(contract *Contract, config *ValidationConfig) (*OpenAPIValidator, error) {
	if contract == nil || contract.doc == nil {
		return nil, ErrNoContract
	}
	if config == nil {
		config = DefaultValidationConfig()
	}

	levels, err := NewLevelResolver(config.Levels)
	if err != nil {
		return nil, err
	}

	// Create router for matching requests to operations
	router, err := gorillamux.NewRouter(contract.doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &OpenAPIValidator{
		contract: contract,
		router:   router,
		levels:   levels,
		config:   *config,
	}, nil
}

// Contract returns the contract this validator enforces.
func (v *OpenAPIValidator) Contract() *Contract {
	return v.contract
}

// ValidateRequest validates an inbound request.
func (v *OpenAPIValidator) ValidateRequest(ctx context.Context, req *exchange.Request) (report *Report, err error) {
	defer recoverValidator(&err)

	b := newReportBuilder(v.levels)
	if !v.config.ValidateRequest {
		return b.report, nil
	}

	httpReq, path, err := v.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	base := &MessageContext{Method: req.Method, Path: path, Location: LocationRequest}

	route, pathParams, ok := v.findRoute(b, httpReq, base, LocationRequest)
	if !ok {
		return b.report, nil
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    httpReq,
		PathParams: pathParams,
		Route:      route,
		Options:    v.filterOptions(),
	}
	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		v.collect(b, err, base, LocationRequest)
	}

	return b.report, nil
}

// ValidateResponse validates a response produced for (method, rawURL).
func (v *OpenAPIValidator) ValidateResponse(ctx context.Context, rawURL, method string, resp *exchange.Response) (report *Report, err error) {
	defer recoverValidator(&err)

	b := newReportBuilder(v.levels)
	if !v.config.ValidateResponse {
		return b.report, nil
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrInvalidRequest)
	}

	httpReq, path, err := v.buildRequest(ctx, &exchange.Request{Method: method, URL: rawURL})
	if err != nil {
		return nil, err
	}
	base := &MessageContext{Method: method, Path: path, Location: LocationResponse, ResponseStatus: resp.Status}

	route, pathParams, ok := v.findRoute(b, httpReq, base, LocationResponse)
	if !ok {
		return b.report, nil
	}

	responses := route.Operation.Responses
	if responses == nil || responses.Len() == 0 {
		return b.report, nil
	}

	declared := responses.Status(resp.Status)
	if declared == nil {
		declared = responses.Default()
	}
	if declared == nil || declared.Value == nil {
		b.add(RuleResponseStatusUnknown,
			fmt.Sprintf("Response status %d not defined for operation %s %s", resp.Status, method, route.Path), base)
		return b.report, nil
	}

	if len(declared.Value.Content) > 0 && (!resp.HasBody || resp.Body == "") {
		b.add(RuleResponseBodyMissing,
			fmt.Sprintf("A response body is expected for status %d but none was found", resp.Status), base)
		return b.report, nil
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    httpReq,
			PathParams: pathParams,
			Route:      route,
		},
		Status:  resp.Status,
		Header:  resp.Header.HTTP(),
		Options: v.filterOptions(),
	}
	if resp.HasBody {
		input.SetBodyBytes([]byte(resp.Body))
	}

	if err := openapi3filter.ValidateResponse(ctx, input); err != nil {
		v.collect(b, err, base, LocationResponse)
	}

	return b.report, nil
}

func (v *OpenAPIValidator) filterOptions() *openapi3filter.Options {
	return &openapi3filter.Options{
		MultiError:            true,
		IncludeResponseStatus: true,
		AuthenticationFunc:    checkCredentials,
	}
}

// buildRequest converts an exchange request into the *http.Request that
// kin-openapi expects, with the server base path stripped. It also returns
// the original path for message contexts.
func (v *OpenAPIValidator) buildRequest(ctx context.Context, req *exchange.Request) (*http.Request, string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid URL %q: %v", ErrInvalidRequest, req.URL, err)
	}
	originalPath := u.Path

	stripped, ok := v.contract.stripBasePath(u.Path)
	if !ok {
		// Leave the path as is; routing will report it as missing.
		stripped = u.Path
	}
	routed := &url.URL{Path: stripped, RawQuery: u.RawQuery}

	var body io.Reader = http.NoBody
	if req.HasBody() {
		text, err := decodeUTF8(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		body = strings.NewReader(text)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, routed.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header = req.Header.HTTP()

	if req.HasBody() {
		// The contract assumes JSON payloads when the client sends none.
		ct := strings.TrimSpace(req.ContentType)
		if ct == "" {
			ct = strings.TrimSpace(req.Header.Get(exchange.HeaderContentType))
		}
		if ct == "" {
			ct = exchange.ContentTypeJSON
		}
		httpReq.Header.Set(exchange.HeaderContentType, ct)
	}

	return httpReq, originalPath, nil
}

// findRoute resolves the contract operation, adding a message when none matches.
func (v *OpenAPIValidator) findRoute(b *reportBuilder, r *http.Request, base *MessageContext, location string) (*routers.Route, map[string]string, bool) {
	if _, ok := v.contract.stripBasePath(base.Path); !ok {
		b.add(pathMissingRule(location), fmt.Sprintf("No API path found that matches request '%s'", base.Path), base)
		return nil, nil, false
	}

	route, pathParams, err := v.router.FindRoute(r)
	if err == nil {
		return route, pathParams, true
	}

	switch {
	case errors.Is(err, routers.ErrMethodNotAllowed):
		b.add(operationRule(location),
			fmt.Sprintf("%s operation not allowed on path '%s'", base.Method, base.Path), base)
	case errors.Is(err, routers.ErrPathNotFound):
		b.add(pathMissingRule(location), fmt.Sprintf("No API path found that matches request '%s'", base.Path), base)
	default:
		b.add(RuleUnknown, fmt.Sprintf("Unable to resolve operation: %s", err.Error()), base)
	}
	return nil, nil, false
}

func pathMissingRule(location string) string {
	if location == LocationResponse {
		return "validation.response.path.missing"
	}
	return RuleRequestPathMissing
}

func operationRule(location string) string {
	if location == LocationResponse {
		return "validation.response.operation.notAllowed"
	}
	return RuleRequestOperationNotAllowed
}

// collect converts kin-openapi errors into report messages.
func (v *OpenAPIValidator) collect(b *reportBuilder, err error, base *MessageContext, location string) {
	if err == nil {
		return
	}

	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			v.collect(b, inner, base, location)
		}
	case *openapi3filter.RequestError:
		collectRequestError(b, e, base)
	case *openapi3filter.ResponseError:
		collectResponseError(b, e, base)
	case *openapi3filter.SecurityRequirementsError:
		key := RuleRequestSecurityMissing
		if location == LocationResponse {
			key = "validation.response.security.missing"
		}
		b.add(key, securityMessage(e), base)
	case *openapi3.SchemaError:
		key := RuleRequestBodySchema
		if location == LocationResponse {
			key = RuleResponseBodySchema
		}
		b.add(key, schemaMessage(e), withPointer(base, e))
	default:
		b.add(RuleUnknown, err.Error(), base)
	}
}

func collectRequestError(b *reportBuilder, reqErr *openapi3filter.RequestError, base *MessageContext) {
	if reqErr.Parameter != nil {
		ctx := *base
		ctx.Parameter = reqErr.Parameter.Name
		kind := "invalid"
		if errors.Is(reqErr.Err, openapi3filter.ErrInvalidRequired) || errors.Is(reqErr.Err, openapi3filter.ErrInvalidEmptyValue) {
			kind = "missing"
		}
		b.add(requestParameterRule(reqErr.Parameter.In, kind),
			fmt.Sprintf("Parameter '%s' in %s: %s", reqErr.Parameter.Name, reqErr.Parameter.In, requestReason(reqErr)), &ctx)
		return
	}

	if reqErr.RequestBody != nil {
		if reqErr.Err == nil && strings.Contains(reqErr.Reason, "Content-Type") {
			b.add(RuleRequestContentTypeNotAllowed, "Request "+reqErr.Reason, base)
			return
		}
		if errors.Is(reqErr.Err, openapi3filter.ErrInvalidRequired) {
			b.add(RuleRequestBodyMissing, "A request body is required but none found", base)
			return
		}
		var parseErr *openapi3filter.ParseError
		if errors.As(reqErr.Err, &parseErr) {
			b.add(RuleRequestBodyInvalidJSON, "Unable to parse request body: "+parseErr.Error(), base)
			return
		}
		var multi openapi3.MultiError
		if errors.As(reqErr.Err, &multi) {
			for _, e := range multi {
				addBodySchemaError(b, RuleRequestBodySchema, e, base)
			}
			return
		}
		addBodySchemaError(b, RuleRequestBodySchema, reqErr.Err, base)
		return
	}

	b.add(RuleUnknown, reqErr.Error(), base)
}

func collectResponseError(b *reportBuilder, respErr *openapi3filter.ResponseError, base *MessageContext) {
	switch {
	case respErr.Err == nil && strings.Contains(respErr.Reason, "Content-Type"):
		b.add(RuleResponseContentTypeNotAllowed, sentence(respErr.Reason), base)
	case respErr.Err == nil && strings.Contains(respErr.Reason, "status is not supported"):
		b.add(RuleResponseStatusUnknown, fmt.Sprintf("Response status %d not defined for operation", base.ResponseStatus), base)
	case strings.HasPrefix(respErr.Reason, "response header"):
		b.add(RuleResponseHeaderInvalid, sentence(respErr.Error()), base)
	case respErr.Err == nil:
		b.add(RuleUnknown, respErr.Error(), base)
	default:
		var parseErr *openapi3filter.ParseError
		if errors.As(respErr.Err, &parseErr) {
			b.add(RuleResponseBodyInvalidJSON, "Unable to parse response body: "+parseErr.Error(), base)
			return
		}
		var multi openapi3.MultiError
		if errors.As(respErr.Err, &multi) {
			for _, e := range multi {
				addBodySchemaError(b, RuleResponseBodySchema, e, base)
			}
			return
		}
		addBodySchemaError(b, RuleResponseBodySchema, respErr.Err, base)
	}
}

func addBodySchemaError(b *reportBuilder, key string, err error, base *MessageContext) {
	if err == nil {
		return
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		b.add(key, schemaMessage(schemaErr), withPointer(base, schemaErr))
		return
	}
	b.add(key, err.Error(), base)
}

func schemaMessage(e *openapi3.SchemaError) string {
	if path := formatJSONPath(e.JSONPointer()); path != "" && path != "$" {
		return fmt.Sprintf("[Path '%s'] %s", path, e.Reason)
	}
	return e.Reason
}

func withPointer(base *MessageContext, e *openapi3.SchemaError) *MessageContext {
	ptr := e.JSONPointer()
	if len(ptr) == 0 {
		return base
	}
	ctx := *base
	ctx.Pointer = "/" + strings.Join(ptr, "/")
	return &ctx
}

func requestReason(e *openapi3filter.RequestError) string {
	if e.Err != nil {
		var schemaErr *openapi3.SchemaError
		if errors.As(e.Err, &schemaErr) {
			return schemaErr.Reason
		}
		return e.Err.Error()
	}
	return e.Reason
}

func securityMessage(e *openapi3filter.SecurityRequirementsError) string {
	if len(e.Errors) == 0 {
		return "Security requirements not met"
	}
	reasons := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		reasons = append(reasons, err.Error())
	}
	return "Security requirements not met: " + strings.Join(reasons, "; ")
}

// decodeUTF8 decodes raw body bytes as UTF-8, replacing invalid sequences
// with U+FFFD and dropping a leading byte order mark.
func decodeUTF8(raw []byte) (string, error) {
	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding body as UTF-8: %w", err)
	}
	return string(decoded), nil
}

// sentence upper-cases the first letter of s.
func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// recoverValidator turns a panic inside kin-openapi into an error so a
// malformed contract never takes down the server.
func recoverValidator(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrValidatorPanic, r)
	}
}

// formatJSONPath converts a JSON pointer parts array to a more readable format
func formatJSONPath(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	// Convert ["foo", "bar", "0"] to $.foo.bar[0]
	var sb strings.Builder
	sb.WriteString("$")
	for _, part := range parts {
		if part == "" {
			continue
		}
		if isNumeric(part) {
			sb.WriteString("[")
			sb.WriteString(part)
			sb.WriteString("]")
		} else {
			sb.WriteString(".")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

// isNumeric checks if a string is a number
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
