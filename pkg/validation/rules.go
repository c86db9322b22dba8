package validation

// Rule keys attached to validation messages. Level overrides are matched
// against these keys.
const (
	RuleRequestPathMissing           = "validation.request.path.missing"
	RuleRequestOperationNotAllowed   = "validation.request.operation.notAllowed"
	RuleRequestBodyMissing           = "validation.request.body.missing"
	RuleRequestBodySchema            = "validation.request.body.schema"
	RuleRequestBodyInvalidJSON       = "validation.request.body.invalidJson"
	RuleRequestContentTypeNotAllowed = "validation.request.contentType.notAllowed"
	RuleRequestSecurityMissing       = "validation.request.security.missing"

	RuleResponseStatusUnknown         = "validation.response.status.unknown"
	RuleResponseBodyMissing           = "validation.response.body.missing"
	RuleResponseBodySchema            = "validation.response.body.schema"
	RuleResponseBodyInvalidJSON       = "validation.response.body.invalidJson"
	RuleResponseContentTypeNotAllowed = "validation.response.contentType.notAllowed"
	RuleResponseHeaderInvalid         = "validation.response.header.invalid"

	RuleUnknown = "validation.schema.unknown"
)

// requestParameterRule returns the key for a failed parameter, e.g.
// "validation.request.parameter.query.missing".
func requestParameterRule(in, kind string) string {
	if in == "" {
		in = "unknown"
	}
	return "validation.request.parameter." + in + "." + kind
}
