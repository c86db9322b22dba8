package transform

// Outcome classifies how an exchange left the transformer.
type Outcome int

const (
	// Passed means the candidate response was returned unchanged.
	Passed Outcome = iota
	// AuthenticationMissing means the bearer token was absent or malformed.
	AuthenticationMissing
	// RequestContractViolation means the request broke the contract.
	RequestContractViolation
	// ResponseContractViolation means the candidate response broke the contract.
	ResponseContractViolation
	// ValidatorInternalFailure means validation could not run.
	ValidatorInternalFailure
)

// String returns the metric label for o.
func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case AuthenticationMissing:
		return "authentication_missing"
	case RequestContractViolation:
		return "request_contract_violation"
	case ResponseContractViolation:
		return "response_contract_violation"
	case ValidatorInternalFailure:
		return "validator_internal_failure"
	default:
		return "unknown"
	}
}

// Rejected reports whether the candidate response was replaced.
func (o Outcome) Rejected() bool {
	return o != Passed
}
