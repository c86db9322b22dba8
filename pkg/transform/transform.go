package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/contractmock/pkg/auth"
	"github.com/getmockd/contractmock/pkg/exchange"
	"github.com/getmockd/contractmock/pkg/logging"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/validation"
)

// errNoCandidate is reported when the engine hands over no response.
var errNoCandidate = errors.New("no candidate response")

// Transformer applies the auth gate and contract validation to exchanges.
// It holds only immutable collaborators and is safe for concurrent use.
type Transformer struct {
	service   string
	auth      auth.Checker
	validator validation.ContractValidator
	logger    *slog.Logger
	metrics   *metrics.Registry
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithAuth replaces the auth gate. A nil checker disables the gate.
func WithAuth(c auth.Checker) Option {
	return func(t *Transformer) {
		t.auth = c
	}
}

// WithLogger sets the logger used for rejected exchanges.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics records every outcome in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(t *Transformer) {
		t.metrics = reg
	}
}

// New creates a transformer for service. validator may be nil, in which case
// only the auth gate runs. The bearer auth gate is on unless replaced with
// WithAuth.
func New(service string, validator validation.ContractValidator, opts ...Option) *Transformer {
	t := &Transformer{
		service:   service,
		auth:      auth.NewBearerChecker(),
		validator: validator,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Service returns the service name used in diagnostics.
func (t *Transformer) Service() string {
	return t.service
}

// Transform returns the response to send for req given the stub's candidate.
func (t *Transformer) Transform(ctx context.Context, req *exchange.Request, candidate *exchange.Response) *exchange.Response {
	resp, _ := t.Apply(ctx, req, candidate)
	return resp
}

// Apply is Transform that also reports the outcome. On Passed the returned
// response is candidate itself.
func (t *Transformer) Apply(ctx context.Context, req *exchange.Request, candidate *exchange.Response) (*exchange.Response, Outcome) {
	resp, outcome, err := t.apply(ctx, req, candidate)
	t.metrics.ObserveOutcome(outcome.String())

	if outcome.Rejected() {
		attrs := []any{
			"service", t.service,
			"outcome", outcome.String(),
			"method", req.Method,
			"url", req.URL,
			"status", resp.Status,
			"diagnostic", resp.Body,
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		if outcome == AuthenticationMissing {
			t.logger.Info("exchange rejected", attrs...)
		} else {
			t.logger.Error("exchange rejected", attrs...)
		}
	}
	return resp, outcome
}

func (t *Transformer) apply(ctx context.Context, req *exchange.Request, candidate *exchange.Response) (*exchange.Response, Outcome, error) {
	// Received -> AuthOK
	if t.auth != nil && t.auth.Check(req.Header) == auth.Unauthorized {
		return t.unauthorized(), AuthenticationMissing, nil
	}

	if t.validator == nil {
		if candidate == nil {
			return t.rejection(nil, fmt.Sprintf("%s OpenAPI response validation error: %s", t.service, errNoCandidate)), ValidatorInternalFailure, errNoCandidate
		}
		return candidate, Passed, nil
	}

	// AuthOK -> RequestValid
	report, err := t.validateRequest(ctx, req)
	if err != nil {
		return t.rejection(candidate, fmt.Sprintf("%s OpenAPI request validation error: %s", t.service, err)), ValidatorInternalFailure, err
	}
	if report.HasErrors() {
		return t.rejection(candidate, report.Render(t.service+" OpenAPI request validation failed:")), RequestContractViolation, nil
	}

	// RequestValid -> ResponseValid
	if candidate == nil {
		return t.rejection(nil, fmt.Sprintf("%s OpenAPI response validation error: %s", t.service, errNoCandidate)), ValidatorInternalFailure, errNoCandidate
	}
	report, err = t.validateResponse(ctx, req, candidate)
	if err != nil {
		return t.rejection(candidate, fmt.Sprintf("%s OpenAPI response validation error: %s", t.service, err)), ValidatorInternalFailure, err
	}
	if report.HasErrors() {
		return t.rejection(candidate, report.Render(t.service+" OpenAPI response validation failed:")), ResponseContractViolation, nil
	}

	return candidate, Passed, nil
}

func (t *Transformer) validateRequest(ctx context.Context, req *exchange.Request) (report *validation.Report, err error) {
	defer recoverPanic(&err)
	return t.validator.ValidateRequest(ctx, req)
}

func (t *Transformer) validateResponse(ctx context.Context, req *exchange.Request, resp *exchange.Response) (report *validation.Report, err error) {
	defer recoverPanic(&err)
	return t.validator.ValidateResponse(ctx, req.URL, req.Method, resp)
}

func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", validation.ErrValidatorPanic, r)
	}
}

// unauthorized builds the 401 sent when the bearer token is missing.
func (t *Transformer) unauthorized() *exchange.Response {
	resp := exchange.NewTextResponse(http.StatusUnauthorized,
		t.service+" Missing or invalid Authorization: Bearer <token>")
	resp.Header.Set(exchange.HeaderWWWAuthenticate, "Bearer")
	return resp
}

// rejection builds a 400 diagnostic that keeps the candidate's delay.
func (t *Transformer) rejection(candidate *exchange.Response, body string) *exchange.Response {
	resp := exchange.NewTextResponse(http.StatusBadRequest, body)
	if candidate != nil {
		resp.Delay = candidate.Delay
	}
	return resp
}
