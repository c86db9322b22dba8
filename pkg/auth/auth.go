// Package auth checks that an inbound request carries a bearer credential.
//
// Only the presence and shape of the credential are checked. Token content
// (signature, expiry, audience) is never inspected.
package auth

import (
	"strings"

	"github.com/getmockd/contractmock/pkg/exchange"
)

// BearerScheme is the scheme prefix, trailing space included.
const BearerScheme = "Bearer "

// Decision is the outcome of an authentication check.
type Decision int

const (
	// Unauthorized means the credential is absent or malformed.
	Unauthorized Decision = iota
	// Authorized means a bearer credential is present.
	Authorized
)

func (d Decision) String() string {
	if d == Authorized {
		return "authorized"
	}
	return "unauthorized"
}

// Checker decides whether an exchange may proceed to validation.
type Checker interface {
	Check(h exchange.Header) Decision
}

// BearerChecker requires "Authorization: Bearer <token>" with a non-blank token.
type BearerChecker struct{}

// NewBearerChecker returns the production Checker.
func NewBearerChecker() *BearerChecker {
	return &BearerChecker{}
}

// Check implements Checker.
func (BearerChecker) Check(h exchange.Header) Decision {
	if _, ok := BearerToken(h.Get(exchange.HeaderAuthorization)); ok {
		return Authorized
	}
	return Unauthorized
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively; the token is trimmed and must
// not be empty.
func BearerToken(value string) (string, bool) {
	if len(value) <= len(BearerScheme) {
		return "", false
	}
	if !strings.EqualFold(value[:len(BearerScheme)], BearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(value[len(BearerScheme):])
	if token == "" {
		return "", false
	}
	return token, true
}

// AllowAll authorizes every exchange. Used for services that do not require
// credentials.
type AllowAll struct{}

// Check implements Checker.
func (AllowAll) Check(exchange.Header) Decision { return Authorized }
