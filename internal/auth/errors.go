package auth

import (
	"errors"

	"github.com/cinewave/cinewave-api/internal/httputil"
)

// Token codec errors. Verify wraps one of these so callers can use errors.Is.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token has expired")
	ErrEmptySubject     = errors.New("token subject must not be empty")
	ErrSigningKey       = errors.New("invalid signing key")
)

// Reason is why the gate rejected a request.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonMissingToken covers an absent, blank or non-Bearer Authorization header.
	ReasonMissingToken
	// ReasonInvalidToken covers tokens that fail to parse, verify or are expired.
	ReasonInvalidToken
	// ReasonAuthenticationFailed is any other fault during admission.
	ReasonAuthenticationFailed
)

// String returns the machine-readable reason code.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissingToken:
		return httputil.CodeMissingToken
	case ReasonInvalidToken:
		return httputil.CodeInvalidToken
	default:
		return httputil.CodeAuthenticationFailed
	}
}

// Message is the human-readable text sent to clients.
func (r Reason) Message() string {
	switch r {
	case ReasonMissingToken:
		return "Missing token"
	case ReasonInvalidToken:
		return "Invalid token"
	default:
		return "Authentication failed"
	}
}
