// Package auth implements the authentication core: token issuance and
// revocation, the registration validation pipeline, per-IP rate limiting and
// the register/login/logout orchestration. Failures travel as *Error values
// carrying a machine-usable Kind; only the HTTP layer turns kinds into
// status codes.
package auth

import "errors"

// Kind is a stable, machine-usable failure category. The wire value doubles
// as the "error" field of JSON error bodies.
type Kind string

const (
	KindBotDetected          Kind = "bot_detected"
	KindRateLimited          Kind = "rate_limited"
	KindInvalidEmailDomain   Kind = "invalid_email_domain"
	KindEmailExists          Kind = "email_already_registered"
	KindWeakPassword         Kind = "weak_password"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindAccountInactive      Kind = "account_inactive"
	KindInvalidToken         Kind = "invalid_token"
	KindRevokedToken         Kind = "revoked_token"
	KindTokenMissingClaim    Kind = "token_missing_claim"
	KindInvalidActivationKey Kind = "invalid_activation_key"
	KindUnavailable          Kind = "service_unavailable"
)

// Error is the failure value threaded through the validation pipeline and
// the orchestrator. Detail is safe to show to callers; internal causes stay
// in logs.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Detail }

// E builds an *Error for the given kind.
func E(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// KindOf extracts the Kind from err, or "" when err is not an auth error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
