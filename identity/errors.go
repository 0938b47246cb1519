package identity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the closed set of provider failures the portal distinguishes. Adding a kind
// requires a message in every flow of the credentials package.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidEmail
	KindUserNotFound
	KindWrongPassword
	KindTooManyRequests
	KindInvalidCredential
	KindUserDisabled
	KindEmailInUse
	KindWeakPassword
	KindOperationNotAllowed
	KindFederatedCancelled
	KindFederatedBlocked
	KindFederatedDuplicate
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "unknown",
	KindInvalidEmail:        "invalid_email",
	KindUserNotFound:        "user_not_found",
	KindWrongPassword:       "wrong_password",
	KindTooManyRequests:     "too_many_requests",
	KindInvalidCredential:   "invalid_credential",
	KindUserDisabled:        "user_disabled",
	KindEmailInUse:          "email_in_use",
	KindWeakPassword:        "weak_password",
	KindOperationNotAllowed: "operation_not_allowed",
	KindFederatedCancelled:  "federated_cancelled",
	KindFederatedBlocked:    "federated_blocked",
	KindFederatedDuplicate:  "federated_duplicate",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// AllKinds returns every declared kind, KindUnknown included.
func AllKinds() []ErrorKind {
	kinds := make([]ErrorKind, 0, len(kindNames))
	for k := KindUnknown; k <= KindFederatedDuplicate; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Both the REST error messages and the client SDK codes are accepted so that codes
// forwarded by browser clients map to the same kinds.
var codes = map[string]ErrorKind{
	"INVALID_EMAIL":                  KindInvalidEmail,
	"MISSING_EMAIL":                  KindInvalidEmail,
	"EMAIL_NOT_FOUND":                KindUserNotFound,
	"USER_NOT_FOUND":                 KindUserNotFound,
	"INVALID_PASSWORD":               KindWrongPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER":    KindTooManyRequests,
	"INVALID_LOGIN_CREDENTIALS":      KindInvalidCredential,
	"INVALID_IDP_RESPONSE":           KindInvalidCredential,
	"INVALID_ID_TOKEN":               KindInvalidCredential,
	"INVALID_REFRESH_TOKEN":          KindInvalidCredential,
	"TOKEN_EXPIRED":                  KindInvalidCredential,
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": KindInvalidCredential,
	"USER_DISABLED":                  KindUserDisabled,
	"EMAIL_EXISTS":                   KindEmailInUse,
	"WEAK_PASSWORD":                  KindWeakPassword,
	"OPERATION_NOT_ALLOWED":          KindOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":        KindOperationNotAllowed,

	"auth/invalid-email":           KindInvalidEmail,
	"auth/user-not-found":          KindUserNotFound,
	"auth/wrong-password":          KindWrongPassword,
	"auth/too-many-requests":       KindTooManyRequests,
	"auth/invalid-credential":      KindInvalidCredential,
	"auth/user-disabled":           KindUserDisabled,
	"auth/email-already-in-use":    KindEmailInUse,
	"auth/weak-password":           KindWeakPassword,
	"auth/operation-not-allowed":   KindOperationNotAllowed,
	"auth/popup-closed-by-user":    KindFederatedCancelled,
	"auth/popup-blocked":           KindFederatedBlocked,
	"auth/cancelled-popup-request": KindFederatedDuplicate,
}

// OAuth2 authorization error codes (RFC 6749 4.1.2.1 and OpenID Connect 3.1.2.6).
var oauthCodes = map[string]ErrorKind{
	"access_denied":        KindFederatedCancelled,
	"interaction_required": KindFederatedBlocked,
	"login_required":       KindFederatedBlocked,
	"consent_required":     KindFederatedBlocked,
}

// KindFromCode maps a provider error code to its kind. REST codes may carry a detail
// suffix ("WEAK_PASSWORD : Password should be at least 6 characters") which is ignored.
func KindFromCode(code string) ErrorKind {
	code = strings.TrimSpace(code)
	if i := strings.Index(code, " : "); i >= 0 {
		code = strings.TrimSpace(code[:i])
	}
	if kind, ok := codes[code]; ok {
		return kind
	}
	return KindUnknown
}

func KindFromOAuthError(code string) ErrorKind {
	if kind, ok := oauthCodes[strings.TrimSpace(code)]; ok {
		return kind
	}
	return KindUnknown
}

type ProviderError struct {
	Kind   ErrorKind
	Code   string
	Status int
}

func NewProviderError(code string, status int) *ProviderError {
	return &ProviderError{
		Kind:   KindFromCode(code),
		Code:   code,
		Status: status,
	}
}

func (p *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %q (%s)", p.Code, p.Kind)
}

// KindOf returns the kind of a provider error anywhere in the chain of err.
// Transport failures and other errors are reported as KindUnknown.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

var ErrFederatedDisabled = errors.New("federated sign in is not configured")
