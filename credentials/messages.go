package credentials

import (
	"github.com/menosense/portal/identity"
)

type Flow string

const (
	FlowLogin           Flow = "login"
	FlowRegister        Flow = "register"
	FlowReset           Flow = "reset"
	FlowFederatedSignIn Flow = "federated_signin"
	FlowFederatedSignUp Flow = "federated_signup"
)

func (f Flow) IsFederated() bool {
	return f == FlowFederatedSignIn || f == FlowFederatedSignUp
}

const (
	MessageEmailRequired       = "Email is required!"
	MessagePasswordRequired    = "Password is required!"
	MessageFullNameRequired    = "Full Name is required!"
	MessagePasswordTooShort    = "Password must be at least 6 characters!"
	MessageResetEmailRequired  = "Please enter your email first!"
	MessageInvalidEmail        = "Invalid email format!"
	MessageLoginFailed         = "Login failed. Please try again."
	MessageRegistrationFailed  = "Registration failed. Please try again."
	MessageResetFailed         = "Failed to send reset email. Please try again."
	MessageGoogleSignInFailed  = "Google sign-in failed. Please try again."
	MessageGoogleSignUpFailed  = "Google sign-up failed. Please try again."
	MessagePopupBlocked        = "Popup blocked. Please allow popups and try again."
	MessageLoginSuccess        = "Login successful!"
	MessageRegistrationSuccess = "Registration successful!"
	MessageResetSuccess        = "Password reset email sent! Check your inbox."
	MessageGoogleSignInSuccess = "Google sign-in successful!"
	MessageGoogleSignUpSuccess = "Google registration successful!"
	MessageSignInCancelled     = "Sign-in cancelled"
	MessageSignUpCancelled     = "Sign-up cancelled"
	MinPasswordLength          = 6
)

// Message returns the text shown to the user when the flow fails with the given kind. An
// empty message means the failure is not reported.
func Message(flow Flow, kind identity.ErrorKind) string {
	switch flow {
	case FlowLogin:
		return loginMessage(kind)
	case FlowRegister:
		return registerMessage(kind)
	case FlowReset:
		return resetMessage(kind)
	case FlowFederatedSignIn:
		return federatedMessage(kind, MessageSignInCancelled, MessageGoogleSignInFailed)
	case FlowFederatedSignUp:
		return federatedMessage(kind, MessageSignUpCancelled, MessageGoogleSignUpFailed)
	default:
		return MessageLoginFailed
	}
}

func SuccessMessage(flow Flow) string {
	switch flow {
	case FlowLogin:
		return MessageLoginSuccess
	case FlowRegister:
		return MessageRegistrationSuccess
	case FlowReset:
		return MessageResetSuccess
	case FlowFederatedSignIn:
		return MessageGoogleSignInSuccess
	case FlowFederatedSignUp:
		return MessageGoogleSignUpSuccess
	default:
		return ""
	}
}

func loginMessage(kind identity.ErrorKind) string {
	switch kind {
	case identity.KindInvalidEmail:
		return MessageInvalidEmail
	case identity.KindUserNotFound:
		return "User not found. Please register first!"
	case identity.KindWrongPassword:
		return "Incorrect password!"
	case identity.KindTooManyRequests:
		return "Too many failed attempts. Try again later!"
	case identity.KindInvalidCredential:
		return "Invalid email or password!"
	case identity.KindUserDisabled:
		return "This account has been disabled!"
	case identity.KindUnknown, identity.KindEmailInUse, identity.KindWeakPassword,
		identity.KindOperationNotAllowed, identity.KindFederatedCancelled,
		identity.KindFederatedBlocked, identity.KindFederatedDuplicate:
		return MessageLoginFailed
	default:
		return MessageLoginFailed
	}
}

func registerMessage(kind identity.ErrorKind) string {
	switch kind {
	case identity.KindEmailInUse:
		return "Email already registered. Please login instead."
	case identity.KindInvalidEmail:
		return MessageInvalidEmail
	case identity.KindWeakPassword:
		return "Password is too weak. Use at least 6 characters."
	case identity.KindOperationNotAllowed:
		return "Email registration is not enabled!"
	case identity.KindUnknown, identity.KindUserNotFound, identity.KindWrongPassword,
		identity.KindTooManyRequests, identity.KindInvalidCredential, identity.KindUserDisabled,
		identity.KindFederatedCancelled, identity.KindFederatedBlocked, identity.KindFederatedDuplicate:
		return MessageRegistrationFailed
	default:
		return MessageRegistrationFailed
	}
}

func resetMessage(kind identity.ErrorKind) string {
	switch kind {
	case identity.KindUserNotFound:
		return "No account found with this email!"
	case identity.KindInvalidEmail:
		return MessageInvalidEmail
	case identity.KindUnknown, identity.KindWrongPassword, identity.KindTooManyRequests,
		identity.KindInvalidCredential, identity.KindUserDisabled, identity.KindEmailInUse,
		identity.KindWeakPassword, identity.KindOperationNotAllowed, identity.KindFederatedCancelled,
		identity.KindFederatedBlocked, identity.KindFederatedDuplicate:
		return MessageResetFailed
	default:
		return MessageResetFailed
	}
}

func federatedMessage(kind identity.ErrorKind, cancelled string, failed string) string {
	switch kind {
	case identity.KindFederatedCancelled:
		return cancelled
	case identity.KindFederatedBlocked:
		return MessagePopupBlocked
	case identity.KindFederatedDuplicate:
		// A newer attempt is in progress
		return ""
	case identity.KindUnknown, identity.KindInvalidEmail, identity.KindUserNotFound,
		identity.KindWrongPassword, identity.KindTooManyRequests, identity.KindInvalidCredential,
		identity.KindUserDisabled, identity.KindEmailInUse, identity.KindWeakPassword,
		identity.KindOperationNotAllowed:
		return failed
	default:
		return failed
	}
}
