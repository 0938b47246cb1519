// Package credentials implements the sign in, registration and password reset flows on top
// of the identity provider, translating provider failures into the messages shown to users.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/metrics"
	"github.com/menosense/portal/profiles"
)

type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RegisterForm struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Result of a successful flow. Session is nil for password resets.
type Result struct {
	Session *identity.Session
	Message string
}

// ValidationError is returned when the submitted form is rejected before reaching the
// identity provider
type ValidationError struct {
	Message string
}

func (v ValidationError) Error() string {
	return v.Message
}

// FlowError is returned when the identity provider rejects a flow
type FlowError struct {
	Flow    Flow
	Kind    identity.ErrorKind
	Message string
	Err     error
}

func NewFlowError(flow Flow, err error) *FlowError {
	kind := identity.KindOf(err)
	return &FlowError{
		Flow:    flow,
		Kind:    kind,
		Message: Message(flow, kind),
		Err:     err,
	}
}

func (f *FlowError) Error() string {
	return fmt.Sprintf("%s flow failed (%s): %v", f.Flow, f.Kind, f.Err)
}

func (f *FlowError) Unwrap() error {
	return f.Err
}

// Silent is true for failures which are not reported to the user
func (f *FlowError) Silent() bool {
	return f.Message == ""
}

type Service struct {
	identity  identity.Provider
	federated identity.Federated
	profiles  profiles.Service
	logger    *zap.SugaredLogger
}

func NewService(provider identity.Provider, federated identity.Federated, profilesService profiles.Service, logger *zap.SugaredLogger) *Service {
	return &Service{
		identity:  provider,
		federated: federated,
		profiles:  profilesService,
		logger:    logger,
	}
}

func (s *Service) Login(ctx context.Context, form LoginForm) (*Result, error) {
	email := strings.TrimSpace(form.Email)
	if email == "" {
		return nil, s.invalid(FlowLogin, MessageEmailRequired)
	}
	if form.Password == "" {
		return nil, s.invalid(FlowLogin, MessagePasswordRequired)
	}

	session, err := s.identity.SignInWithPassword(ctx, email, form.Password)
	if err != nil {
		return nil, s.failed(FlowLogin, err)
	}

	return s.succeeded(FlowLogin, session), nil
}

// Register creates the account, the stored profile and sets the display name of the account.
// The account is usable even if the last two steps fail, so their errors are only logged.
func (s *Service) Register(ctx context.Context, form RegisterForm) (*Result, error) {
	fullName := strings.TrimSpace(form.FullName)
	email := strings.TrimSpace(form.Email)
	if fullName == "" {
		return nil, s.invalid(FlowRegister, MessageFullNameRequired)
	}
	if email == "" {
		return nil, s.invalid(FlowRegister, MessageEmailRequired)
	}
	if form.Password == "" {
		return nil, s.invalid(FlowRegister, MessagePasswordRequired)
	}
	if utf8.RuneCountInString(form.Password) < MinPasswordLength {
		return nil, s.invalid(FlowRegister, MessagePasswordTooShort)
	}

	session, err := s.identity.SignUp(ctx, email, form.Password)
	if err != nil {
		return nil, s.failed(FlowRegister, err)
	}

	if _, err := s.profiles.Create(ctx, session.User, fullName); err != nil {
		s.logger.Errorw("unable to create profile of registered user", "uid", session.User.Uid, zap.Error(err))
	}

	user, err := s.identity.UpdateProfile(ctx, session.IdToken, identity.ProfileUpdate{DisplayName: &fullName})
	if err != nil {
		s.logger.Errorw("unable to set display name of registered user", "uid", session.User.Uid, zap.Error(err))
	} else {
		session.User = *user
	}

	return s.succeeded(FlowRegister, session), nil
}

func (s *Service) ResetPassword(ctx context.Context, email string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, s.invalid(FlowReset, MessageResetEmailRequired)
	}

	if err := s.identity.SendPasswordReset(ctx, email); err != nil {
		return nil, s.failed(FlowReset, err)
	}

	return s.succeeded(FlowReset, nil), nil
}

func (s *Service) FederatedEnabled() bool {
	return s.federated.Enabled()
}

// FederatedURL returns the URL of the federated provider's consent screen
func (s *Service) FederatedURL(flow Flow, state string) (string, error) {
	url, err := s.federated.AuthCodeURL(state)
	if err != nil {
		return "", s.failed(flow, err)
	}
	return url, nil
}

// FederatedError converts the error returned by the federated provider to the callback
func (s *Service) FederatedError(flow Flow, code string, description string) error {
	kind := identity.KindFromOAuthError(code)
	err := &FlowError{
		Flow:    flow,
		Kind:    kind,
		Message: Message(flow, kind),
		Err:     fmt.Errorf("authorization failed with %q: %s", code, description),
	}
	s.record(flow, kind.String())
	return err
}

// FederatedDuplicate is the error of a callback which belongs to a superseded attempt
func (s *Service) FederatedDuplicate(flow Flow) error {
	err := &FlowError{
		Flow:    flow,
		Kind:    identity.KindFederatedDuplicate,
		Message: Message(flow, identity.KindFederatedDuplicate),
		Err:     errors.New("authorization state mismatch"),
	}
	s.record(flow, identity.KindFederatedDuplicate.String())
	return err
}

// FederatedSignIn completes the federated flow with the authorization code. Users signing in
// for the first time get a stored profile.
func (s *Service) FederatedSignIn(ctx context.Context, flow Flow, code string) (*Result, error) {
	federatedIdentity, err := s.federated.Exchange(ctx, code)
	if err != nil {
		return nil, s.failed(flow, err)
	}

	session, err := s.identity.SignInWithIdp(ctx, federatedIdentity.ProviderId, federatedIdentity.IdToken)
	if err != nil {
		return nil, s.failed(flow, err)
	}

	if session.IsNewUser {
		name := federatedIdentity.Name
		if name == "" {
			name = session.User.DisplayName
		}
		if _, err := s.profiles.Create(ctx, session.User, name); err != nil {
			s.logger.Errorw("unable to create profile of federated user", "uid", session.User.Uid, zap.Error(err))
		}
	}

	return s.succeeded(flow, session), nil
}

func (s *Service) invalid(flow Flow, message string) error {
	s.record(flow, metrics.OutcomeInvalid)
	return ValidationError{Message: message}
}

func (s *Service) failed(flow Flow, err error) error {
	flowErr := NewFlowError(flow, err)
	if flowErr.Kind == identity.KindUnknown {
		s.logger.Errorw("credential flow failed", "flow", flow, zap.Error(err))
	} else {
		s.logger.Infow("credential flow rejected", "flow", flow, "kind", flowErr.Kind.String())
	}
	s.record(flow, flowErr.Kind.String())
	return flowErr
}

func (s *Service) succeeded(flow Flow, session *identity.Session) *Result {
	s.record(flow, metrics.OutcomeSuccess)
	return &Result{
		Session: session,
		Message: SuccessMessage(flow),
	}
}

func (s *Service) record(flow Flow, outcome string) {
	metrics.RecordCredentialFlow(string(flow), outcome)
}
