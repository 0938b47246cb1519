// Package identity is the client side of the external identity provider. It speaks the
// Identity Toolkit REST dialect (accounts:signInWithPassword, accounts:signUp, ...) and the
// secure token endpoint used to refresh ID tokens.
package identity

import (
	"context"
	"time"
)

// User is the provider's view of an account.
type User struct {
	Uid           string   `json:"uid"`
	Email         string   `json:"email"`
	DisplayName   string   `json:"displayName,omitempty"`
	PhotoURL      string   `json:"photoURL,omitempty"`
	EmailVerified bool     `json:"emailVerified"`
	Disabled      bool     `json:"disabled"`
	Providers     []string `json:"providers,omitempty"`
}

// Session holds the tokens issued by the provider after a successful sign in.
type Session struct {
	IdToken      string
	RefreshToken string
	ExpiresAt    time.Time
	IsNewUser    bool
	User         User
}

func (s Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

//go:generate go tool mockgen -source=./identity.go -destination=./test/mock_identity.go -package test

type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignInWithIdp(ctx context.Context, providerId, idToken string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, idToken string, update ProfileUpdate) (*User, error)
	Lookup(ctx context.Context, idToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

type Federated interface {
	Enabled() bool
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*FederatedIdentity, error)
}

// FederatedIdentity is the result of a completed authorization code exchange with a
// federated provider. IdToken is forwarded to the identity provider unchanged.
type FederatedIdentity struct {
	ProviderId string
	IdToken    string
	Subject    string
	Email      string
	Name       string
	Picture    string
}
