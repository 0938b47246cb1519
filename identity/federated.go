package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const GoogleProviderId = "google.com"

type googleClaims struct {
	Subject string `mapstructure:"sub"`
	Email   string `mapstructure:"email"`
	Name    string `mapstructure:"name"`
	Picture string `mapstructure:"picture"`
}

type googleFederated struct {
	config *oauth2.Config
}

var _ Federated = &googleFederated{}

func NewFederated(cfg *FederatedConfig) Federated {
	if cfg.GoogleClientId == "" || cfg.GoogleClientSecret == "" {
		return &disabledFederated{}
	}

	endpoint := google.Endpoint
	if cfg.GoogleAuthUrl != "" {
		endpoint.AuthURL = cfg.GoogleAuthUrl
	}
	if cfg.GoogleTokenUrl != "" {
		endpoint.TokenURL = cfg.GoogleTokenUrl
	}

	return &googleFederated{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientId,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.CallbackUrl,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
}

func (g *googleFederated) Enabled() bool {
	return true
}

func (g *googleFederated) AuthCodeURL(state string) (string, error) {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

func (g *googleFederated) Exchange(ctx context.Context, code string) (*FederatedIdentity, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, fmt.Errorf("token response is missing the id token")
	}

	// The identity provider verifies the token in signInWithIdp, so it's ok to not verify it here
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("unable to parse id token: %w", err)
	}

	parsed := googleClaims{}
	if err := mapstructure.Decode(map[string]interface{}(claims), &parsed); err != nil {
		return nil, fmt.Errorf("unable to decode id token claims: %w", err)
	}
	if parsed.Subject == "" {
		return nil, fmt.Errorf("id token subject is missing")
	}

	return &FederatedIdentity{
		ProviderId: GoogleProviderId,
		IdToken:    idToken,
		Subject:    parsed.Subject,
		Email:      parsed.Email,
		Name:       parsed.Name,
		Picture:    parsed.Picture,
	}, nil
}

type disabledFederated struct{}

var _ Federated = &disabledFederated{}

func (d *disabledFederated) Enabled() bool {
	return false
}

func (d *disabledFederated) AuthCodeURL(state string) (string, error) {
	return "", ErrFederatedDisabled
}

func (d *disabledFederated) Exchange(ctx context.Context, code string) (*FederatedIdentity, error) {
	return nil, ErrFederatedDisabled
}
