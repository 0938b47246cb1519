package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	passwordResetRequestType = "PASSWORD_RESET"
	defaultExpiresIn         = time.Hour
)

type client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

var _ Provider = &client{}

func NewClient(config *Config, httpClient *http.Client) Provider {
	return &client{
		config:     config,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type tokenResponse struct {
	LocalId       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoUrl      string `json:"photoUrl"`
	EmailVerified bool   `json:"emailVerified"`
	IdToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	IsNewUser     bool   `json:"isNewUser"`
	ProviderId    string `json:"providerId"`
}

type accountInfo struct {
	LocalId          string `json:"localId"`
	Email            string `json:"email"`
	EmailVerified    bool   `json:"emailVerified"`
	DisplayName      string `json:"displayName"`
	PhotoUrl         string `json:"photoUrl"`
	Disabled         bool   `json:"disabled"`
	ProviderUserInfo []struct {
		ProviderId string `json:"providerId"`
	} `json:"providerUserInfo"`
}

type lookupResponse struct {
	Users []accountInfo `json:"users"`
}

type refreshResponse struct {
	ExpiresIn    string `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IdToken      string `json:"id_token"`
	UserId       string `json:"user_id"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	res := tokenResponse{}
	if err := c.postJSON(ctx, c.accountsUrl("signInWithPassword"), body, &res); err != nil {
		return nil, err
	}
	return c.newSession(res), nil
}

func (c *client) SignInWithIdp(ctx context.Context, providerId, idToken string) (*Session, error) {
	postBody := url.Values{}
	postBody.Set("id_token", idToken)
	postBody.Set("providerId", providerId)

	body := map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          c.config.RequestUri,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	}
	res := tokenResponse{}
	if err := c.postJSON(ctx, c.accountsUrl("signInWithIdp"), body, &res); err != nil {
		return nil, err
	}
	return c.newSession(res), nil
}

func (c *client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	res := tokenResponse{}
	if err := c.postJSON(ctx, c.accountsUrl("signUp"), body, &res); err != nil {
		return nil, err
	}
	session := c.newSession(res)
	session.IsNewUser = true
	return session, nil
}

func (c *client) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]interface{}{
		"requestType": passwordResetRequestType,
		"email":       email,
	}
	return c.postJSON(ctx, c.accountsUrl("sendOobCode"), body, nil)
}

func (c *client) UpdateProfile(ctx context.Context, idToken string, update ProfileUpdate) (*User, error) {
	body := map[string]interface{}{
		"idToken":           idToken,
		"returnSecureToken": false,
	}
	var deleteAttributes []string
	if update.DisplayName != nil {
		if *update.DisplayName == "" {
			deleteAttributes = append(deleteAttributes, "DISPLAY_NAME")
		} else {
			body["displayName"] = *update.DisplayName
		}
	}
	if update.PhotoURL != nil {
		if *update.PhotoURL == "" {
			deleteAttributes = append(deleteAttributes, "PHOTO_URL")
		} else {
			body["photoUrl"] = *update.PhotoURL
		}
	}
	if len(deleteAttributes) > 0 {
		body["deleteAttribute"] = deleteAttributes
	}

	res := accountInfo{}
	if err := c.postJSON(ctx, c.accountsUrl("update"), body, &res); err != nil {
		return nil, err
	}
	user := res.toUser()
	return &user, nil
}

func (c *client) Lookup(ctx context.Context, idToken string) (*User, error) {
	body := map[string]interface{}{
		"idToken": idToken,
	}
	res := lookupResponse{}
	if err := c.postJSON(ctx, c.accountsUrl("lookup"), body, &res); err != nil {
		return nil, err
	}
	if len(res.Users) == 0 {
		return nil, NewProviderError("USER_NOT_FOUND", http.StatusBadRequest)
	}
	user := res.Users[0].toUser()
	return &user, nil
}

func (c *client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/v1/token?key=%s", strings.TrimRight(c.config.TokenUrl, "/"), url.QueryEscape(c.config.ApiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res := refreshResponse{}
	if err := c.do(req, &res); err != nil {
		return nil, err
	}

	return &Session{
		IdToken:      res.IdToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    c.expiresAt(res.ExpiresIn),
		User:         User{Uid: res.UserId},
	}, nil
}

func (c *client) accountsUrl(method string) string {
	return fmt.Sprintf("%s/v1/accounts:%s?key=%s", strings.TrimRight(c.config.BaseUrl, "/"), method, url.QueryEscape(c.config.ApiKey))
}

func (c *client) postJSON(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("unable to encode identity provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("unable to reach identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("unable to decode identity provider response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body := errorResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
		return NewProviderError(http.StatusText(resp.StatusCode), resp.StatusCode)
	}
	return NewProviderError(body.Error.Message, resp.StatusCode)
}

func (c *client) newSession(res tokenResponse) *Session {
	return &Session{
		IdToken:      res.IdToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    c.expiresAt(res.ExpiresIn),
		IsNewUser:    res.IsNewUser,
		User: User{
			Uid:           res.LocalId,
			Email:         res.Email,
			DisplayName:   res.DisplayName,
			PhotoURL:      res.PhotoUrl,
			EmailVerified: res.EmailVerified,
		},
	}
}

func (c *client) expiresAt(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		return c.now().Add(defaultExpiresIn)
	}
	return c.now().Add(time.Duration(seconds) * time.Second)
}

func (a accountInfo) toUser() User {
	user := User{
		Uid:           a.LocalId,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoUrl,
		EmailVerified: a.EmailVerified,
		Disabled:      a.Disabled,
	}
	for _, p := range a.ProviderUserInfo {
		user.Providers = append(user.Providers, p.ProviderId)
	}
	return user
}
