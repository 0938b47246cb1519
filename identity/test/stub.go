package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/menosense/portal/identity"
)

const (
	TestApiKey       = "test-api-key"
	minPasswordChars = 6
)

type Account struct {
	Uid         string
	Email       string
	Password    string
	DisplayName string
	PhotoUrl    string
	Disabled    bool
	Providers   []string
}

// IdentityStub is an in-memory identity provider speaking the same REST dialect as the
// production one. Accounts, issued tokens and forced failures live in memory only.
type IdentityStub struct {
	*httptest.Server

	mu            sync.Mutex
	accounts      map[string]*Account
	idTokens      map[string]string
	refreshTokens map[string]string
	failures      map[string]string
	resets        []string
}

func NewIdentityStub() *IdentityStub {
	s := &IdentityStub{
		accounts:      make(map[string]*Account),
		idTokens:      make(map[string]string),
		refreshTokens: make(map[string]string),
		failures:      make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *IdentityStub) Config() *identity.Config {
	return &identity.Config{
		ApiKey:          TestApiKey,
		BaseUrl:         s.URL,
		TokenUrl:        s.URL,
		RequestUri:      "http://localhost",
		Timeout:         5 * time.Second,
		CacheSize:       100,
		CacheExpiration: time.Minute,
	}
}

func (s *IdentityStub) AddAccount(email, password string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := &Account{
		Uid:       uuid.NewString(),
		Email:     email,
		Password:  password,
		Providers: []string{"password"},
	}
	s.accounts[strings.ToLower(email)] = account
	return *account
}

func (s *IdentityStub) Account(email string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return Account{}, false
	}
	return *account, true
}

// FailWith makes every request concerning email fail with the given error code.
func (s *IdentityStub) FailWith(email, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[strings.ToLower(email)] = code
}

// PasswordResets returns the emails password reset messages were requested for.
func (s *IdentityStub) PasswordResets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, s.resets...)
}

// ExpireTokens invalidates every issued ID token. Refresh tokens remain valid.
func (s *IdentityStub) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idTokens = make(map[string]string)
}

func (s *IdentityStub) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("key") != TestApiKey {
		writeError(w, http.StatusBadRequest, "API key not valid. Please pass a valid API key.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case "/v1/token":
		s.refresh(w, r)
	case "/v1/accounts:signInWithPassword":
		s.signInWithPassword(w, decodeBody(r))
	case "/v1/accounts:signInWithIdp":
		s.signInWithIdp(w, decodeBody(r))
	case "/v1/accounts:signUp":
		s.signUp(w, decodeBody(r))
	case "/v1/accounts:sendOobCode":
		s.sendOobCode(w, decodeBody(r))
	case "/v1/accounts:update":
		s.update(w, decodeBody(r))
	case "/v1/accounts:lookup":
		s.lookup(w, decodeBody(r))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *IdentityStub) signInWithPassword(w http.ResponseWriter, body map[string]interface{}) {
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	if s.failed(w, email) {
		return
	}
	if !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}

	account, ok := s.accounts[strings.ToLower(email)]
	if !ok || account.Password != password {
		writeError(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
		return
	}
	if account.Disabled {
		writeError(w, http.StatusBadRequest, "USER_DISABLED")
		return
	}
	s.writeToken(w, account, false)
}

func (s *IdentityStub) signUp(w http.ResponseWriter, body map[string]interface{}) {
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	if s.failed(w, email) {
		return
	}
	if !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if _, ok := s.accounts[strings.ToLower(email)]; ok {
		writeError(w, http.StatusBadRequest, "EMAIL_EXISTS")
		return
	}
	if len(password) < minPasswordChars {
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
		return
	}

	account := &Account{
		Uid:       uuid.NewString(),
		Email:     email,
		Password:  password,
		Providers: []string{"password"},
	}
	s.accounts[strings.ToLower(email)] = account
	s.writeToken(w, account, true)
}

func (s *IdentityStub) signInWithIdp(w http.ResponseWriter, body map[string]interface{}) {
	postBody, _ := body["postBody"].(string)
	values, err := url.ParseQuery(postBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_IDP_RESPONSE")
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(values.Get("id_token"), claims); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_IDP_RESPONSE")
		return
	}
	email, _ := claims["email"].(string)
	if s.failed(w, email) {
		return
	}

	account, ok := s.accounts[strings.ToLower(email)]
	isNewUser := !ok
	if !ok {
		name, _ := claims["name"].(string)
		picture, _ := claims["picture"].(string)
		account = &Account{
			Uid:         uuid.NewString(),
			Email:       email,
			DisplayName: name,
			PhotoUrl:    picture,
		}
		s.accounts[strings.ToLower(email)] = account
	}
	providerId := values.Get("providerId")
	if !contains(account.Providers, providerId) {
		account.Providers = append(account.Providers, providerId)
	}
	s.writeToken(w, account, isNewUser)
}

func (s *IdentityStub) sendOobCode(w http.ResponseWriter, body map[string]interface{}) {
	email, _ := body["email"].(string)
	if s.failed(w, email) {
		return
	}
	if !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL")
		return
	}
	if _, ok := s.accounts[strings.ToLower(email)]; !ok {
		writeError(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
		return
	}
	s.resets = append(s.resets, email)
	writeJSON(w, map[string]string{"email": email})
}

func (s *IdentityStub) update(w http.ResponseWriter, body map[string]interface{}) {
	account, ok := s.accountByToken(body)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID_TOKEN")
		return
	}
	if s.failed(w, account.Email) {
		return
	}

	if displayName, ok := body["displayName"].(string); ok {
		account.DisplayName = displayName
	}
	if photoUrl, ok := body["photoUrl"].(string); ok {
		account.PhotoUrl = photoUrl
	}
	if attributes, ok := body["deleteAttribute"].([]interface{}); ok {
		for _, attribute := range attributes {
			switch attribute {
			case "DISPLAY_NAME":
				account.DisplayName = ""
			case "PHOTO_URL":
				account.PhotoUrl = ""
			}
		}
	}
	writeJSON(w, accountInfo(account))
}

func (s *IdentityStub) lookup(w http.ResponseWriter, body map[string]interface{}) {
	account, ok := s.accountByToken(body)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID_TOKEN")
		return
	}
	writeJSON(w, map[string]interface{}{
		"users": []interface{}{accountInfo(account)},
	})
}

func (s *IdentityStub) refresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "refresh_token" {
		writeError(w, http.StatusBadRequest, "INVALID_GRANT_TYPE")
		return
	}
	uid, ok := s.refreshTokens[r.PostForm.Get("refresh_token")]
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
		return
	}

	idToken := s.issueIdToken(uid)
	writeJSON(w, map[string]string{
		"expires_in":    "3600",
		"refresh_token": r.PostForm.Get("refresh_token"),
		"id_token":      idToken,
		"user_id":       uid,
	})
}

func (s *IdentityStub) failed(w http.ResponseWriter, email string) bool {
	if code, ok := s.failures[strings.ToLower(email)]; ok {
		status := http.StatusBadRequest
		if code == "TOO_MANY_ATTEMPTS_TRY_LATER" {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, code)
		return true
	}
	return false
}

func (s *IdentityStub) accountByToken(body map[string]interface{}) (*Account, bool) {
	idToken, _ := body["idToken"].(string)
	uid, ok := s.idTokens[idToken]
	if !ok {
		return nil, false
	}
	for _, account := range s.accounts {
		if account.Uid == uid {
			return account, true
		}
	}
	return nil, false
}

func (s *IdentityStub) writeToken(w http.ResponseWriter, account *Account, isNewUser bool) {
	refreshToken := fmt.Sprintf("refresh-%s", uuid.NewString())
	s.refreshTokens[refreshToken] = account.Uid

	writeJSON(w, map[string]interface{}{
		"localId":       account.Uid,
		"email":         account.Email,
		"displayName":   account.DisplayName,
		"photoUrl":      account.PhotoUrl,
		"emailVerified": false,
		"idToken":       s.issueIdToken(account.Uid),
		"refreshToken":  refreshToken,
		"expiresIn":     "3600",
		"isNewUser":     isNewUser,
	})
}

func (s *IdentityStub) issueIdToken(uid string) string {
	idToken := fmt.Sprintf("id-%s", uuid.NewString())
	s.idTokens[idToken] = uid
	return idToken
}

func accountInfo(account *Account) map[string]interface{} {
	providers := make([]map[string]string, 0, len(account.Providers))
	for _, p := range account.Providers {
		providers = append(providers, map[string]string{"providerId": p})
	}
	return map[string]interface{}{
		"localId":          account.Uid,
		"email":            account.Email,
		"displayName":      account.DisplayName,
		"photoUrl":         account.PhotoUrl,
		"disabled":         account.Disabled,
		"emailVerified":    false,
		"providerUserInfo": providers,
	}
}

func decodeBody(r *http.Request) map[string]interface{} {
	body := map[string]interface{}{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp, _ := json.Marshal(body)
	_, _ = w.Write(resp)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
	_, _ = w.Write(resp)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
