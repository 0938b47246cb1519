package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/golang-jwt/jwt/v4"

	"github.com/menosense/portal/identity"
)

const (
	TestGoogleClientId     = "test-client-id"
	TestGoogleClientSecret = "test-client-secret"
	stubSigningKey         = "google-stub"
)

// GoogleStub stands in for the Google OAuth2 token endpoint. Each authorization code
// registered with Authorize can be exchanged exactly once for an id token carrying the
// registered claims.
type GoogleStub struct {
	*httptest.Server

	mu    sync.Mutex
	codes map[string]jwt.MapClaims
}

func NewGoogleStub() *GoogleStub {
	s := &GoogleStub{
		codes: make(map[string]jwt.MapClaims),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *GoogleStub) Config(callbackUrl string) *identity.FederatedConfig {
	return &identity.FederatedConfig{
		GoogleClientId:     TestGoogleClientId,
		GoogleClientSecret: TestGoogleClientSecret,
		GoogleAuthUrl:      s.URL + "/auth",
		GoogleTokenUrl:     s.URL + "/token",
		CallbackUrl:        callbackUrl,
	}
}

func (s *GoogleStub) Authorize(code, subject, email, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[code] = jwt.MapClaims{
		"sub":     subject,
		"email":   email,
		"name":    name,
		"picture": "https://example.com/" + subject + ".png",
	}
}

func IdToken(claims jwt.MapClaims) string {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(stubSigningKey))
	return token
}

func (s *GoogleStub) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/token" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	claims, ok := s.codes[r.PostForm.Get("code")]
	delete(s.codes, r.PostForm.Get("code"))
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	resp, _ := json.Marshal(map[string]interface{}{
		"access_token": "access-" + r.PostForm.Get("code"),
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     IdToken(claims),
	})
	_, _ = w.Write(resp)
}
