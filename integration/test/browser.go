package test

import (
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/menosense/portal/session"
)

// Browser keeps the session cookie between requests served by the echo server
type Browser struct {
	server *echo.Echo
	cookie *http.Cookie
}

func NewBrowser(server *echo.Echo) *Browser {
	return &Browser{server: server}
}

func (b *Browser) Do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	rec := httptest.NewRecorder()
	b.server.ServeHTTP(rec, req)
	if cookie := session.CookieFrom(rec.Result()); cookie != nil {
		b.cookie = cookie
	}
	return rec
}
