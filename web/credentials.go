package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/menosense/portal/credentials"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/session"
)

const (
	flowQueryParam = "flow"
	flowSignUp     = "signup"
)

func (h *Handler) LoginPage(c echo.Context) error {
	if session.FromContext(c).IsAuthenticated() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.renderLogin(c, http.StatusOK, "", "")
}

func (h *Handler) Login(c echo.Context) error {
	form := credentials.LoginForm{}
	if err := c.Bind(&form); err != nil {
		return err
	}

	h.sessions.Loading(c)
	result, err := h.credentials.Login(c.Request().Context(), form)
	if err != nil {
		h.sessions.Loaded(c)
		return h.renderLogin(c, http.StatusUnprocessableEntity, form.Email, flowMessage(err))
	}

	return h.signedIn(c, result)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	email := c.FormValue("email")
	result, err := h.credentials.ResetPassword(c.Request().Context(), email)
	if err != nil {
		return h.renderLogin(c, http.StatusUnprocessableEntity, email, flowMessage(err))
	}

	h.sessions.AddNotice(c, session.NoticeSuccess, result.Message)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) renderLogin(c echo.Context, code int, email, message string) error {
	return c.Render(code, PageLogin, LoginPage{
		Page:             h.page(c, "Login"),
		Email:            email,
		Error:            message,
		FederatedEnabled: h.credentials.FederatedEnabled(),
	})
}

func (h *Handler) RegisterPage(c echo.Context) error {
	if session.FromContext(c).IsAuthenticated() {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.renderRegister(c, http.StatusOK, credentials.RegisterForm{}, "")
}

func (h *Handler) Register(c echo.Context) error {
	form := credentials.RegisterForm{}
	if err := c.Bind(&form); err != nil {
		return err
	}

	h.sessions.Loading(c)
	result, err := h.credentials.Register(c.Request().Context(), form)
	if err != nil {
		h.sessions.Loaded(c)
		return h.renderRegister(c, http.StatusUnprocessableEntity, form, flowMessage(err))
	}

	return h.signedIn(c, result)
}

func (h *Handler) renderRegister(c echo.Context, code int, form credentials.RegisterForm, message string) error {
	return c.Render(code, PageRegister, RegisterPage{
		Page:             h.page(c, "Register"),
		FullName:         form.FullName,
		Email:            form.Email,
		Error:            message,
		FederatedEnabled: h.credentials.FederatedEnabled(),
	})
}

// FederatedStart sends the browser to the consent screen of the federated provider. Starting
// again supersedes the pending attempt.
func (h *Handler) FederatedStart(c echo.Context) error {
	flow := credentials.FlowFederatedSignIn
	if c.QueryParam(flowQueryParam) == flowSignUp {
		flow = credentials.FlowFederatedSignUp
	}

	if !h.credentials.FederatedEnabled() {
		return h.federatedFailed(c, flow, credentials.Message(flow, identity.KindUnknown))
	}

	state := h.sessions.BeginFederated(c, string(flow))
	url, err := h.credentials.FederatedURL(flow, state)
	if err != nil {
		return h.federatedFailed(c, flow, flowMessage(err))
	}

	h.sessions.Loading(c)
	return c.Redirect(http.StatusFound, url)
}

func (h *Handler) FederatedCallback(c echo.Context) error {
	pending, ok := h.sessions.CompleteFederated(c, c.QueryParam("state"))
	flow := credentials.Flow(pending)
	if !flow.IsFederated() {
		flow = credentials.FlowFederatedSignIn
	}

	var err error
	var result *credentials.Result
	switch {
	case !ok:
		err = h.credentials.FederatedDuplicate(flow)
	case c.QueryParam("error") != "":
		err = h.credentials.FederatedError(flow, c.QueryParam("error"), c.QueryParam("error_description"))
	default:
		result, err = h.credentials.FederatedSignIn(c.Request().Context(), flow, c.QueryParam("code"))
	}

	if err != nil {
		var flowErr *credentials.FlowError
		if errors.As(err, &flowErr) && flowErr.Silent() {
			// The attempt that superseded this one completes on its own
			return c.Redirect(http.StatusSeeOther, federatedOrigin(c, flow))
		}
		return h.federatedFailed(c, flow, flowMessage(err))
	}

	return h.signedIn(c, result)
}

func (h *Handler) federatedFailed(c echo.Context, flow credentials.Flow, message string) error {
	h.sessions.AddNotice(c, session.NoticeError, message)
	h.sessions.Loaded(c)
	return c.Redirect(http.StatusSeeOther, federatedOrigin(c, flow))
}

func federatedOrigin(c echo.Context, flow credentials.Flow) string {
	switch {
	case session.FromContext(c).IsAuthenticated():
		return "/"
	case flow == credentials.FlowFederatedSignUp:
		return "/register"
	default:
		return "/login"
	}
}
