package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/menosense/portal/credentials"
	internalErrs "github.com/menosense/portal/errors"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/session"
)

type FlowResult struct {
	Message string        `json:"message"`
	Session session.State `json:"session"`
}

type PasswordResetForm struct {
	Email string `json:"email"`
}

func (h *Handler) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, session.FromContext(c))
}

func (h *Handler) DeleteSession(c echo.Context) error {
	h.sessions.SignOut(c)
	return c.NoContent(http.StatusNoContent)
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
		return flowHttpError(err)
	}

	state := h.sessions.SignIn(c, result.Session)
	return c.JSON(http.StatusOK, FlowResult{Message: result.Message, Session: state})
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
		return flowHttpError(err)
	}

	state := h.sessions.SignIn(c, result.Session)
	return c.JSON(http.StatusCreated, FlowResult{Message: result.Message, Session: state})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	form := PasswordResetForm{}
	if err := c.Bind(&form); err != nil {
		return err
	}

	result, err := h.credentials.ResetPassword(c.Request().Context(), form.Email)
	if err != nil {
		return flowHttpError(err)
	}

	return c.JSON(http.StatusOK, FlowResult{Message: result.Message, Session: session.FromContext(c)})
}

// flowHttpError keeps the user facing message of a failed credential flow
func flowHttpError(err error) error {
	var validationErr credentials.ValidationError
	if errors.As(err, &validationErr) {
		return internalErrs.BadRequest.WithMessage(validationErr.Message)
	}

	var flowErr *credentials.FlowError
	if errors.As(err, &flowErr) {
		return kindHttpError(flowErr.Kind).WithMessage(flowErr.Message)
	}

	return err
}

func kindHttpError(kind identity.ErrorKind) internalErrs.HttpError {
	switch kind {
	case identity.KindInvalidEmail:
		return internalErrs.BadRequest
	case identity.KindUserNotFound:
		return internalErrs.NotFound
	case identity.KindWrongPassword:
		return internalErrs.Unauthorized
	case identity.KindTooManyRequests:
		return internalErrs.TooManyRequests
	case identity.KindInvalidCredential:
		return internalErrs.Unauthorized
	case identity.KindUserDisabled:
		return internalErrs.Forbidden
	case identity.KindEmailInUse:
		return internalErrs.Conflict
	case identity.KindWeakPassword:
		return internalErrs.BadRequest
	case identity.KindOperationNotAllowed:
		return internalErrs.Forbidden
	case identity.KindFederatedCancelled:
		return internalErrs.BadRequest
	case identity.KindFederatedBlocked:
		return internalErrs.BadRequest
	case identity.KindFederatedDuplicate:
		return internalErrs.Conflict
	default:
		return internalErrs.BadGateway
	}
}
