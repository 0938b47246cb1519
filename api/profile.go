package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/TwiN/deepmerge"
	"github.com/labstack/echo/v4"

	internalErrs "github.com/menosense/portal/errors"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
)

func (h *Handler) GetProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	view, err := h.profiles.Load(c.Request().Context(), *user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}

// UpdateProfile merges the body over the current profile, so fields missing from the body keep
// their value
func (h *Handler) UpdateProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return internalErrs.BadRequest
	}

	ctx := c.Request().Context()
	view, err := h.profiles.Load(ctx, *user)
	if err != nil {
		return err
	}

	form, err := mergeForm(*view, body)
	if err != nil {
		return internalErrs.BadRequest.WithMessage(err.Error())
	}

	result, err := h.profiles.Save(ctx, h.sessions.IdToken(c), *user, form)
	if err != nil {
		var validationErr profiles.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return internalErrs.ConstraintViolation.WithMessage(validationErr.Message)
		case errors.Is(err, status.ErrSaveInProgress):
			return internalErrs.Conflict.WithMessage(err.Error())
		default:
			return internalErrs.BadGateway.WithMessage(status.MessageError)
		}
	}

	h.sessions.SetUser(c, result.User)
	return c.JSON(http.StatusOK, result.View)
}

func (h *Handler) GetProfileStatus(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.board.Get(user.Uid))
}

func mergeForm(view profiles.View, patch []byte) (profiles.Form, error) {
	form := profiles.Form{}
	current, err := json.Marshal(view)
	if err != nil {
		return form, err
	}

	merged, err := deepmerge.JSON(current, patch, deepmerge.Config{
		PreventMultipleDefinitionsOfKeysWithPrimitiveValue: false,
	})
	if err != nil {
		return form, err
	}

	err = json.Unmarshal(merged, &form)
	return form, err
}

func currentUser(c echo.Context) (*identity.User, error) {
	user := session.FromContext(c).User
	if user == nil {
		return nil, internalErrs.Unauthorized
	}
	return user, nil
}
