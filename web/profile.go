package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
)

func (h *Handler) ProfilePage(c echo.Context) error {
	user := session.FromContext(c).User
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	view, err := h.profiles.Load(c.Request().Context(), *user)
	if err != nil {
		return err
	}

	return h.renderProfile(c, http.StatusOK, *view, formatAge(view.Age), "")
}

// SaveProfile redirects back to the profile page, which shows the outcome of the save until
// the status clears
func (h *Handler) SaveProfile(c echo.Context) error {
	user := session.FromContext(c).User
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	submitted := profiles.View{
		Uid:         user.Uid,
		Email:       user.Email,
		DisplayName: c.FormValue("displayName"),
		PhotoURL:    c.FormValue("photoURL"),
		Profession:  c.FormValue("profession"),
	}
	age, err := profiles.ParseAge(c.FormValue("age"))
	if err == nil {
		form := profiles.Form{
			DisplayName: submitted.DisplayName,
			PhotoURL:    submitted.PhotoURL,
			Age:         age,
			Profession:  submitted.Profession,
		}
		var result *profiles.SaveResult
		result, err = h.profiles.Save(c.Request().Context(), h.sessions.IdToken(c), *user, form)
		if err == nil {
			h.sessions.SetUser(c, result.User)
			return c.Redirect(http.StatusSeeOther, "/profile")
		}
	}

	var validationErr profiles.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return h.renderProfile(c, http.StatusUnprocessableEntity, submitted, c.FormValue("age"), validationErr.Message)
	case errors.Is(err, status.ErrSaveInProgress):
		return h.renderProfile(c, http.StatusConflict, submitted, c.FormValue("age"), "")
	default:
		return c.Redirect(http.StatusSeeOther, "/profile")
	}
}

func (h *Handler) renderProfile(c echo.Context, code int, view profiles.View, age string, message string) error {
	return c.Render(code, PageProfile, ProfilePage{
		Page:        h.page(c, "Profile"),
		View:        view,
		Professions: profiles.Professions,
		Status:      h.board.Get(view.Uid),
		Error:       message,
		Age:         age,
	})
}
