package web

import (
	"strconv"

	"github.com/menosense/portal/devices"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
)

const guestAvatarUrl = "https://via.placeholder.com/80"

// Page holds what the layout needs
type Page struct {
	Title        string
	User         *identity.User
	Notices      []session.Notice
	Sidebar      Sidebar
	// ScrollLocked keeps the page behind an overlaying sidebar from scrolling
	ScrollLocked bool
}

type HomePage struct {
	Page
}

func (h HomePage) Avatar() string {
	if h.User != nil && h.User.PhotoURL != "" {
		return h.User.PhotoURL
	}
	return guestAvatarUrl
}

type LoginPage struct {
	Page
	Email            string
	Error            string
	FederatedEnabled bool
}

type RegisterPage struct {
	Page
	FullName         string
	Email            string
	Error            string
	FederatedEnabled bool
}

type ProfilePage struct {
	Page
	View        profiles.View
	Professions []string
	Status      status.Status
	Error       string
	// Age is kept as submitted so an invalid value is shown back to the user
	Age string
}

func (p ProfilePage) Saving() bool {
	return p.Status.State == status.StateSaving
}

type DeviceDetailsPage struct {
	Page
	Reading devices.Reading
}

func formatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}
