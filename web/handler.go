// Package web serves the server-rendered pages of the portal
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/menosense/portal/config"
	"github.com/menosense/portal/credentials"
	"github.com/menosense/portal/devices"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/metrics"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
)

const (
	NoticeDeviceConnected = "Device Connected!"

	menuQueryParam  = "menu"
	menuOpen        = "open"
	eventQueryParam = "event"
	widthQueryParam = "width"

	// Browsers which support client hints report the layout viewport width in this header
	viewportWidthHeader = "Sec-CH-Viewport-Width"
)

type Handler struct {
	config      *config.Config
	credentials *credentials.Service
	profiles    profiles.Service
	board       *status.Board
	sessions    *session.Manager
	generator   *devices.Generator
	logger      *zap.SugaredLogger
}

func NewHandler(cfg *config.Config, credentialsService *credentials.Service, profilesService profiles.Service, board *status.Board, sessions *session.Manager, generator *devices.Generator, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		config:      cfg,
		credentials: credentialsService,
		profiles:    profilesService,
		board:       board,
		sessions:    sessions,
		generator:   generator,
		logger:      logger,
	}
}

func RegisterHandlers(e *echo.Echo, h *Handler) {
	e.GET("/", h.Home)
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.Login)
	e.POST("/login/reset", h.ResetPassword)
	e.GET("/register", h.RegisterPage)
	e.POST("/register", h.Register)
	e.GET("/auth/google", h.FederatedStart)
	e.GET("/auth/google/callback", h.FederatedCallback)
	e.POST("/logout", h.Logout)
	e.GET("/profile", h.ProfilePage)
	e.POST("/profile", h.SaveProfile)
	e.POST("/device/connect", h.ConnectDevice)
	e.GET("/device-details", h.DeviceDetails)
	e.GET("/questionnaire", h.Questionnaire)
}

func (h *Handler) page(c echo.Context, title string) Page {
	c.Response().Header().Set("Accept-CH", viewportWidthHeader)
	width := viewportWidth(c)
	sidebar := sidebarFromRequest(c, width)

	return Page{
		Title:        title,
		User:         session.FromContext(c).User,
		Notices:      h.sessions.Notices(c),
		Sidebar:      sidebar,
		ScrollLocked: sidebar.ScrollLocked(width),
	}
}

// sidebarFromRequest replays the sidebar event carried by the request over the state the
// page was rendered with. A viewport wider than the mobile layout closes the sidebar.
func sidebarFromRequest(c echo.Context, width int) Sidebar {
	sidebar := NewSidebar(c.QueryParam(menuQueryParam) == menuOpen)
	switch SidebarEvent(c.QueryParam(eventQueryParam)) {
	case SidebarEventToggle:
		sidebar = sidebar.Toggle()
	case SidebarEventOutsideClick:
		sidebar = sidebar.OutsideClick(width)
	case SidebarEventNavigate:
		sidebar = sidebar.Navigate()
	}
	if width != UnknownWidth {
		sidebar = sidebar.Resize(width)
	}
	return sidebar
}

// viewportWidth prefers the width query parameter over the client hint header
func viewportWidth(c echo.Context) int {
	for _, value := range []string{c.QueryParam(widthQueryParam), c.Request().Header.Get(viewportWidthHeader)} {
		if width, err := strconv.Atoi(value); err == nil && width > 0 {
			return width
		}
	}
	return UnknownWidth
}

func (h *Handler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, PageHome, HomePage{
		Page: h.page(c, "Home"),
	})
}

func (h *Handler) ConnectDevice(c echo.Context) error {
	reading := h.generator.Connect()
	metrics.RecordDeviceConnection()

	h.sessions.SetReading(c, reading)
	h.sessions.AddNotice(c, session.NoticeSuccess, NoticeDeviceConnected)
	return c.Redirect(http.StatusSeeOther, "/device-details")
}

// DeviceDetails shows the reading of the last connect, or the placeholder reading when the page
// is opened directly
func (h *Handler) DeviceDetails(c echo.Context) error {
	reading := devices.ReadingOrPlaceholder(h.sessions.TakeReading(c))
	return c.Render(http.StatusOK, PageDeviceDetails, DeviceDetailsPage{
		Page:    h.page(c, "Device Details"),
		Reading: reading,
	})
}

func (h *Handler) Questionnaire(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.config.QuestionnaireUrl)
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.SignOut(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) signedIn(c echo.Context, result *credentials.Result) error {
	h.sessions.SignIn(c, result.Session)
	h.sessions.AddNotice(c, session.NoticeSuccess, result.Message)
	return c.Redirect(http.StatusSeeOther, "/")
}

// flowMessage is the message of a failed credential flow
func flowMessage(err error) string {
	var validationErr credentials.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var flowErr *credentials.FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	return credentials.Message(credentials.FlowLogin, identity.KindUnknown)
}
