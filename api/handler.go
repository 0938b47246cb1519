package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/menosense/portal/credentials"
	"github.com/menosense/portal/devices"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
)

type Handler struct {
	credentials *credentials.Service
	profiles    profiles.Service
	board       *status.Board
	sessions    *session.Manager
	generator   *devices.Generator
	logger      *zap.SugaredLogger
}

type Params struct {
	fx.In

	Credentials *credentials.Service
	Profiles    profiles.Service
	Board       *status.Board
	Sessions    *session.Manager
	Generator   *devices.Generator
	Logger      *zap.SugaredLogger
}

func NewHandler(p Params) *Handler {
	return &Handler{
		credentials: p.Credentials,
		profiles:    p.Profiles,
		board:       p.Board,
		sessions:    p.Sessions,
		generator:   p.Generator,
		logger:      p.Logger,
	}
}

func RegisterHandlers(e *echo.Echo, h *Handler) {
	v1 := e.Group("/v1")
	v1.GET("/session", h.GetSession)
	v1.DELETE("/session", h.DeleteSession)
	v1.GET("/session/events", h.GetSessionEvents)
	v1.POST("/session/login", h.Login)
	v1.POST("/session/register", h.Register)
	v1.POST("/session/password-reset", h.ResetPassword)
	v1.GET("/profile", h.GetProfile)
	v1.PUT("/profile", h.UpdateProfile)
	v1.GET("/profile/status", h.GetProfileStatus)
	v1.POST("/devices/readings", h.ConnectDevice)
	v1.GET("/devices/readings/placeholder", h.GetPlaceholderReading)
}
