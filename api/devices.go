package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/menosense/portal/devices"
	"github.com/menosense/portal/metrics"
)

// ConnectDevice simulates connecting the device. The reading is also handed over to the
// device details page.
func (h *Handler) ConnectDevice(c echo.Context) error {
	reading := h.generator.Connect()
	metrics.RecordDeviceConnection()

	h.sessions.SetReading(c, reading)
	return c.JSON(http.StatusCreated, reading)
}

func (h *Handler) GetPlaceholderReading(c echo.Context) error {
	return c.JSON(http.StatusOK, devices.Placeholder())
}
