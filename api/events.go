package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/menosense/portal/session"
)

const sessionEventName = "session"

// GetSessionEvents streams the session state as server-sent events. The current state is sent
// first, then every change until the client disconnects.
func (h *Handler) GetSessionEvents(c echo.Context) error {
	subscription := h.sessions.Subscribe(c)
	defer h.sessions.Unsubscribe(subscription)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	state := session.FromContext(c)
	for {
		if err := writeEvent(res, state); err != nil {
			h.logger.Debugw("session events client went away", "error", err)
			return nil
		}

		next, err := subscription.Next(ctx)
		if err != nil {
			return nil
		}
		state = next
	}
}

func writeEvent(res *echo.Response, state session.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", sessionEventName, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
