package session

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/menosense/portal/devices"
)

const (
	NoticeSuccess = "success"
	NoticeError   = "error"

	flashNotices = "_notices"
	flashReading = "_reading"
)

// Notice is a transient message shown once on the next rendered page
type Notice struct {
	Level   string
	Message string
}

func (m *Manager) AddNotice(c echo.Context, level, message string) {
	if message == "" {
		return
	}
	rs := m.requestSession(c)
	rs.session.AddFlash(Notice{Level: level, Message: message}, flashNotices)
	rs.dirty = true
}

// Notices consumes the pending notices
func (m *Manager) Notices(c echo.Context) []Notice {
	rs := m.requestSession(c)
	flashes := rs.session.Flashes(flashNotices)
	if len(flashes) == 0 {
		return nil
	}
	rs.dirty = true

	notices := make([]Notice, 0, len(flashes))
	for _, flash := range flashes {
		if notice, ok := flash.(Notice); ok {
			notices = append(notices, notice)
		}
	}
	return notices
}

// SetReading hands a reading over to the next page that takes it
func (m *Manager) SetReading(c echo.Context, reading devices.Reading) {
	encoded, err := json.Marshal(reading)
	if err != nil {
		m.logger.Errorw("unable to encode reading", zap.Error(err))
		return
	}

	rs := m.requestSession(c)
	// Only the latest reading is kept
	rs.session.Flashes(flashReading)
	rs.session.AddFlash(string(encoded), flashReading)
	rs.dirty = true
}

// TakeReading consumes the reading handed over by SetReading. It returns nil when there is
// none, e.g. when the page is opened directly.
func (m *Manager) TakeReading(c echo.Context) *devices.Reading {
	rs := m.requestSession(c)
	flashes := rs.session.Flashes(flashReading)
	if len(flashes) == 0 {
		return nil
	}
	rs.dirty = true

	encoded, ok := flashes[len(flashes)-1].(string)
	if !ok {
		return nil
	}
	reading := &devices.Reading{}
	if err := json.Unmarshal([]byte(encoded), reading); err != nil {
		m.logger.Warnw("discarding invalid reading", zap.Error(err))
		return nil
	}
	return reading
}
