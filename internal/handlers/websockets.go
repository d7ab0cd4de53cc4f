package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"weather_relay/internal/classifier"
	"weather_relay/internal/models"
	"weather_relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000

	wsTypeReading = "reading"
	wsTypeWaiting = "waiting"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type wsReading struct {
	Reading    models.Reading    `json:"reading"`
	Labels     classifier.Labels `json:"labels"`
	ReceivedAt time.Time         `json:"received_at"`
}

// The status page may be served from another origin (ESP dashboards, dev servers).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live reading stream
// @Description  Websocket. Sends the current reading on connect and again whenever a new one arrives.
// @Tags         device
// @Param        interval     query  string  false  "Poll interval, e.g. 500ms (max 10s)"
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	var last time.Time
	if last, err = h.sendReading(ctx, conn, time.Time{}, true); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if last, err = h.sendReading(ctx, conn, last, false); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendReading writes the current snapshot if it arrived after last. With
// initial set, a "waiting" envelope is written when nothing has arrived yet.
// It returns the ReceivedAt of the latest snapshot written.
func (h *Handler) sendReading(ctx context.Context, conn *websocket.Conn, last time.Time, initial bool) (time.Time, error) {
	snap, err := h.services.Current(ctx)
	if errors.Is(err, service.ErrNoReading) {
		if !initial {
			return last, nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return last, conn.WriteJSON(wsEnvelope{Type: wsTypeWaiting})
	}
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_reading_failed", "err", err)
		}
		return last, err
	}
	if !initial && !snap.ReceivedAt.After(last) {
		return last, nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteJSON(wsEnvelope{Type: wsTypeReading, Data: wsReading{
		Reading:    snap.Reading,
		Labels:     h.services.Labels(snap.Reading),
		ReceivedAt: snap.ReceivedAt,
	}})
	return snap.ReceivedAt, err
}
