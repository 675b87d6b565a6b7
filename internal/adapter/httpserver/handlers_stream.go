package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/signcast/internal/domain"
	"github.com/pscheid92/signcast/internal/platform/config"
	apperrors "github.com/pscheid92/signcast/internal/platform/errors"
)

const (
	streamWriteTimeout = 10 * time.Second
	wsReadLimit        = 512
)

// sseWriter frames hub output as Server-Sent Events.
type sseWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func newSSEWriter(res *echo.Response) *sseWriter {
	return &sseWriter{w: res, rc: http.NewResponseController(res)}
}

func (w *sseWriter) WriteMessage(data []byte) error {
	return w.write("data: %s\n\n", data)
}

func (w *sseWriter) WriteKeepAlive() error {
	return w.write(": keepalive\n\n")
}

func (w *sseWriter) write(format string, args ...any) error {
	if err := w.rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := fmt.Fprintf(w.w, format, args...); err != nil {
		return err
	}
	if err := w.rc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (s *Server) handleSubscribe(c echo.Context) error {
	res := c.Response()
	w := newSSEWriter(res)

	sub, err := s.hub.Subscribe(w)
	if err != nil {
		return HandleError(c, subscribeError(err))
	}

	h := res.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	if err := w.rc.Flush(); err != nil {
		s.hub.Unsubscribe(sub)
		return fmt.Errorf("failed to start event stream: %w", err)
	}

	ctx := c.Request().Context()
	slog.DebugContext(ctx, "SSE subscriber connected", "subscriber_id", sub.ID.String())

	if err := sub.Run(ctx); err != nil {
		slog.DebugContext(ctx, "SSE subscription ended", "subscriber_id", sub.ID.String(), "reason", err)
	}
	return nil
}

// wsWriter sends hub output as text frames and keep-alives as pings.
// The connection is attached after the upgrade; the subscriber does not
// write before Run starts.
type wsWriter struct {
	conn *websocket.Conn
}

func (w *wsWriter) WriteMessage(data []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsWriter) WriteKeepAlive() error {
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout))
}

func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newCheckOrigin(cfg.AllowedOrigins(), cfg.AppEnv == "development"),
	}
}

func (s *Server) handleSubscribeWS(c echo.Context) error {
	w := &wsWriter{}
	sub, err := s.hub.Subscribe(w)
	if err != nil {
		return HandleError(c, subscribeError(err))
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		s.hub.Unsubscribe(sub)
		slog.DebugContext(c.Request().Context(), "WebSocket upgrade failed", "error", err)
		return nil
	}
	defer func() { _ = conn.Close() }()
	w.conn = conn

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go s.readPump(conn, cancel)

	slog.DebugContext(ctx, "WebSocket subscriber connected", "subscriber_id", sub.ID.String())

	runErr := sub.Run(ctx)
	code, reason := websocket.CloseNormalClosure, ""
	if errors.Is(runErr, domain.ErrHubStopped) {
		code, reason = websocket.CloseGoingAway, "server shutting down"
	}
	if runErr != nil {
		slog.DebugContext(ctx, "WebSocket subscription ended", "subscriber_id", sub.ID.String(), "reason", runErr)
	}

	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return nil
}

// readPump discards inbound frames and cancels the subscription once the
// peer goes away or stops answering pings.
func (s *Server) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	pongWait := 2 * s.config.KeepAliveInterval
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func subscribeError(err error) error {
	if errors.Is(err, domain.ErrHubStopped) {
		return apperrors.UnavailableError("Server is shutting down", err)
	}
	if errors.Is(err, domain.ErrTooManySubscribers) {
		return apperrors.UnavailableError("Too many subscribers", err)
	}
	return apperrors.InternalError("Failed to subscribe", err)
}
