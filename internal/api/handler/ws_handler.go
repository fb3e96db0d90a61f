package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/fieldops/tracker/internal/api/metrics"
	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
	"github.com/fieldops/tracker/internal/relay"
)

var errSlowConsumer = errors.New("ws: send buffer full")

// WSHandler upgrades GET /ws to a relay connection. The handshake is
// refused without a valid token; frames after that are chat commands.
type WSHandler struct {
	auth     ports.AuthService
	hub      *relay.Hub
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewWSHandler(auth ports.AuthService, hub *relay.Hub, notifier ports.Notifier, logger zerolog.Logger) *WSHandler {
	return &WSHandler{auth: auth, hub: hub, notifier: notifier, logger: logger}
}

// clientFrame is what connected clients send.
type clientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// serverFrame is what the relay delivers to clients.
type serverFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type chatMessage struct {
	FromAgentID string    `json:"fromAgentId"`
	From        string    `json:"from"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

type chatGlobalData struct {
	Message string `json:"message"`
}

type chatDirectData struct {
	To      *relationField `json:"toAgentId"`
	Message string         `json:"message"`
}

// Handle performs the token-gated handshake and hands the connection
// to the relay loop.
func (h *WSHandler) Handle(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	claims, err := h.auth.VerifyToken(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	user, err := h.auth.ValidateUser(c.Request().Context(), claims.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}

	server := websocket.Server{
		Handler: func(ws *websocket.Conn) {
			h.serve(ws, user)
		},
	}
	server.ServeHTTP(c.Response(), c.Request())
	return nil
}

func (h *WSHandler) serve(ws *websocket.Conn, user *domain.User) {
	conn := newWSConn(ws, strconv.FormatInt(user.ID, 10))
	h.hub.Join(conn)
	defer func() {
		h.hub.Leave(conn)
		_ = conn.Close()
	}()

	go conn.writeLoop()

	ctx := ws.Request().Context()
	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal([]byte(raw), &frame); err != nil {
			h.logger.Debug().Err(err).Str("agent", conn.AgentID()).Msg("ws: dropping malformed frame")
			continue
		}

		switch frame.Event {
		case "chat:global":
			var data chatGlobalData
			if err := json.Unmarshal(frame.Data, &data); err != nil || data.Message == "" {
				continue
			}
			metrics.RelayMessagesTotal.WithLabelValues("chat_global").Inc()
			out := serverFrame{Event: "chat:global:new", Data: chatMessage{
				FromAgentID: conn.AgentID(),
				From:        user.Username,
				Message:     data.Message,
				At:          time.Now().UTC(),
			}}
			if err := h.notifier.NotifyAll(ctx, out); err != nil {
				h.logger.Warn().Err(err).Msg("ws: global chat publish failed")
			}
		case "chat:dm":
			var data chatDirectData
			if err := json.Unmarshal(frame.Data, &data); err != nil || data.Message == "" {
				continue
			}
			to := data.To.ptr()
			if to == nil {
				continue
			}
			metrics.RelayMessagesTotal.WithLabelValues("chat_dm").Inc()
			out := serverFrame{Event: "chat:dm:new", Data: chatMessage{
				FromAgentID: conn.AgentID(),
				From:        user.Username,
				Message:     data.Message,
				At:          time.Now().UTC(),
			}}
			if err := h.notifier.NotifyAgent(ctx, strconv.FormatInt(*to, 10), out); err != nil {
				h.logger.Warn().Err(err).Msg("ws: direct chat publish failed")
			}
		default:
			h.logger.Debug().Str("event", frame.Event).Msg("ws: ignoring unknown frame")
		}
	}
}

// wsConn adapts a websocket connection to relay.Conn. Writes go through
// a buffered channel so a slow client never blocks the hub.
type wsConn struct {
	agentID string
	ws      *websocket.Conn
	out     chan json.RawMessage
	done    chan struct{}
	once    sync.Once
}

func newWSConn(ws *websocket.Conn, agentID string) *wsConn {
	return &wsConn{
		agentID: agentID,
		ws:      ws,
		out:     make(chan json.RawMessage, 32),
		done:    make(chan struct{}),
	}
}

func (c *wsConn) AgentID() string { return c.agentID }

func (c *wsConn) Send(payload json.RawMessage) error {
	select {
	case <-c.done:
		return errors.New("ws: connection closed")
	case c.out <- payload:
		return nil
	default:
		return errSlowConsumer
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.ws.Close()
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.out:
			if err := websocket.Message.Send(c.ws, string(payload)); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
