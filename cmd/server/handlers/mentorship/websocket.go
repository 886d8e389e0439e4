package mentorship

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"alumni-portal/cmd/server/ctxkeys"
	"alumni-portal/cmd/server/handlers/httperr"
	"alumni-portal/cmd/server/middlewares"
	"alumni-portal/internal/logger"
	"alumni-portal/internal/services/mentorship"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second
	wsMaxIncomingBytes = 4 << 10

	msgFailedToCloseWebSocketConnection = "failed to close WebSocket connection"
)

// Hub interface for WebSocket management
type Hub interface {
	Subscribe(ctx context.Context, connULID ulid.ULID, userID bson.ObjectID) (*mentorship.Subscriber, func())
	Unsubscribe(ctx context.Context, connULID ulid.ULID)
}

// WebSocketHandlers contains WebSocket-related handlers
type WebSocketHandlers struct {
	hub          Hub
	jwtSecret    string
	maxSession   time.Duration
	pingInterval time.Duration
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, jwtSecret string, maxSessionSec int) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:          hub,
		jwtSecret:    jwtSecret,
		maxSession:   time.Duration(maxSessionSec) * time.Second,
		pingInterval: wsPingInterval,
	}
}

// WSUpgrade authenticates the ?token= query parameter before the upgrade.
// Browsers cannot set an Authorization header on a WebSocket handshake.
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusBadRequest,
			Message: "WebSocket upgrade required",
		})
	}

	token := c.Query("token")
	if token == "" {
		logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusUnauthorized,
			Message: "Missing token",
		})
	}

	claims, err := middlewares.ParseToken(token, h.jwtSecret)
	if err != nil {
		logger.L().Warn("invalid token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path(), "error", err)
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	middlewares.SetLocals(c, claims)
	// Fiber's request-bound context so WSMessagesStream gets a real context.Context.
	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())

	return c.Next()
}

// WSMessagesStream pushes created, reacted and deleted message events to the
// connected participant until the client leaves or the session expires.
//
// The connection has exactly one writer: writeLoop owns events, pings and
// the timeout close frame. This goroutine only reads, and it does not return
// before the writer has stopped.
func (h *WebSocketHandlers) WSMessagesStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		h.closeConnection(c)
		return
	}

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	subscriber, unsubscribe := h.hub.Subscribe(ctx, conn.connULID, conn.userID)
	defer unsubscribe()

	logger.L().Info("WebSocket connection established", "user_id", conn.userID.Hex(), "conn_id", conn.connID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, c, conn, subscriber)
	}()

	h.handleIncomingMessages(c, conn)
	cancel()
	<-writerDone

	logger.L().Info("WebSocket connection closed", "user_id", conn.userID.Hex(), "conn_id", conn.connID)
}

type wsConnection struct {
	userID   bson.ObjectID
	connULID ulid.ULID
	connID   string
}

func (h *WebSocketHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error(ctxkeys.UserIDKey + " not found in WebSocket context")
		return nil, nil, errors.New(ctxkeys.UserIDKey + " not found")
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid "+ctxkeys.UserIDKey+" in WebSocket context", ctxkeys.UserIDKey, userIDStr, "error", err)
		return nil, nil, err
	}

	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		logger.L().Error(ctxkeys.ParentCtxKey + " not found in WebSocket context")
		return nil, nil, errors.New(ctxkeys.ParentCtxKey + " not found")
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	c.SetReadLimit(wsMaxIncomingBytes)

	return &wsConnection{
		userID:   userID,
		connULID: connULID,
		connID:   connULID.String(),
	}, parentCtx, nil
}

func (h *WebSocketHandlers) closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Debug(msgFailedToCloseWebSocketConnection, "error", err)
	}
}

func (h *WebSocketHandlers) sendCloseMessage(c *websocket.Conn, conn *wsConnection) {
	err := h.write(c, wsPingWriteTimeout, func() error {
		return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"))
	})
	if err != nil {
		logger.L().Warn("failed to send close message", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
	}
}

// writeLoop is the only goroutine that writes to c. When it stops for any
// reason other than ctx it closes c so the reader unblocks too.
func (h *WebSocketHandlers) writeLoop(ctx context.Context, c *websocket.Conn, conn *wsConnection, subscriber *mentorship.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in WebSocket writer", "error", r, "user_id", conn.userID.Hex())
			h.closeConnection(c)
		}
	}()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()
	session := time.NewTimer(h.maxSession)
	defer session.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-subscriber.Done:
			h.closeConnection(c)
			return
		case event, ok := <-subscriber.Ch:
			if !ok {
				h.closeConnection(c)
				return
			}
			if err := h.write(c, wsWriteTimeout, func() error { return c.WriteJSON(buildEventMessage(event)) }); err != nil {
				logger.L().Warn("failed to write WebSocket message", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
				h.closeConnection(c)
				return
			}
		case <-ping.C:
			if err := h.write(c, wsPingWriteTimeout, func() error { return c.WriteMessage(websocket.PingMessage, nil) }); err != nil {
				logger.L().Debug("failed to write ping message", "error", err, "conn_id", conn.connID)
				h.closeConnection(c)
				return
			}
		case <-session.C:
			logger.L().Info("WebSocket session timeout", "user_id", conn.userID.Hex(), "conn_id", conn.connID)
			h.sendCloseMessage(c, conn)
			h.closeConnection(c)
			return
		}
	}
}

func (h *WebSocketHandlers) write(c *websocket.Conn, timeout time.Duration, fn func() error) error {
	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return fn()
}

// buildEventMessage strips deleted messages down to their identity.
func buildEventMessage(event mentorship.MessageEvent) map[string]any {
	if event.Type == mentorship.EventDeleted {
		return map[string]any{
			"type": event.Type,
			"message": map[string]any{
				"id":         event.Message.ID.Hex(),
				"alumni_id":  event.Message.AlumniID.Hex(),
				"student_id": event.Message.StudentID.Hex(),
			},
		}
	}
	return map[string]any{
		"type":    event.Type,
		"message": event.Message,
	}
}

// handleIncomingMessages drains client frames. The stream is server-push
// only; reading keeps control frames flowing and detects disconnects.
func (h *WebSocketHandlers) handleIncomingMessages(c *websocket.Conn, conn *wsConnection) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warn("WebSocket error", "error", err, "user_id", conn.userID.Hex(), "conn_id", conn.connID)
			}
			return
		}
	}
}

// LogWSConnections logs every WebSocket upgrade attempt. The token is
// verified so the logged user id cannot be spoofed.
func LogWSConnections(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			user := ""
			if cl, err := middlewares.ParseToken(c.Query("token"), jwtSecret); err == nil {
				user = cl.UserID.Hex()
			}
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", user)
		}
		return c.Next()
	}
}
