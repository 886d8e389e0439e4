package mentorship

import (
	"context"
	"crypto/rand"
	"net"
	"sync"
	"testing"
	"time"

	"alumni-portal/cmd/server/ctxkeys"
	"alumni-portal/cmd/server/testutil"
	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/services/mentorship"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MockHub implements the Hub interface for testing
type MockHub struct {
	mu             sync.Mutex
	subscribers    map[ulid.ULID]*mentorship.Subscriber
	subscribeCount int
}

func NewMockHub() *MockHub {
	return &MockHub{
		subscribers: make(map[ulid.ULID]*mentorship.Subscriber),
	}
}

func (m *MockHub) Subscribe(ctx context.Context, connULID ulid.ULID, userID bson.ObjectID) (*mentorship.Subscriber, func()) {
	sub := &mentorship.Subscriber{
		UserID: userID,
		Ch:     make(chan mentorship.MessageEvent, 10),
		Done:   make(chan struct{}),
	}
	m.mu.Lock()
	m.subscribers[connULID] = sub
	m.subscribeCount++
	m.mu.Unlock()

	cancel := func() {
		m.Unsubscribe(ctx, connULID)
	}
	return sub, cancel
}

func (m *MockHub) Unsubscribe(_ context.Context, connULID ulid.ULID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, exists := m.subscribers[connULID]; exists {
		close(sub.Ch)
		close(sub.Done)
		delete(m.subscribers, connULID)
	}
}

func (m *MockHub) GetSubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// WebSocketTestConfig holds configuration for WebSocket tests
type WebSocketTestConfig struct {
	Secret        string
	MaxSessionSec int
}

// DefaultWebSocketTestConfig returns a default test configuration
func DefaultWebSocketTestConfig() WebSocketTestConfig {
	return WebSocketTestConfig{
		Secret:        testutil.TestJWTSecret,
		MaxSessionSec: 900,
	}
}

// SetupWebSocketHandlersApp mounts WSUpgrade in front of a handler that
// echoes the authenticated principal.
func SetupWebSocketHandlersApp(t *testing.T, config WebSocketTestConfig) (*fiber.App, *MockHub, *WebSocketHandlers) {
	t.Helper()

	app := testutil.CreateTestApp(t)
	hub := NewMockHub()
	wsHandlers := NewWebSocketHandlers(hub, config.Secret, config.MaxSessionSec)

	app.Get("/ws", wsHandlers.WSUpgrade, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals(ctxkeys.UserIDKey),
			"email":   c.Locals(ctxkeys.UserEmailKey),
			"role":    c.Locals(ctxkeys.UserRoleKey),
		})
	})

	return app, hub, wsHandlers
}

// StartStreamServer serves WSMessagesStream on a random local port with
// every connection authenticated as userID. It returns the ws:// URL.
func StartStreamServer(t *testing.T, hub Hub, userID bson.ObjectID, maxSessionSec int) string {
	t.Helper()
	return StartStreamServerWith(t, NewWebSocketHandlers(hub, testutil.TestJWTSecret, maxSessionSec), userID)
}

// StartStreamServerWith is StartStreamServer for preconfigured handlers.
func StartStreamServerWith(t *testing.T, wsHandlers *WebSocketHandlers, userID bson.ObjectID) string {
	t.Helper()

	app := testutil.CreateTestApp(t)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		c.Locals(ctxkeys.UserIDKey, userID.Hex())
		c.Locals(ctxkeys.UserEmailKey, "ws@example.com")
		c.Locals(ctxkeys.UserRoleKey, string(auth.RoleStudent))
		c.Locals(ctxkeys.ParentCtxKey, c.UserContext())
		return c.Next()
	})
	app.Get("/ws", websocket.New(wsHandlers.WSMessagesStream))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.ShutdownWithTimeout(time.Second)
	})

	return "ws://" + ln.Addr().String() + "/ws"
}

// CreateTestJWTForWebSocket creates a JWT token for WebSocket testing
func CreateTestJWTForWebSocket(userID, email string, role auth.Role, secret string, expiry time.Duration) (string, error) {
	return testutil.CreateTestJWT(userID, email, role, []byte(secret), expiry)
}

// WSUpgradeTestCase represents a WebSocket upgrade test case
type WSUpgradeTestCase struct {
	Name           string
	Token          *string // nil means no token
	ExpectedStatus int
}

// GetStandardWSUpgradeTestCases returns common WebSocket upgrade test cases
func GetStandardWSUpgradeTestCases(t *testing.T, secret string) []WSUpgradeTestCase {
	t.Helper()

	userID := bson.NewObjectID().Hex()
	email := "student@mgmcen.ac.in"

	validToken, err := CreateTestJWTForWebSocket(userID, email, auth.RoleStudent, secret, time.Hour)
	require.NoError(t, err)

	expiredToken, err := CreateTestJWTForWebSocket(userID, email, auth.RoleStudent, secret, -time.Hour)
	require.NoError(t, err)

	wrongSecretToken, err := CreateTestJWTForWebSocket(userID, email, auth.RoleStudent, "another-secret-with-32-plus-characters", time.Hour)
	require.NoError(t, err)

	invalidToken := "invalid-token"

	return []WSUpgradeTestCase{
		{Name: "ValidToken", Token: &validToken, ExpectedStatus: 200},
		{Name: "MissingToken", Token: nil, ExpectedStatus: 401},
		{Name: "InvalidToken", Token: &invalidToken, ExpectedStatus: 401},
		{Name: "ExpiredToken", Token: &expiredToken, ExpectedStatus: 401},
		{Name: "WrongSecret", Token: &wrongSecretToken, ExpectedStatus: 401},
	}
}

// WebSocketConnectionTest subscribes userID to hub and unsubscribes on cleanup.
func WebSocketConnectionTest(t *testing.T, hub *MockHub, userID bson.ObjectID) *mentorship.Subscriber {
	t.Helper()

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	sub, cancel := hub.Subscribe(context.Background(), connULID, userID)
	t.Cleanup(cancel)

	return sub
}
