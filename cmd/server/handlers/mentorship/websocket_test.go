package mentorship

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"alumni-portal/cmd/server/testutil"
	"alumni-portal/internal/services/auth"
	"alumni-portal/internal/services/mentorship"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestWSUpgradeTableDriven(t *testing.T) {
	config := DefaultWebSocketTestConfig()
	testCases := GetStandardWSUpgradeTestCases(t, config.Secret)

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			app, _, _ := SetupWebSocketHandlersApp(t, config)

			req := testutil.CreateWebSocketRequest("/ws", tc.Token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedStatus, resp.StatusCode)
		})
	}
}

func TestWSUpgradeSetsPrincipal(t *testing.T) {
	config := DefaultWebSocketTestConfig()
	app, _, _ := SetupWebSocketHandlersApp(t, config)

	userID := bson.NewObjectID().Hex()
	token, err := CreateTestJWTForWebSocket(userID, "a@x.com", auth.RoleAlumni, config.Secret, time.Hour)
	require.NoError(t, err)

	resp, err := app.Test(testutil.CreateWebSocketRequest("/ws", &token))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	got := testutil.DecodeJSON[map[string]any](t, resp)
	assert.Equal(t, userID, got["user_id"])
	assert.Equal(t, "a@x.com", got["email"])
	assert.Equal(t, "alumni", got["role"])
}

func TestWSUpgradeNonWebSocketRequest(t *testing.T) {
	app, _, _ := SetupWebSocketHandlersApp(t, DefaultWebSocketTestConfig())

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestWSStreamDeliversEvents(t *testing.T) {
	hub := mentorship.NewHub(8)
	studentID, alumniID := bson.NewObjectID(), bson.NewObjectID()
	url := StartStreamServer(t, hub, studentID, 900)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		subs, _ := hub.Stats()
		return subs == 1
	}, 2*time.Second, 10*time.Millisecond)

	msg := &mentorship.Message{
		ID:         bson.NewObjectID(),
		AlumniID:   alumniID,
		StudentID:  studentID,
		SenderID:   alumniID,
		SenderRole: auth.RoleAlumni,
		Text:       "welcome aboard",
		Reactions:  []mentorship.Reaction{},
	}
	hub.Broadcast(context.Background(), mentorship.MessageEvent{Type: mentorship.EventCreated, Message: msg})
	hub.Broadcast(context.Background(), mentorship.MessageEvent{Type: mentorship.EventDeleted, Message: msg})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var created map[string]any
	require.NoError(t, conn.ReadJSON(&created))
	assert.Equal(t, "created", created["type"])
	body := created["message"].(map[string]any)
	assert.Equal(t, "welcome aboard", body["text"])
	assert.Equal(t, msg.ID.Hex(), body["id"])

	var deleted map[string]any
	require.NoError(t, conn.ReadJSON(&deleted))
	assert.Equal(t, "deleted", deleted["type"])
	assert.Equal(t, map[string]any{
		"id":         msg.ID.Hex(),
		"alumni_id":  alumniID.Hex(),
		"student_id": studentID.Hex(),
	}, deleted["message"])
}

func TestWSStreamIgnoresOtherConversations(t *testing.T) {
	hub := mentorship.NewHub(8)
	me := bson.NewObjectID()
	url := StartStreamServer(t, hub, me, 900)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		subs, _ := hub.Stats()
		return subs == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(context.Background(), mentorship.MessageEvent{
		Type:    mentorship.EventCreated,
		Message: &mentorship.Message{ID: bson.NewObjectID(), AlumniID: bson.NewObjectID(), StudentID: bson.NewObjectID()},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	var netErr interface{ Timeout() bool }
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected read timeout, got %v", err)
}

func TestWSSessionTimeout(t *testing.T) {
	hub := NewMockHub()
	url := StartStreamServer(t, hub, bson.NewObjectID(), 1)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	start := time.Now()
	_, _, readErr := conn.ReadMessage()
	require.Error(t, readErr)
	elapsed := time.Since(start)

	var closeErr *gorillaws.CloseError
	if errors.As(readErr, &closeErr) {
		assert.Equal(t, WSClosePolicyViolation, closeErr.Code, "Expected policy violation close code")
	}
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
	assert.Less(t, elapsed, 4*time.Second)

	require.Eventually(t, func() bool {
		return hub.GetSubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "subscription should be released after timeout")
}

// Integration test that verifies proper cleanup when WebSocket closes
func TestWSConnectionCleanup(t *testing.T) {
	hub := NewMockHub()
	userID := bson.NewObjectID()

	var sub *mentorship.Subscriber

	// Runs after the cancel registered by WebSocketConnectionTest.
	t.Cleanup(func() {
		require.Eventually(t, func() bool {
			return hub.GetSubscriberCount() == 0
		}, 100*time.Millisecond, 10*time.Millisecond,
			"Hub should have no subscribers after cleanup")

		select {
		case <-sub.Done:
		case <-time.After(50 * time.Millisecond):
			t.Fatal("Done channel should be closed after cleanup")
		}

		assert.Panics(t, func() {
			sub.Ch <- mentorship.MessageEvent{Type: mentorship.EventCreated}
		}, "should panic when sending to closed channel")
	})

	sub = WebSocketConnectionTest(t, hub, userID)
	require.Equal(t, 1, hub.GetSubscriberCount())
}

func TestWSStreamReleasesGoroutinesOnClose(t *testing.T) {
	hub := mentorship.NewHub(8)
	url := StartStreamServer(t, hub, bson.NewObjectID(), 900)

	openAndClose := func() {
		conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			subs, _ := hub.Stats()
			return subs == 1
		}, 2*time.Second, 5*time.Millisecond)

		bye := gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, "")
		require.NoError(t, conn.WriteControl(gorillaws.CloseMessage, bye, time.Now().Add(time.Second)))
		_ = conn.Close()

		require.Eventually(t, func() bool {
			subs, _ := hub.Stats()
			return subs == 0
		}, 2*time.Second, 5*time.Millisecond)
	}

	// warm up the server's worker pool before taking the baseline
	openAndClose()
	time.Sleep(50 * time.Millisecond)
	before := runtime.NumGoroutine()

	const sessions = 30
	for range sessions {
		openAndClose()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 3*time.Second, 50*time.Millisecond, "goroutines grew from %d after %d closed sessions", before, sessions)
}

func TestWSStreamPingsInterleaveWithEvents(t *testing.T) {
	hub := mentorship.NewHub(512)
	studentID, alumniID := bson.NewObjectID(), bson.NewObjectID()

	wsHandlers := NewWebSocketHandlers(hub, testutil.TestJWTSecret, 900)
	wsHandlers.pingInterval = time.Millisecond
	url := StartStreamServerWith(t, wsHandlers, studentID)

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	pings := make(chan struct{}, 1024)
	conn.SetPingHandler(func(string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return nil
	})

	require.Eventually(t, func() bool {
		subs, _ := hub.Stats()
		return subs == 1
	}, 2*time.Second, 10*time.Millisecond)

	const events = 300
	go func() {
		for range events {
			hub.Broadcast(context.Background(), mentorship.MessageEvent{
				Type:    mentorship.EventCreated,
				Message: &mentorship.Message{ID: bson.NewObjectID(), AlumniID: alumniID, StudentID: studentID},
			})
			time.Sleep(100 * time.Microsecond)
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for i := 0; i < events; i++ {
		var ev map[string]any
		require.NoError(t, conn.ReadJSON(&ev), "event %d", i)
		assert.Equal(t, "created", ev["type"])
	}
	assert.NotEmpty(t, pings, "keep-alive pings should arrive alongside events")

	_, dropped := hub.Stats()
	assert.Zero(t, dropped)
}

func TestBuildEventMessage(t *testing.T) {
	msg := &mentorship.Message{
		ID:        bson.NewObjectID(),
		AlumniID:  bson.NewObjectID(),
		StudentID: bson.NewObjectID(),
		Text:      "secret",
	}

	created := buildEventMessage(mentorship.MessageEvent{Type: mentorship.EventReacted, Message: msg})
	assert.Equal(t, mentorship.EventReacted, created["type"])
	assert.Same(t, msg, created["message"])

	deleted := buildEventMessage(mentorship.MessageEvent{Type: mentorship.EventDeleted, Message: msg})
	body, ok := deleted["message"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, body, "text")
	assert.Equal(t, msg.ID.Hex(), body["id"])
}
