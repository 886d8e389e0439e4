package mentorship

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"alumni-portal/internal/logger"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Subscriber represents a live connection that receives message events
type Subscriber struct {
	UserID bson.ObjectID
	Ch     chan MessageEvent
	Done   chan struct{}
}

// ConnInfo holds connection metadata
type ConnInfo struct {
	ID          ulid.ULID
	ConnectedAt time.Time
	Subscriber  *Subscriber
}

type userSubs struct {
	mu sync.RWMutex
	m  map[ulid.ULID]ConnInfo
}

// Hub fans message events out to the live connections of both participants.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[bson.ObjectID]*userSubs
	connIndex   map[ulid.ULID]bson.ObjectID
	bufferSize  int
	dropped     uint64
}

// NewHub creates a new event hub with configurable per-connection buffer size
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[bson.ObjectID]*userSubs),
		connIndex:   make(map[ulid.ULID]bson.ObjectID),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a connection for userID. The returned func unsubscribes it.
func (h *Hub) Subscribe(_ context.Context, connULID ulid.ULID, userID bson.ObjectID) (*Subscriber, func()) {
	if log := logger.L(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("subscribing connection", "conn_id", connULID.String(), "user_id", userID.Hex())
	}

	sub := &Subscriber{
		UserID: userID,
		Ch:     make(chan MessageEvent, h.bufferSize),
		Done:   make(chan struct{}),
	}

	h.mu.Lock()
	bucket, ok := h.subscribers[userID]
	if !ok {
		bucket = &userSubs{m: make(map[ulid.ULID]ConnInfo)}
		h.subscribers[userID] = bucket
	}
	h.connIndex[connULID] = userID
	bucket.mu.Lock()
	bucket.m[connULID] = ConnInfo{ID: connULID, ConnectedAt: time.Now(), Subscriber: sub}
	bucket.mu.Unlock()
	h.mu.Unlock()

	return sub, func() { h.Unsubscribe(context.Background(), connULID) }
}

// Unsubscribe removes a connection and closes its channels. Unknown ids are ignored.
func (h *Hub) Unsubscribe(_ context.Context, connULID ulid.ULID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	uid, ok := h.connIndex[connULID]
	if !ok {
		return
	}
	delete(h.connIndex, connULID)

	bucket := h.subscribers[uid]
	if bucket == nil {
		return
	}

	bucket.mu.Lock()
	info, exists := bucket.m[connULID]
	delete(bucket.m, connULID)
	empty := len(bucket.m) == 0
	bucket.mu.Unlock()

	if exists {
		close(info.Subscriber.Ch)
		close(info.Subscriber.Done)
	}
	if empty {
		delete(h.subscribers, uid)
	}
}

// Broadcast delivers ev to every connection of both participants of ev.Message.
// A full outbox drops the event for that connection only.
func (h *Hub) Broadcast(_ context.Context, ev MessageEvent) {
	if ev.Message == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range ev.Message.Participants() {
		bucket := h.subscribers[uid]
		if bucket == nil {
			continue
		}
		bucket.mu.RLock()
		for _, info := range bucket.m {
			sendOrDrop(info.Subscriber.Ch, ev, func() {
				atomic.AddUint64(&h.dropped, 1)
				logger.L().Warn("outbox full, dropping event", "conn_id", info.ID.String(), "user_id", uid.Hex(), "event_type", ev.Type)
			})
		}
		bucket.mu.RUnlock()
	}
}

func sendOrDrop(ch chan MessageEvent, ev MessageEvent, onDrop func()) {
	select {
	case ch <- ev:
	default:
		onDrop()
	}
}

// Stats returns the live connection count and total dropped events.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	h.mu.RLock()
	for _, bucket := range h.subscribers {
		bucket.mu.RLock()
		subscribers += len(bucket.m)
		bucket.mu.RUnlock()
	}
	h.mu.RUnlock()
	return subscribers, atomic.LoadUint64(&h.dropped)
}
