package mentorship

import (
	"context"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// pairs subscribes one connection per side of n mentorship pairs.
func pairs(b *testing.B, hub *Hub, n int) []*Message {
	b.Helper()

	msgs := make([]*Message, n)
	for i := range n {
		m := &Message{ID: bson.NewObjectID(), AlumniID: bson.NewObjectID(), StudentID: bson.NewObjectID(), Text: "bench"}
		for _, uid := range m.Participants() {
			_, cancel := hub.Subscribe(context.Background(), newConnID(), uid)
			b.Cleanup(cancel)
		}
		msgs[i] = m
	}
	return msgs
}

func BenchmarkHub_SubscribeUnsubscribe(b *testing.B) {
	hub := NewHub(256)
	userID := bson.NewObjectID()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, cancel := hub.Subscribe(context.Background(), newConnID(), userID)
		cancel()
	}
}

// Outboxes fill after 256 events; the remaining sends measure the drop path.
func BenchmarkHub_Broadcast(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("pairs_%d", n), func(b *testing.B) {
			hub := NewHub(256)
			msgs := pairs(b, hub, n)

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					hub.Broadcast(context.Background(), MessageEvent{Type: EventCreated, Message: msgs[i%len(msgs)]})
					i++
				}
			})
		})
	}
}

func BenchmarkHub_MixedWorkload(b *testing.B) {
	hub := NewHub(256)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m := &Message{ID: bson.NewObjectID(), AlumniID: bson.NewObjectID(), StudentID: bson.NewObjectID()}
			_, cancel := hub.Subscribe(context.Background(), newConnID(), m.StudentID)
			hub.Broadcast(context.Background(), MessageEvent{Type: EventReacted, Message: m})
			cancel()
		}
	})
}
