package mq

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Channel every event mutation is announced on. Live list subscriptions and
// websocket streams re-query when a message arrives.
const changesChannel = "event-changes"

// Change describes one mutation of the events collection.
type Change struct {
	Action  string `json:"action"`
	EventID string `json:"event_id"`
}

type Emitter struct {
	conn *redis.Client
}

func New(conn *redis.Client) *Emitter {
	return &Emitter{conn: conn}
}

// EventsChanged publishes a change notification. Delivery is best effort;
// a publish failure is logged and dropped, never surfaced to the mutation
// that triggered it.
func (e *Emitter) EventsChanged(ctx context.Context, action, eventID string) {
	data, err := json.Marshal(Change{Action: action, EventID: eventID})
	if err != nil {
		log.Printf("[mq] Failed to marshal change: %v", err)
		return
	}
	if err := e.conn.Publish(ctx, changesChannel, data).Err(); err != nil {
		log.Printf("[mq] Failed to publish change: %v", err)
	}
}

// Watch subscribes to change notifications. The returned stop function must
// be called to release the underlying subscription.
func (e *Emitter) Watch(ctx context.Context) (<-chan string, func()) {
	sub := e.conn.Subscribe(ctx, changesChannel)
	out := make(chan string)
	done := make(chan struct{})

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Printf("[mq] Failed to parse change: %v", err)
					continue
				}
				select {
				case out <- change.EventID:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				log.Printf("[mq] Failed to close subscription: %v", err)
			}
		})
	}
	return out, stop
}
