package events

import (
	"context"
	"log"
	"sync"

	"capture/models"
)

// Notifier announces event mutations and lets subscriptions watch for them.
// The redis-backed implementation lives in the mq package.
type Notifier interface {
	EventsChanged(ctx context.Context, action, eventID string)
	Watch(ctx context.Context) (<-chan string, func())
}

// ListSubscription is a live view over one event query. It delivers an
// initial snapshot, then a fresh snapshot after every change notification,
// until Cancel is called. The channel always holds at most the latest
// snapshot; a slow reader only ever misses intermediate states.
type ListSubscription struct {
	events chan []models.Event
	once   sync.Once
	stop   func()
	done   chan struct{}
}

// Events yields list snapshots, most recent creation first. The channel is
// closed after Cancel.
func (s *ListSubscription) Events() <-chan []models.Event {
	return s.events
}

// Cancel tears the subscription down. Idempotent.
func (s *ListSubscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		if s.stop != nil {
			s.stop()
		}
	})
}

func newListSubscription(ctx context.Context, notifier Notifier, query func(context.Context) ([]models.Event, error)) *ListSubscription {
	sub := &ListSubscription{
		events: make(chan []models.Event, 1),
		done:   make(chan struct{}),
	}
	signals, stop := notifier.Watch(ctx)
	sub.stop = stop

	go func() {
		defer close(sub.events)
		sub.deliver(ctx, query)
		for {
			select {
			case <-sub.done:
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				sub.deliver(ctx, query)
			}
		}
	}()
	return sub
}

// deliver runs the query and replaces any pending snapshot with the result.
// Query failures degrade to an empty list so list views stay usable.
func (s *ListSubscription) deliver(ctx context.Context, query func(context.Context) ([]models.Event, error)) {
	list, err := query(ctx)
	if err != nil {
		log.Printf("Error fetching event list: %v", err)
		list = []models.Event{}
	}
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- list:
	case <-s.done:
	}
}

// emptyListSubscription delivers a single empty snapshot and no updates;
// used for unauthenticated callers.
func emptyListSubscription() *ListSubscription {
	sub := &ListSubscription{
		events: make(chan []models.Event, 1),
		done:   make(chan struct{}),
	}
	sub.events <- []models.Event{}
	go func() {
		<-sub.done
		close(sub.events)
	}()
	return sub
}
