package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"capture/models"

	"go.mongodb.org/mongo-driver/bson"
)

// memStore is an in-memory Store with the same contract as MongoStore.
type memStore struct {
	mu      sync.Mutex
	docs    map[string]bson.M
	listErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]bson.M{}}
}

func (s *memStore) Insert(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[event.ID] = event.ToDoc()
	return nil
}

func (s *memStore) Merge(_ context.Context, eventID string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[eventID]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *memStore) Find(_ context.Context, eventID string) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[eventID]
	if !ok {
		return models.Event{}, ErrNotFound
	}
	return models.EventFromDoc(doc), nil
}

func (s *memStore) ListByCreator(_ context.Context, userID string) ([]models.Event, error) {
	return s.list(func(e models.Event) bool { return e.CreatorID == userID })
}

func (s *memStore) ListByParticipant(_ context.Context, userID string) ([]models.Event, error) {
	return s.list(func(e models.Event) bool {
		for _, p := range e.Participants {
			if p == userID {
				return true
			}
		}
		return false
	})
}

func (s *memStore) list(match func(models.Event) bool) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Event{}
	for _, doc := range s.docs {
		if e := models.EventFromDoc(doc); match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memStore) AddParticipant(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[eventID]
	if !ok {
		return ErrNotFound
	}
	event := models.EventFromDoc(doc)
	for _, p := range event.Participants {
		if p == userID {
			return nil
		}
	}
	doc["participants"] = append(event.Participants, userID)
	return nil
}

// memNotifier broadcasts change signals in process.
type memNotifier struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

func newMemNotifier() *memNotifier {
	return &memNotifier{subs: map[chan string]struct{}{}}
}

func (n *memNotifier) EventsChanged(_ context.Context, _, eventID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- eventID:
		default:
		}
	}
}

func (n *memNotifier) Watch(_ context.Context) (<-chan string, func()) {
	ch := make(chan string, 8)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop
}

// memBlobs hands back a distinguishable fresh URL per upload.
type memBlobs struct {
	mu      sync.Mutex
	uploads []string
}

func (b *memBlobs) SaveEventImage(_ context.Context, eventID string, _ []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	url := fmt.Sprintf("https://cdn.test/eventpic/%s_%d.jpg", eventID, len(b.uploads))
	b.uploads = append(b.uploads, url)
	return url, nil
}
