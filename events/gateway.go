package events

import (
	"context"
	"fmt"
	"time"

	"capture/globals"
	"capture/models"
	"capture/storage"

	"go.mongodb.org/mongo-driver/bson"
)

// Identity resolves the caller's user ID from a request context.
// An empty string means unauthenticated.
type Identity func(ctx context.Context) string

// ContextIdentity reads the user ID the auth middleware stored on the context.
func ContextIdentity(ctx context.Context) string {
	uid, _ := ctx.Value(globals.UserIDKey).(string)
	return uid
}

// Gateway is the sole boundary between event entities and the remote
// document and blob stores. Every mutating call re-checks identity and
// ownership; nothing above it touches the stores directly.
type Gateway struct {
	store    Store
	blobs    storage.BlobStore
	notifier Notifier
	identity Identity
}

func NewGateway(store Store, blobs storage.BlobStore, notifier Notifier, identity Identity) *Gateway {
	return &Gateway{store: store, blobs: blobs, notifier: notifier, identity: identity}
}

// Create persists a new event. When media is present it is uploaded first
// and the resolved URL written into the document, so the insert never
// carries a stale or missing image reference. The caller's identity always
// overwrites whatever creator ID the input carried.
func (g *Gateway) Create(ctx context.Context, event models.Event, media []byte) (models.Event, error) {
	uid := g.identity(ctx)
	if uid == "" {
		return models.Event{}, ErrUnauthenticated
	}

	if len(media) > 0 {
		url, err := g.UploadImage(ctx, event.ID, media)
		if err != nil {
			return models.Event{}, err
		}
		event.BackgroundImageURL = url
	}

	event.CreatorID = uid
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Participants == nil {
		event.Participants = []string{}
	}

	if err := g.store.Insert(ctx, event); err != nil {
		return models.Event{}, err
	}
	g.notifier.EventsChanged(ctx, "created", event.ID)
	return event, nil
}

// UploadImage stores the media payload and returns its public URL.
func (g *Gateway) UploadImage(ctx context.Context, eventID string, media []byte) (string, error) {
	return g.blobs.SaveEventImage(ctx, eventID, media)
}

// editableFields is the merge set Update writes. Identity fields (id,
// creator_id, created_at) and the participants set are never part of an
// update.
func editableFields(event models.Event) bson.M {
	fields := bson.M{
		"event_name":           event.EventName,
		"title":                event.Title,
		"subtitle":             event.Subtitle,
		"button_text":          event.ButtonText,
		"background_image_url": event.BackgroundImageURL,
		"reveal_photos_timing": event.RevealPhotosTiming,
		"photos_per_person":    event.PhotosPerPerson,
		"max_guests":           event.MaxGuests,
		"gallery_access":       event.GalleryAccess,
	}
	if event.EndDate != nil {
		fields["end_date"] = event.EndDate.UTC()
	} else {
		fields["end_date"] = nil
	}
	return fields
}

// Update merge-writes the event's editable fields. Only the owner may call
// it; the caller is responsible for supplying the complete desired field
// set, since no diffing happens here.
func (g *Gateway) Update(ctx context.Context, event models.Event) error {
	uid := g.identity(ctx)
	if uid == "" {
		return ErrUnauthenticated
	}
	if event.CreatorID != uid {
		return ErrUnauthorized
	}

	if err := g.store.Merge(ctx, event.ID, editableFields(event)); err != nil {
		return err
	}
	g.notifier.EventsChanged(ctx, "updated", event.ID)
	return nil
}

func (g *Gateway) Get(ctx context.Context, eventID string) (models.Event, error) {
	return g.store.Find(ctx, eventID)
}

// ListHosted is a live view of events the caller created, most recent
// first. Unauthenticated callers get a single empty snapshot.
func (g *Gateway) ListHosted(ctx context.Context) *ListSubscription {
	uid := g.identity(ctx)
	if uid == "" {
		return emptyListSubscription()
	}
	return newListSubscription(ctx, g.notifier, func(ctx context.Context) ([]models.Event, error) {
		return g.store.ListByCreator(ctx, uid)
	})
}

// ListParticipating is a live view of events the caller joined.
func (g *Gateway) ListParticipating(ctx context.Context) *ListSubscription {
	uid := g.identity(ctx)
	if uid == "" {
		return emptyListSubscription()
	}
	return newListSubscription(ctx, g.notifier, func(ctx context.Context) ([]models.Event, error) {
		return g.store.ListByParticipant(ctx, uid)
	})
}

// AddParticipant records a guest on the event. Set-union semantics: joining
// twice is a no-op.
func (g *Gateway) AddParticipant(ctx context.Context, eventID, userID string) error {
	if err := g.store.AddParticipant(ctx, eventID, userID); err != nil {
		return err
	}
	g.notifier.EventsChanged(ctx, "joined", eventID)
	return nil
}

// EndEvent flips the event's status to ended. Owner only; there is no way
// back to active.
func (g *Gateway) EndEvent(ctx context.Context, eventID string) error {
	uid := g.identity(ctx)
	if uid == "" {
		return ErrUnauthenticated
	}
	event, err := g.store.Find(ctx, eventID)
	if err != nil {
		return err
	}
	if event.CreatorID != uid {
		return ErrUnauthorized
	}
	if err := g.store.Merge(ctx, eventID, bson.M{"status": models.EventStatusEnded}); err != nil {
		return fmt.Errorf("ending event: %w", err)
	}
	g.notifier.EventsChanged(ctx, "ended", eventID)
	return nil
}
