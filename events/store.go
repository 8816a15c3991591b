package events

import (
	"context"
	"errors"
	"fmt"

	"capture/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the document-store boundary the gateway writes through.
// MongoStore is the production implementation.
type Store interface {
	Insert(ctx context.Context, event models.Event) error
	Merge(ctx context.Context, eventID string, fields bson.M) error
	Find(ctx context.Context, eventID string) (models.Event, error)
	ListByCreator(ctx context.Context, userID string) ([]models.Event, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Event, error)
	AddParticipant(ctx context.Context, eventID, userID string) error
}

type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Insert(ctx context.Context, event models.Event) error {
	if _, err := s.col.InsertOne(ctx, event.ToDoc()); err != nil {
		return fmt.Errorf("inserting event %s: %w", event.ID, err)
	}
	return nil
}

// Merge applies a partial-field $set; fields not present in the update are
// left untouched in the document.
func (s *MongoStore) Merge(ctx context.Context, eventID string, fields bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"id": eventID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("updating event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, eventID string) (models.Event, error) {
	var doc bson.M
	err := s.col.FindOne(ctx, bson.M{"id": eventID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Event{}, ErrNotFound
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("fetching event %s: %w", eventID, err)
	}
	return models.EventFromDoc(doc), nil
}

func (s *MongoStore) ListByCreator(ctx context.Context, userID string) ([]models.Event, error) {
	return s.list(ctx, bson.M{"creator_id": userID})
}

func (s *MongoStore) ListByParticipant(ctx context.Context, userID string) ([]models.Event, error) {
	return s.list(ctx, bson.M{"participants": userID})
}

func (s *MongoStore) list(ctx context.Context, filter bson.M) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	list := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		list = append(list, models.EventFromDoc(doc))
	}
	return list, nil
}

// AddParticipant is an idempotent set union; adding the same user twice
// leaves a single entry.
func (s *MongoStore) AddParticipant(ctx context.Context, eventID, userID string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"id": eventID},
		bson.M{"$addToSet": bson.M{"participants": userID}},
	)
	if err != nil {
		return fmt.Errorf("adding participant to event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
