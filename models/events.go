package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const EventsCollectionName = "events"

// Event lifecycle states. The only transition is active -> ended.
const (
	EventStatusActive = "active"
	EventStatusEnded  = "ended"
)

// Photo reveal timing options the app offers when configuring an event.
const (
	RevealImmediately = "Immediately"
	RevealAfter1h     = "1 hour after"
	RevealAfter12h    = "12 hours after"
	RevealAfter24h    = "24 hours after"
	RevealAfter48h    = "48 hours after"
)

var RevealTimings = []string{
	RevealImmediately,
	RevealAfter1h,
	RevealAfter12h,
	RevealAfter24h,
	RevealAfter48h,
}

func ValidRevealTiming(timing string) bool {
	for _, t := range RevealTimings {
		if t == timing {
			return true
		}
	}
	return false
}

// Defaults applied when a document is missing optional fields.
const (
	DefaultPhotosPerPerson = 10
	DefaultMaxGuests       = 10
)

type Event struct {
	ID                 string     `json:"id" bson:"id"`
	EventName          string     `json:"event_name" bson:"event_name"`
	Title              string     `json:"title" bson:"title"`
	Subtitle           string     `json:"subtitle" bson:"subtitle"`
	ButtonText         string     `json:"button_text" bson:"button_text"`
	BackgroundImageURL string     `json:"background_image_url" bson:"background_image_url"`
	CreatorID          string     `json:"creator_id" bson:"creator_id"`
	Status             string     `json:"status" bson:"status"`
	EndDate            *time.Time `json:"end_date" bson:"end_date"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	RevealPhotosTiming string     `json:"reveal_photos_timing" bson:"reveal_photos_timing"`
	PhotosPerPerson    int        `json:"photos_per_person" bson:"photos_per_person"`
	MaxGuests          int        `json:"max_guests" bson:"max_guests"`
	GalleryAccess      bool       `json:"gallery_access" bson:"gallery_access"`
	Participants       []string   `json:"participants" bson:"participants"`
}

// ToDoc flattens the event into its persisted document form.
func (e Event) ToDoc() bson.M {
	participants := e.Participants
	if participants == nil {
		participants = []string{}
	}
	doc := bson.M{
		"id":                   e.ID,
		"event_name":           e.EventName,
		"title":                e.Title,
		"subtitle":             e.Subtitle,
		"button_text":          e.ButtonText,
		"background_image_url": e.BackgroundImageURL,
		"creator_id":           e.CreatorID,
		"status":               e.Status,
		"created_at":           e.CreatedAt.UTC(),
		"reveal_photos_timing": e.RevealPhotosTiming,
		"photos_per_person":    e.PhotosPerPerson,
		"max_guests":           e.MaxGuests,
		"gallery_access":       e.GalleryAccess,
		"participants":         participants,
	}
	if e.EndDate != nil {
		doc["end_date"] = e.EndDate.UTC()
	} else {
		doc["end_date"] = nil
	}
	return doc
}

// EventFromDoc rebuilds an event from a stored document, filling defaults
// for any optional field the document is missing.
func EventFromDoc(doc bson.M) Event {
	return Event{
		ID:                 docString(doc, "id", ""),
		EventName:          docString(doc, "event_name", ""),
		Title:              docString(doc, "title", ""),
		Subtitle:           docString(doc, "subtitle", ""),
		ButtonText:         docString(doc, "button_text", ""),
		BackgroundImageURL: docString(doc, "background_image_url", ""),
		CreatorID:          docString(doc, "creator_id", ""),
		Status:             docString(doc, "status", EventStatusActive),
		EndDate:            docTimePtr(doc, "end_date"),
		CreatedAt:          docTime(doc, "created_at", time.Now().UTC()),
		RevealPhotosTiming: docString(doc, "reveal_photos_timing", RevealImmediately),
		PhotosPerPerson:    docInt(doc, "photos_per_person", DefaultPhotosPerPerson),
		MaxGuests:          docInt(doc, "max_guests", DefaultMaxGuests),
		GalleryAccess:      docBool(doc, "gallery_access", true),
		Participants:       docStringSlice(doc, "participants"),
	}
}

func docString(doc bson.M, key, fallback string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return fallback
}

func docInt(doc bson.M, key string, fallback int) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func docBool(doc bson.M, key string, fallback bool) bool {
	if b, ok := doc[key].(bool); ok {
		return b
	}
	return fallback
}

func docTime(doc bson.M, key string, fallback time.Time) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time().UTC()
	}
	return fallback
}

func docTimePtr(doc bson.M, key string) *time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		t := v
		return &t
	case primitive.DateTime:
		t := v.Time().UTC()
		return &t
	}
	return nil
}

func docStringSlice(doc bson.M, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return v
	case primitive.A:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
