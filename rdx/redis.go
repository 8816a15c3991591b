package rdx

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"capture/models"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

const eventCacheTTL = 10 * time.Minute

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func eventCacheKey(eventID string) string {
	return "event:" + eventID
}

// GetCachedEvent returns the cached copy of an event, if one exists.
func GetCachedEvent(ctx context.Context, eventID string) (models.Event, bool) {
	raw, err := Conn.Get(ctx, eventCacheKey(eventID)).Result()
	if err != nil {
		return models.Event{}, false
	}
	var event models.Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		log.Printf("Dropping corrupt event cache entry %s: %v", eventID, err)
		Conn.Del(ctx, eventCacheKey(eventID))
		return models.Event{}, false
	}
	return event, true
}

func SetCachedEvent(ctx context.Context, event models.Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := Conn.Set(ctx, eventCacheKey(event.ID), raw, eventCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache event %s: %v", event.ID, err)
	}
}

func InvalidateEvent(ctx context.Context, eventID string) {
	if err := Conn.Del(ctx, eventCacheKey(eventID)).Err(); err != nil {
		log.Printf("Failed to invalidate event cache %s: %v", eventID, err)
	}
}
