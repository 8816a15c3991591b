package events

import (
	"context"
	"sync"
	"time"

	"capture/models"

	"github.com/google/uuid"
)

// EventGateway is the slice of Gateway the coordinator drives. Kept as an
// interface so commit sequencing can be exercised against stubs.
type EventGateway interface {
	Create(ctx context.Context, event models.Event, media []byte) (models.Event, error)
	UploadImage(ctx context.Context, eventID string, media []byte) (string, error)
	Update(ctx context.Context, event models.Event) error
	ListHosted(ctx context.Context) *ListSubscription
	ListParticipating(ctx context.Context) *ListSubscription
}

// Coordinator owns the draft for one event being created or edited and
// drives the two-step commit (optional image upload, then document write).
// One coordinator per editing session; it is safe to call from multiple
// goroutines, but overlapping commits are rejected while one is in flight.
type Coordinator struct {
	gw EventGateway

	mu         sync.Mutex
	state      CommitState
	commitErr  error
	commitDone chan struct{}
	loaded     *models.Event
	created    *models.Event

	// Draft fields. Defaults mirror a fresh create screen.
	eventName          string
	title              string
	subtitle           string
	buttonText         string
	endDate            time.Time
	revealPhotosTiming string
	photosPerPerson    int
	maxGuests          int
	galleryAccess      bool
	stagedImage        []byte
	existingImageURL   string

	hosted        *ListSubscription
	participating *ListSubscription
}

func NewCoordinator(gw EventGateway) *Coordinator {
	return &Coordinator{
		gw:                 gw,
		state:              StateIdle,
		eventName:          "My Event",
		title:              "Take a Photo!",
		buttonText:         "Take Photos",
		endDate:            time.Now().AddDate(0, 0, 7),
		revealPhotosTiming: models.RevealImmediately,
		photosPerPerson:    models.DefaultPhotosPerPerson,
		maxGuests:          models.DefaultMaxGuests,
		galleryAccess:      true,
	}
}

// --- Draft setters: pure in-memory mutation, callable in any state. ---

func (c *Coordinator) SetEventName(name string) { c.set(func() { c.eventName = name }) }
func (c *Coordinator) SetTitle(title string)    { c.set(func() { c.title = title }) }
func (c *Coordinator) SetSubtitle(sub string)   { c.set(func() { c.subtitle = sub }) }
func (c *Coordinator) SetButtonText(text string) {
	c.set(func() { c.buttonText = text })
}
func (c *Coordinator) SetEndDate(date time.Time) { c.set(func() { c.endDate = date }) }
func (c *Coordinator) SetRevealPhotosTiming(timing string) {
	c.set(func() { c.revealPhotosTiming = timing })
}
func (c *Coordinator) SetPhotosPerPerson(count int) {
	c.set(func() { c.photosPerPerson = count })
}
func (c *Coordinator) SetMaxGuests(count int) { c.set(func() { c.maxGuests = count }) }
func (c *Coordinator) SetGalleryAccess(enabled bool) {
	c.set(func() { c.galleryAccess = enabled })
}

// StageImage holds a new background image to be uploaded on the next commit.
func (c *Coordinator) StageImage(data []byte) { c.set(func() { c.stagedImage = data }) }

func (c *Coordinator) set(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// LoadEvent resets the draft to mirror a previously persisted event and
// returns the progress signal to idle. Used when entering edit mode.
func (c *Coordinator) LoadEvent(event models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := event
	c.loaded = &ev
	c.eventName = event.EventName
	c.title = event.Title
	c.subtitle = event.Subtitle
	c.buttonText = event.ButtonText
	c.existingImageURL = event.BackgroundImageURL
	if event.EndDate != nil {
		c.endDate = *event.EndDate
	}
	c.revealPhotosTiming = event.RevealPhotosTiming
	c.photosPerPerson = event.PhotosPerPerson
	c.maxGuests = event.MaxGuests
	c.galleryAccess = event.GalleryAccess
	c.stagedImage = nil
	c.state = StateIdle
	c.commitErr = nil
}

// State returns the current progress signal.
func (c *Coordinator) State() CommitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CreatedEvent returns the event persisted by the last successful
// CommitCreate, if any.
func (c *Coordinator) CreatedEvent() *models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created
}

// CommitErr returns the error behind the last failed commit, so callers can
// match it against the gateway sentinels. Nil unless State is a failure.
func (c *Coordinator) CommitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commitErr
}

// Wait blocks until the in-flight commit resolves (or ctx is done) and
// returns the resulting state.
func (c *Coordinator) Wait(ctx context.Context) CommitState {
	c.mu.Lock()
	done := c.commitDone
	c.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return c.State()
}

// draftEvent materializes the draft into an event value. Caller holds c.mu.
func (c *Coordinator) draftEvent(id, imageURL string) models.Event {
	endDate := c.endDate
	return models.Event{
		ID:                 id,
		EventName:          c.eventName,
		Title:              c.title,
		Subtitle:           c.subtitle,
		ButtonText:         c.buttonText,
		BackgroundImageURL: imageURL,
		Status:             models.EventStatusActive,
		EndDate:            &endDate,
		CreatedAt:          time.Now().UTC(),
		RevealPhotosTiming: c.revealPhotosTiming,
		PhotosPerPerson:    c.photosPerPerson,
		MaxGuests:          c.maxGuests,
		GalleryAccess:      c.galleryAccess,
		Participants:       []string{},
	}
}

// CommitCreate materializes the draft into a fresh event and persists it
// through the gateway. The signal moves to loading before this returns;
// resolution happens on a background goroutine. A commit attempted while
// another is in flight is ignored.
func (c *Coordinator) CommitCreate(ctx context.Context) {
	c.mu.Lock()
	if c.state.Phase == CommitLoading {
		c.mu.Unlock()
		return
	}
	c.state = StateLoading
	done := make(chan struct{})
	c.commitDone = done
	event := c.draftEvent(uuid.New().String(), "")
	media := c.stagedImage
	c.mu.Unlock()

	go func() {
		defer close(done)
		persisted, err := c.gw.Create(ctx, event, media)
		if err != nil {
			c.fail(err)
			return
		}
		c.mu.Lock()
		c.state = StateSuccess
		c.commitErr = nil
		c.created = &persisted
		c.mu.Unlock()
		c.LoadEvents(ctx)
	}()
}

// CommitUpdate merge-writes the draft over the loaded event. If a new image
// was staged it is uploaded first, and the write carries its fresh URL;
// otherwise the previously persisted URL is kept. Returns ErrNoLoadedEvent
// (leaving the signal untouched) when no baseline was loaded.
func (c *Coordinator) CommitUpdate(ctx context.Context, eventID string) error {
	c.mu.Lock()
	if c.state.Phase == CommitLoading {
		c.mu.Unlock()
		return nil
	}
	if c.loaded == nil {
		c.mu.Unlock()
		return ErrNoLoadedEvent
	}
	c.state = StateLoading
	done := make(chan struct{})
	c.commitDone = done
	baseline := *c.loaded
	event := c.draftEvent(eventID, c.existingImageURL)
	event.CreatorID = baseline.CreatorID
	event.Status = baseline.Status
	event.CreatedAt = baseline.CreatedAt
	media := c.stagedImage
	c.mu.Unlock()

	go func() {
		defer close(done)
		if len(media) > 0 {
			url, err := c.gw.UploadImage(ctx, eventID, media)
			if err != nil {
				c.fail(err)
				return
			}
			event.BackgroundImageURL = url
		}
		if err := c.gw.Update(ctx, event); err != nil {
			c.fail(err)
			return
		}
		c.mu.Lock()
		c.state = StateSuccess
		c.commitErr = nil
		c.mu.Unlock()
		c.LoadEvents(ctx)
	}()
	return nil
}

func (c *Coordinator) fail(err error) {
	c.mu.Lock()
	c.state = StateError(err.Error())
	c.commitErr = err
	c.mu.Unlock()
}

// LoadEvents refreshes the hosted and participating live lists. The
// previous subscriptions are cancelled first, so repeated calls replace
// rather than accumulate them.
func (c *Coordinator) LoadEvents(ctx context.Context) {
	c.mu.Lock()
	oldHosted, oldParticipating := c.hosted, c.participating
	c.mu.Unlock()
	if oldHosted != nil {
		oldHosted.Cancel()
	}
	if oldParticipating != nil {
		oldParticipating.Cancel()
	}
	hosted := c.gw.ListHosted(ctx)
	participating := c.gw.ListParticipating(ctx)
	c.mu.Lock()
	c.hosted = hosted
	c.participating = participating
	c.mu.Unlock()
}

// HostedEvents returns the live hosted-list channel, or nil before the
// first LoadEvents.
func (c *Coordinator) HostedEvents() <-chan []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hosted == nil {
		return nil
	}
	return c.hosted.Events()
}

// ParticipatingEvents returns the live participating-list channel, or nil
// before the first LoadEvents.
func (c *Coordinator) ParticipatingEvents() <-chan []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.participating == nil {
		return nil
	}
	return c.participating.Events()
}

// Close cancels any live subscriptions the coordinator holds.
func (c *Coordinator) Close() {
	c.mu.Lock()
	hosted, participating := c.hosted, c.participating
	c.hosted, c.participating = nil, nil
	c.mu.Unlock()
	if hosted != nil {
		hosted.Cancel()
	}
	if participating != nil {
		participating.Cancel()
	}
}
