package events

import "errors"

var (
	// ErrUnauthenticated is returned when no caller identity is present.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrUnauthorized is returned when the caller is not the event's owner.
	ErrUnauthorized = errors.New("not the event owner")
	// ErrNotFound is returned when no document exists for the requested ID.
	ErrNotFound = errors.New("event not found")
	// ErrNoLoadedEvent is returned by CommitUpdate when no baseline event
	// has been loaded into the coordinator.
	ErrNoLoadedEvent = errors.New("no event loaded")
)
