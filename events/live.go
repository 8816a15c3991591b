package events

import (
	"context"
	"log"
	"net/http"
	"time"

	"capture/globals"
	"capture/middleware"
	"capture/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// listUpdate is one frame pushed to a live-list client.
type listUpdate struct {
	Kind   string         `json:"kind"` // "hosted" or "participating"
	Events []models.Event `json:"events"`
}

// LiveEvents handles GET /api/events/live. It upgrades to a WebSocket and
// pushes fresh hosted and participating snapshots whenever the underlying
// store changes, until the client disconnects. Browser clients cannot set
// an Authorization header on a WebSocket, so the token rides in the query
// string.
func (a *API) LiveEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := middleware.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithValue(r.Context(), globals.UserIDKey, claims.UserID))
	defer cancel()

	co := NewCoordinator(a.gw)
	defer co.Close()
	co.LoadEvents(ctx)
	hosted := co.HostedEvents()
	participating := co.ParticipatingEvents()

	// Reader goroutine: we never expect client frames, but reading is how
	// close and ping/pong get processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		var update listUpdate
		select {
		case <-ctx.Done():
			return
		case list, ok := <-hosted:
			if !ok {
				return
			}
			update = listUpdate{Kind: "hosted", Events: list}
		case list, ok := <-participating:
			if !ok {
				return
			}
			update = listUpdate{Kind: "participating", Events: list}
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(update); err != nil {
			log.Printf("WebSocket write failed: %v", err)
			return
		}
	}
}
