package events

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"capture/globals"
	"capture/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*API, *memStore) {
	t.Helper()
	gw := NewGateway(newMemStore(), &memBlobs{}, newMemNotifier(), ContextIdentity)
	return NewAPI(gw, "https://capture.test"), gw.store.(*memStore)
}

func withIdentity(r *http.Request, userID string) *http.Request {
	if userID == "" {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), globals.UserIDKey, userID))
}

// eventForm builds the multipart body CreateEvent and EditEvent expect: an
// "event" JSON field plus an optional "banner" file.
func eventForm(t *testing.T, payload string, banner []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("event", payload))
	if banner != nil {
		part, err := w.CreateFormFile("banner", "banner.png")
		require.NoError(t, err)
		_, err = part.Write(banner)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// pngStub is enough of a PNG for content sniffing to accept it.
func pngStub() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
}

func eventParams(id string) httprouter.Params {
	return httprouter.Params{{Key: "eventid", Value: id}}
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestCreateEventHandler(t *testing.T) {
	api, store := newTestAPI(t)

	body, ctype := eventForm(t, `{"event_name":"Launch Party","max_guests":25}`, pngStub())
	req := httptest.NewRequest(http.MethodPost, "/api/events/event", body)
	req.Header.Set("Content-Type", ctype)
	req = withIdentity(req, "alice")
	rec := httptest.NewRecorder()

	api.CreateEvent(rec, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Launch Party", created.EventName)
	assert.Equal(t, 25, created.MaxGuests)
	assert.Equal(t, "Take a Photo!", created.Title)
	assert.Equal(t, "alice", created.CreatorID)
	assert.NotEmpty(t, created.BackgroundImageURL)

	stored, err := store.Find(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.CreatorID)
	assert.Equal(t, created.BackgroundImageURL, stored.BackgroundImageURL)
}

func TestCreateEventUnauthenticated(t *testing.T) {
	api, _ := newTestAPI(t)

	body, ctype := eventForm(t, `{"event_name":"Launch Party"}`, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/events/event", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()

	api.CreateEvent(rec, req, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrUnauthenticated.Error(), errorBody(t, rec))
}

func TestCreateEventRejectsBadPayload(t *testing.T) {
	api, _ := newTestAPI(t)

	for name, payload := range map[string]string{
		"bad timing":   `{"reveal_photos_timing":"whenever"}`,
		"bad end date": `{"end_date":"tomorrow"}`,
		"zero quota":   `{"photos_per_person":0}`,
	} {
		body, ctype := eventForm(t, payload, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/events/event", body)
		req.Header.Set("Content-Type", ctype)
		req = withIdentity(req, "alice")
		rec := httptest.NewRecorder()

		api.CreateEvent(rec, req, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestCreateEventRejectsNonImageBanner(t *testing.T) {
	api, _ := newTestAPI(t)

	body, ctype := eventForm(t, `{"event_name":"Launch Party"}`, []byte("definitely not an image payload"))
	req := httptest.NewRequest(http.MethodPost, "/api/events/event", body)
	req.Header.Set("Content-Type", ctype)
	req = withIdentity(req, "alice")
	rec := httptest.NewRecorder()

	api.CreateEvent(rec, req, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "banner must be an image", errorBody(t, rec))
}

func TestEditEventHandler(t *testing.T) {
	api, store := newTestAPI(t)
	require.NoError(t, store.Insert(context.Background(), activeEvent("e1", "alice", time.Now().UTC())))

	body, ctype := eventForm(t, `{"title":"New Title","max_guests":40}`, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/events/event/e1", body)
	req.Header.Set("Content-Type", ctype)
	req = withIdentity(req, "alice")
	rec := httptest.NewRecorder()

	api.EditEvent(rec, req, eventParams("e1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, 40, updated.MaxGuests)
	assert.Equal(t, "alice", updated.CreatorID)
}

func TestEditEventForbidden(t *testing.T) {
	api, store := newTestAPI(t)
	require.NoError(t, store.Insert(context.Background(), activeEvent("e1", "alice", time.Now().UTC())))

	body, ctype := eventForm(t, `{"title":"Hijacked"}`, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/events/event/e1", body)
	req.Header.Set("Content-Type", ctype)
	req = withIdentity(req, "bob")
	rec := httptest.NewRecorder()

	api.EditEvent(rec, req, eventParams("e1"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, ErrUnauthorized.Error(), errorBody(t, rec))

	stored, err := store.Find(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Take a Photo!", stored.Title)
}

func TestGetEventHandler(t *testing.T) {
	api, store := newTestAPI(t)
	require.NoError(t, store.Insert(context.Background(), activeEvent("e1", "alice", time.Now().UTC())))

	rec := httptest.NewRecorder()
	api.GetEvent(rec, httptest.NewRequest(http.MethodGet, "/api/events/event/e1", nil), eventParams("e1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var event models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, "e1", event.ID)
}

func TestGetEventNotFound(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.GetEvent(rec, httptest.NewRequest(http.MethodGet, "/api/events/event/nope", nil), eventParams("nope"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinEventHandler(t *testing.T) {
	api, store := newTestAPI(t)
	require.NoError(t, store.Insert(context.Background(), activeEvent("e1", "alice", time.Now().UTC())))

	join := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/events/event/e1/join", nil)
		req = withIdentity(req, userID)
		rec := httptest.NewRecorder()
		api.JoinEvent(rec, req, eventParams("e1"))
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, join("").Code)

	require.Equal(t, http.StatusOK, join("guest").Code)
	require.Equal(t, http.StatusOK, join("guest").Code)

	stored, err := store.Find(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, []string{"guest"}, stored.Participants)
}

func TestJoinEndedEventConflict(t *testing.T) {
	api, store := newTestAPI(t)
	ended := activeEvent("e1", "alice", time.Now().UTC())
	ended.Status = models.EventStatusEnded
	require.NoError(t, store.Insert(context.Background(), ended))

	req := httptest.NewRequest(http.MethodPost, "/api/events/event/e1/join", nil)
	req = withIdentity(req, "guest")
	rec := httptest.NewRecorder()

	api.JoinEvent(rec, req, eventParams("e1"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "event has ended", errorBody(t, rec))

	stored, err := store.Find(context.Background(), "e1")
	require.NoError(t, err)
	assert.Empty(t, stored.Participants)
}

func TestEndEventHandler(t *testing.T) {
	api, store := newTestAPI(t)
	require.NoError(t, store.Insert(context.Background(), activeEvent("e1", "alice", time.Now().UTC())))

	req := httptest.NewRequest(http.MethodPost, "/api/events/event/e1/end", nil)
	req = withIdentity(req, "bob")
	rec := httptest.NewRecorder()
	api.EndEvent(rec, req, eventParams("e1"))
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/events/event/e1/end", nil)
	req = withIdentity(req, "alice")
	rec = httptest.NewRecorder()
	api.EndEvent(rec, req, eventParams("e1"))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.Find(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusEnded, stored.Status)
}

func TestGetHostedEventsHandler(t *testing.T) {
	api, store := newTestAPI(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(context.Background(), activeEvent("older", "alice", base)))
	require.NoError(t, store.Insert(context.Background(), activeEvent("newer", "alice", base.Add(time.Hour))))

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/events/hosted", nil), "alice")
	rec := httptest.NewRecorder()
	api.GetHostedEvents(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, "newer", body.Events[0].ID)
	assert.Equal(t, "older", body.Events[1].ID)
}

func TestGetParticipatingEventsUnauthenticated(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.GetParticipatingEvents(rec, httptest.NewRequest(http.MethodGet, "/api/events/participating", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Events)
}
