package events

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"capture/models"
	"capture/rdx"
	"capture/utils"

	"github.com/julienschmidt/httprouter"
)

const maxUploadBytes = 10 << 20

// API exposes the gateway over HTTP.
type API struct {
	gw      *Gateway
	baseURL string
}

func NewAPI(gw *Gateway, baseURL string) *API {
	return &API{gw: gw, baseURL: baseURL}
}

// eventPayload is the JSON carried in the "event" multipart field.
type eventPayload struct {
	EventName          *string `json:"event_name"`
	Title              *string `json:"title"`
	Subtitle           *string `json:"subtitle"`
	ButtonText         *string `json:"button_text"`
	EndDate            *string `json:"end_date"`
	RevealPhotosTiming *string `json:"reveal_photos_timing"`
	PhotosPerPerson    *int    `json:"photos_per_person"`
	MaxGuests          *int    `json:"max_guests"`
	GalleryAccess      *bool   `json:"gallery_access"`
}

// applyTo copies every provided field onto the coordinator's draft.
func (p eventPayload) applyTo(co *Coordinator) error {
	if p.EventName != nil {
		co.SetEventName(*p.EventName)
	}
	if p.Title != nil {
		co.SetTitle(*p.Title)
	}
	if p.Subtitle != nil {
		co.SetSubtitle(*p.Subtitle)
	}
	if p.ButtonText != nil {
		co.SetButtonText(*p.ButtonText)
	}
	if p.EndDate != nil && *p.EndDate != "" {
		parsed, err := time.Parse(time.RFC3339, *p.EndDate)
		if err != nil {
			return errors.New("invalid end_date, expected RFC3339")
		}
		co.SetEndDate(parsed.UTC())
	}
	if p.RevealPhotosTiming != nil {
		if !models.ValidRevealTiming(*p.RevealPhotosTiming) {
			return errors.New("invalid reveal_photos_timing")
		}
		co.SetRevealPhotosTiming(*p.RevealPhotosTiming)
	}
	if p.PhotosPerPerson != nil {
		if *p.PhotosPerPerson < 1 {
			return errors.New("photos_per_person must be positive")
		}
		co.SetPhotosPerPerson(*p.PhotosPerPerson)
	}
	if p.MaxGuests != nil {
		if *p.MaxGuests < 1 {
			return errors.New("max_guests must be positive")
		}
		co.SetMaxGuests(*p.MaxGuests)
	}
	if p.GalleryAccess != nil {
		co.SetGalleryAccess(*p.GalleryAccess)
	}
	return nil
}

// parseEventForm pulls the "event" JSON field and optional "banner" file out
// of a multipart request.
func parseEventForm(r *http.Request) (eventPayload, []byte, error) {
	var payload eventPayload
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return payload, nil, errors.New("unable to parse form")
	}
	raw := r.FormValue("event")
	if raw == "" {
		return payload, nil, errors.New("missing event data")
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, nil, errors.New("invalid event data")
	}

	file, _, err := r.FormFile("banner")
	if err != nil && err != http.ErrMissingFile {
		return payload, nil, errors.New("error retrieving banner file")
	}
	if file == nil {
		return payload, nil, nil
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return payload, nil, errors.New("error reading banner file")
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return payload, nil, errors.New("banner must be an image")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return payload, nil, errors.New("error reading banner file")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return payload, nil, errors.New("error reading banner file")
	}
	return payload, data, nil
}

// CreateEvent handles POST /api/events/event.
func (a *API) CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, banner, err := parseEventForm(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	co := NewCoordinator(a.gw)
	defer co.Close()
	if err := payload.applyTo(co); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if banner != nil {
		co.StageImage(banner)
	}

	co.CommitCreate(r.Context())
	state := co.Wait(r.Context())
	if state.Phase != CommitSucceeded {
		respondCommitError(w, state, co.CommitErr())
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, co.CreatedEvent())
}

// EditEvent handles PUT /api/events/event/:eventid.
func (a *API) EditEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	payload, banner, err := parseEventForm(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	baseline, err := a.gw.Get(r.Context(), eventID)
	if err != nil {
		respondGatewayError(w, err)
		return
	}

	co := NewCoordinator(a.gw)
	defer co.Close()
	co.LoadEvent(baseline)
	if err := payload.applyTo(co); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if banner != nil {
		co.StageImage(banner)
	}

	if err := co.CommitUpdate(r.Context(), eventID); err != nil {
		respondGatewayError(w, err)
		return
	}
	state := co.Wait(r.Context())
	if state.Phase != CommitSucceeded {
		respondCommitError(w, state, co.CommitErr())
		return
	}

	rdx.InvalidateEvent(r.Context(), eventID)
	updated, err := a.gw.Get(r.Context(), eventID)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// GetEvent handles GET /api/events/event/:eventid, serving from the redis
// cache when possible.
func (a *API) GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	if event, ok := rdx.GetCachedEvent(r.Context(), eventID); ok {
		utils.RespondWithJSON(w, http.StatusOK, event)
		return
	}

	event, err := a.gw.Get(r.Context(), eventID)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	rdx.SetCachedEvent(r.Context(), event)
	utils.RespondWithJSON(w, http.StatusOK, event)
}

// JoinEvent handles POST /api/events/event/:eventid/join.
func (a *API) JoinEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	uid := utils.GetUserIDFromRequest(r)
	if uid == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
		return
	}

	event, err := a.gw.Get(r.Context(), eventID)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	if event.Status != models.EventStatusActive {
		utils.RespondWithError(w, http.StatusConflict, "event has ended")
		return
	}

	if err := a.gw.AddParticipant(r.Context(), eventID, uid); err != nil {
		respondGatewayError(w, err)
		return
	}
	rdx.InvalidateEvent(r.Context(), eventID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"joined": eventID})
}

// EndEvent handles POST /api/events/event/:eventid/end.
func (a *API) EndEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")
	if err := a.gw.EndEvent(r.Context(), eventID); err != nil {
		respondGatewayError(w, err)
		return
	}
	rdx.InvalidateEvent(r.Context(), eventID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ended": eventID})
}

// GetHostedEvents handles GET /api/events/hosted: one snapshot of the live
// hosted list.
func (a *API) GetHostedEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.respondListSnapshot(w, r, a.gw.ListHosted(r.Context()))
}

// GetParticipatingEvents handles GET /api/events/participating.
func (a *API) GetParticipatingEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a.respondListSnapshot(w, r, a.gw.ListParticipating(r.Context()))
}

func (a *API) respondListSnapshot(w http.ResponseWriter, r *http.Request, sub *ListSubscription) {
	defer sub.Cancel()
	select {
	case list := <-sub.Events():
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"events": list})
	case <-r.Context().Done():
		utils.RespondWithError(w, http.StatusRequestTimeout, "request cancelled")
	}
}

func respondCommitError(w http.ResponseWriter, state CommitState, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		utils.RespondWithError(w, http.StatusUnauthorized, state.Message)
	case errors.Is(err, ErrUnauthorized):
		utils.RespondWithError(w, http.StatusForbidden, state.Message)
	default:
		log.Printf("Commit failed: %s", state.Message)
		utils.RespondWithError(w, http.StatusInternalServerError, state.Message)
	}
}

func respondGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrUnauthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("Gateway error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
	}
}
