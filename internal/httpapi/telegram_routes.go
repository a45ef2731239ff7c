package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/domain"
)

type channelRequest struct {
	ChannelID int64  `json:"channel_id"`
	Label     string `json:"label"`
}

func (a *API) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := a.store.Channels.ListByUser(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (a *API) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	channel := domain.ChannelSubscription{
		ID:        uuid.New(),
		UserID:    userIDFrom(r),
		ChannelID: req.ChannelID,
		Label:     req.Label,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := a.store.Channels.Create(channel); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (a *API) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.store.Channels.Delete(id, userIDFrom(r)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type subscriberRequest struct {
	ExternalAddress string `json:"external_address"`
	Label           string `json:"label"`
}

func (a *API) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := a.store.Subscribers.ListActiveByUser(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (a *API) handleCreateSubscriber(w http.ResponseWriter, r *http.Request) {
	var req subscriberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub := domain.Subscriber{
		ID:              uuid.New(),
		UserID:          userIDFrom(r),
		ExternalAddress: req.ExternalAddress,
		Label:           req.Label,
		Active:          true,
	}
	if err := a.store.Subscribers.Create(sub); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (a *API) handleDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.store.Subscribers.Delete(id, userIDFrom(r)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
