package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/domain"
)

type brokerConfigRequest struct {
	Label    string `json:"label"`
	Login    string `json:"login"`
	Server   string `json:"server"`
	Password string `json:"password"`
}

func (a *API) handleListBrokerConfigs(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.store.BrokerAccount.ListByUser(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (a *API) handleCreateBrokerConfig(w http.ResponseWriter, r *http.Request) {
	var req brokerConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := userIDFrom(r)
	account := domain.BrokerAccount{
		ID:        uuid.New(),
		UserID:    userID,
		Label:     req.Label,
		Login:     req.Login,
		Server:    req.Server,
		CreatedAt: time.Now(),
	}
	if err := a.store.BrokerAccount.Create(account); err != nil {
		writeErr(w, err)
		return
	}

	if req.Password != "" {
		if err := a.vault.StoreCredential(userID, &account.ID, domain.CredentialPassword, req.Password); err != nil {
			writeErr(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, account)
}

func (a *API) handleDeleteBrokerConfig(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.store.BrokerAccount.Delete(id, userIDFrom(r)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type credentialRequest struct {
	BrokerID *uuid.UUID           `json:"broker_id"`
	Type     domain.CredentialType `json:"type"`
	Value    string               `json:"value"`
}

func (a *API) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := a.store.Credentials.ListByUser(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	// Ciphertext never leaves the vault; strip it before responding.
	type summary struct {
		ID       uuid.UUID             `json:"id"`
		BrokerID *uuid.UUID            `json:"broker_id"`
		Type     domain.CredentialType `json:"type"`
	}
	out := make([]summary, 0, len(creds))
	for _, c := range creds {
		out = append(out, summary{ID: c.ID, BrokerID: c.BrokerID, Type: c.Type})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleUpsertCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.vault.StoreCredential(userIDFrom(r), req.BrokerID, req.Type, req.Value); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.vault.Delete(id, userIDFrom(r)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
