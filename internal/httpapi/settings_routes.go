package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/domain"
)

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := a.store.Preferences.Get(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *API) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := decodeJSON(r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prefs.UserID = userIDFrom(r)
	if err := a.store.Preferences.Upsert(prefs); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *API) handleAccountInfo(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("broker_config_id")
	brokerID, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "broker_config_id is required")
		return
	}

	account, err := a.store.BrokerAccount.ByID(brokerID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if account.UserID != userIDFrom(r) {
		writeError(w, http.StatusNotFound, "broker account not found")
		return
	}

	adapter, err := a.brokers.Adapter(r.Context(), brokerID)
	if err != nil {
		writeErr(w, err)
		return
	}
	info, err := adapter.AccountInfo(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
