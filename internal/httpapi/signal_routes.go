package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleListSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := a.store.Signals.ListByUser(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func (a *API) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	signal, err := a.store.Signals.ByID(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if signal.UserID != userIDFrom(r) {
		writeError(w, http.StatusNotFound, "signal not found")
		return
	}
	writeJSON(w, http.StatusOK, signal)
}
