package httpapi

import "net/http"

func (a *API) handleSystemStart(w http.ResponseWriter, r *http.Request) {
	if err := a.system.Start(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSystemStop(w http.ResponseWriter, r *http.Request) {
	if err := a.system.Stop(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": a.system.Status()})
}
