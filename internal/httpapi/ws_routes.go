package httpapi

import "net/http"

func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	a.hub.HandleWebSocket(w, r, userIDFrom(r))
}
