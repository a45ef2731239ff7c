package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/domain"
)

func (a *API) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := a.store.Executions.ListByUser(userIDFrom(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, executions)
}

func (a *API) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	exec, ok := a.ownedExecution(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

type createExecutionRequest struct {
	SignalID       uuid.UUID `json:"signal_id"`
	BrokerConfigID uuid.UUID `json:"broker_config_id"`
}

func (a *API) handleCreateExecution(w http.ResponseWriter, r *http.Request) {
	var req createExecutionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signal, err := a.store.Signals.ByID(req.SignalID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if signal.UserID != userIDFrom(r) {
		writeError(w, http.StatusNotFound, "signal not found")
		return
	}

	executions, err := a.engine.Invoke(r.Context(), *signal, req.BrokerConfigID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, executions)
}

type confirmRequest struct {
	StopLoss   *decimal.Decimal `json:"stop_loss"`
	TakeProfit *decimal.Decimal `json:"take_profit"`
}

func (a *API) handleConfirmExecution(w http.ResponseWriter, r *http.Request) {
	exec, ok := a.ownedExecution(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := a.engine.Confirm(r.Context(), exec.ID, req.StopLoss, req.TakeProfit); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	exec, ok := a.ownedExecution(w, r)
	if !ok {
		return
	}
	if err := a.engine.Cancel(r.Context(), exec.ID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCloseExecution(w http.ResponseWriter, r *http.Request) {
	exec, ok := a.ownedExecution(w, r)
	if !ok {
		return
	}
	if err := a.engine.Close(r.Context(), exec.ID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleModifyExecution(w http.ResponseWriter, r *http.Request) {
	exec, ok := a.ownedExecution(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.engine.Modify(r.Context(), exec.ID, req.StopLoss, req.TakeProfit); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedExecution resolves the {id} path param and rejects cross-user access,
// writing the response itself on failure.
func (a *API) ownedExecution(w http.ResponseWriter, r *http.Request) (*domain.Execution, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	exec, err := a.store.Executions.ByID(id)
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	if exec.UserID != userIDFrom(r) {
		writeError(w, http.StatusNotFound, "execution not found")
		return nil, false
	}
	return exec, true
}
