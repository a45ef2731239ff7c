// Package execution implements the Execution Engine (§4.3) and the closed
// state machine governing one Execution (§4.4).
package execution

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
)

// Engine drives Executions from creation through to a terminal state.
type Engine struct {
	store   *repository.Store
	brokers broker.Registry
	hub     *notify.Hub
	log     zerolog.Logger

	signalLocksMu sync.Mutex
	signalLocks   map[uuid.UUID]*sync.Mutex
}

func NewEngine(store *repository.Store, brokers broker.Registry, hub *notify.Hub, log zerolog.Logger) *Engine {
	return &Engine{
		store:       store,
		brokers:     brokers,
		hub:         hub,
		log:         log.With().Str("component", "execution_engine").Logger(),
		signalLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockFor returns the per-Signal mutex serializing its status
// recomputation, per §5's ordering guarantees.
func (e *Engine) lockFor(signalID uuid.UUID) *sync.Mutex {
	e.signalLocksMu.Lock()
	defer e.signalLocksMu.Unlock()
	if _, ok := e.signalLocks[signalID]; !ok {
		e.signalLocks[signalID] = &sync.Mutex{}
	}
	return e.signalLocks[signalID]
}

// Invoke implements §4.3 top to bottom for one actionable Signal: fan-out,
// persist, then either run immediately (auto path) or stop at the approval
// gate, broadcasting signal_approval_required per Execution.
func (e *Engine) Invoke(ctx context.Context, signal domain.Signal, brokerID uuid.UUID) ([]domain.Execution, error) {
	prefs, err := e.store.Preferences.Get(signal.UserID)
	if err != nil {
		return nil, err
	}

	requiresApproval := prefs.ManualApproval
	executions := buildExecutions(signal, prefs, brokerID, requiresApproval)

	err = database.WithTransaction(e.store.DB().Conn(), func(tx *sql.Tx) error {
		for i := range executions {
			if err := e.store.Executions.CreateTx(tx, executions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if requiresApproval {
		for _, exec := range executions {
			e.hub.BroadcastToUser(exec.UserID, notify.Event{
				Type: notify.EventSignalApprovalNeeded,
				Data: map[string]any{"execution_id": exec.ID, "signal_id": exec.SignalID},
			})
		}
		return executions, nil
	}

	for i := range executions {
		e.runFrom(ctx, executions[i], signal.Extracted)
	}
	return executions, nil
}

// Confirm implements the approval-gate resume path: PENDING_APPROVAL →
// VALIDATED (with optional SL/TP overrides) → normal validate+execute flow.
func (e *Engine) Confirm(ctx context.Context, executionID uuid.UUID, slOverride, tpOverride *decimal.Decimal) error {
	exec, err := e.store.Executions.ByID(executionID)
	if err != nil {
		return err
	}
	if exec.State != domain.StatePendingApproval && exec.State != domain.StateFailed {
		return apperr.Validation("execution is not awaiting approval")
	}

	if slOverride != nil || tpOverride != nil {
		if err := e.store.Executions.ApplyOverrides(executionID, slOverride, tpOverride); err != nil {
			return err
		}
		if slOverride != nil {
			exec.PlannedSL = slOverride
		}
		if tpOverride != nil {
			exec.PlannedTP = tpOverride
		}
	}

	signal, err := e.store.Signals.ByID(exec.SignalID)
	if err != nil {
		return err
	}
	e.runFrom(ctx, *exec, signal.Extracted)
	return nil
}

// Cancel implements the approval-gate reject path.
func (e *Engine) Cancel(ctx context.Context, executionID uuid.UUID) error {
	if err := e.store.Executions.UpdateState(executionID, domain.StateCancelled); err != nil {
		return err
	}
	exec, err := e.store.Executions.ByID(executionID)
	if err != nil {
		return err
	}
	e.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventExecutionUpdate,
		Data: map[string]any{"execution_id": exec.ID, "status": domain.StateCancelled},
	})
	e.recomputeSignalStatus(exec.SignalID)
	return nil
}

// Close requests an immediate broker-side close of a live Execution,
// independent of the Synchronizer's periodic reconciliation.
func (e *Engine) Close(ctx context.Context, executionID uuid.UUID) error {
	exec, err := e.store.Executions.ByID(executionID)
	if err != nil {
		return err
	}
	if exec.State != domain.StateExecuted {
		return apperr.Validation("execution is not open")
	}

	adapter, err := e.brokers.Adapter(ctx, exec.BrokerID)
	if err != nil {
		return err
	}
	if exec.Ticket == nil {
		return apperr.Validation("execution has no broker ticket")
	}

	if err := adapter.ClosePosition(ctx, *exec.Ticket); err != nil {
		return apperr.Broker("close position failed", err)
	}

	deal, err := adapter.HistoryDeal(ctx, *exec.Ticket)
	if err != nil {
		return apperr.Broker("close confirmed but history deal lookup failed", err)
	}
	closeTime, err := time.Parse(time.RFC3339, deal.CloseTime)
	if err != nil {
		closeTime = time.Now()
	}

	if err := e.store.Executions.MarkClosed(executionID, deal.ClosePrice, deal.ProfitLoss, closeTime); err != nil {
		return err
	}
	e.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventPositionClosed,
		Data: map[string]any{"execution_id": executionID, "close_price": deal.ClosePrice, "profit_loss": deal.ProfitLoss},
	})
	e.recomputeSignalStatus(exec.SignalID)
	return nil
}

// Modify pushes new SL/TP levels for a live Execution to the broker and
// persists them once the broker confirms.
func (e *Engine) Modify(ctx context.Context, executionID uuid.UUID, sl, tp *decimal.Decimal) error {
	exec, err := e.store.Executions.ByID(executionID)
	if err != nil {
		return err
	}
	if exec.State != domain.StateExecuted {
		return apperr.Validation("execution is not open")
	}
	if exec.Ticket == nil {
		return apperr.Validation("execution has no broker ticket")
	}

	adapter, err := e.brokers.Adapter(ctx, exec.BrokerID)
	if err != nil {
		return err
	}
	if err := adapter.ModifyPosition(ctx, *exec.Ticket, sl, tp); err != nil {
		return apperr.Broker("modify position failed", err)
	}

	return e.store.Executions.ApplyOverrides(executionID, sl, tp)
}

// runFrom carries one Execution from its current pre-terminal state through
// validation and broker placement to a terminal state.
func (e *Engine) runFrom(ctx context.Context, exec domain.Execution, extracted domain.ExtractedSignal) {
	if err := validate(exec, extracted); err != nil {
		e.fail(exec, err.Error())
		return
	}

	if err := e.store.Executions.UpdateState(exec.ID, domain.StateValidated); err != nil {
		e.log.Error().Err(err).Msg("failed to persist VALIDATED state")
		return
	}
	if err := e.store.Executions.UpdateState(exec.ID, domain.StateExecuting); err != nil {
		e.log.Error().Err(err).Msg("failed to persist EXECUTING state")
		return
	}
	e.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventExecutionUpdate,
		Data: map[string]any{"execution_id": exec.ID, "status": domain.StateExecuting},
	})

	adapter, err := e.brokers.Adapter(ctx, exec.BrokerID)
	if err != nil {
		e.fail(exec, err.Error())
		return
	}

	result, err := e.place(ctx, adapter, &exec, extracted)
	if err != nil {
		e.fail(exec, err.Error())
		return
	}

	e.succeed(exec, result)
}

// place implements entry pricing, order placement, and the
// market-to-limit fallback of §4.3.
func (e *Engine) place(ctx context.Context, adapter broker.Adapter, exec *domain.Execution, extracted domain.ExtractedSignal) (broker.OrderResult, error) {
	prefs, err := e.store.Preferences.Get(exec.UserID)
	if err != nil {
		return broker.OrderResult{}, err
	}

	q, err := fetchQuote(ctx, adapter, exec.Symbol)
	if err != nil {
		return broker.OrderResult{}, err
	}

	plan := resolveEntryPricing(*exec, extracted, prefs, q)
	req := broker.OrderRequest{
		Symbol:     exec.Symbol,
		Side:       exec.Side,
		Volume:     exec.Volume,
		StopLoss:   exec.PlannedSL,
		TakeProfit: exec.PlannedTP,
	}

	if plan.useMarket {
		result, err := adapter.MarketOrder(ctx, req)
		if err == nil {
			return result, nil
		}
		if exec.PlannedEntry == nil {
			return broker.OrderResult{}, err
		}
		e.hub.BroadcastToUser(exec.UserID, notify.Event{
			Type: notify.EventExecutionUpdate,
			Data: map[string]any{"execution_id": exec.ID, "status": "falling_back"},
		})
		req.Price = exec.PlannedEntry
		return adapter.LimitOrder(ctx, req)
	}

	req.Price = plan.price
	return adapter.LimitOrder(ctx, req)
}

func (e *Engine) fail(exec domain.Execution, reason string) {
	if err := e.store.Executions.MarkFailed(exec.ID, reason); err != nil {
		e.log.Error().Err(err).Msg("failed to persist FAILED state")
	}
	e.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventExecutionUpdate,
		Data: map[string]any{"execution_id": exec.ID, "status": domain.StateFailed, "error": reason},
	})
	e.recomputeSignalStatus(exec.SignalID)
}

func (e *Engine) succeed(exec domain.Execution, result broker.OrderResult) {
	now := time.Now()
	if err := e.store.Executions.MarkExecuted(exec.ID, result.Ticket, result.FillPrice, now); err != nil {
		e.log.Error().Err(err).Msg("failed to persist EXECUTED state")
		return
	}
	e.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventExecutionUpdate,
		Data: map[string]any{"execution_id": exec.ID, "status": domain.StateExecuted, "ticket": result.Ticket},
	})
	e.recomputeSignalStatus(exec.SignalID)
}

// RecomputeSignalStatus is the exported entry point the Position
// Synchronizer uses after detecting a closure (§4.5 scenario 6), so closure
// detection outside the Engine still honors the per-Signal serialization
// rule of §5.
func (e *Engine) RecomputeSignalStatus(signalID uuid.UUID) {
	e.recomputeSignalStatus(signalID)
}

// recomputeSignalStatus implements §3's invariant and §5's per-Signal
// serialization requirement.
func (e *Engine) recomputeSignalStatus(signalID uuid.UUID) {
	lock := e.lockFor(signalID)
	lock.Lock()
	defer lock.Unlock()

	executions, err := e.store.Executions.ListBySignal(signalID)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to load executions for signal recomputation")
		return
	}

	allTerminal := true
	allCancelled := true
	anySettled := false
	for _, ex := range executions {
		if !ex.State.IsTerminal() {
			allTerminal = false
		}
		if ex.State != domain.StateCancelled {
			allCancelled = false
		}
		if ex.State == domain.StateExecuted || ex.State == domain.StateClosed {
			anySettled = true
		}
	}

	if !allTerminal {
		return
	}

	// Any non-CANCELLED terminal mix (FAILED+CANCELLED included) that never
	// settles an execution falls to rejected: domain.SignalStatus has no
	// distinct "failed" value, so a signal whose every execution died
	// without filling is indistinguishable from one that was all cancelled.
	status := domain.SignalRejected
	if anySettled && !allCancelled {
		status = domain.SignalProcessed
	}

	now := time.Now()
	if err := e.store.Signals.UpdateStatus(signalID, status, &now); err != nil {
		e.log.Error().Err(err).Msg("failed to persist signal status")
		return
	}

	signal, err := e.store.Signals.ByID(signalID)
	if err == nil {
		e.hub.BroadcastToUser(signal.UserID, notify.Event{
			Type: notify.EventSignalUpdate,
			Data: map[string]any{"signal_id": signalID, "status": status},
		})
	}
}
