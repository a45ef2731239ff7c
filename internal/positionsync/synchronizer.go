// Package positionsync implements the Position Synchronizer (§4.5): a
// periodic reconciliation loop between open Executions and the broker's
// live position/history views.
package positionsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/domain"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
)

// DefaultInterval is the synchronizer's default tick cadence.
const DefaultInterval = 5 * time.Second

// SignalStatusRecomputer lets the Synchronizer trigger the Engine's
// per-Signal status recomputation after a closure, without importing the
// execution package's full surface.
type SignalStatusRecomputer interface {
	RecomputeSignalStatus(signalID uuid.UUID)
}

// Synchronizer reconciles every EXECUTED Execution against the broker's
// open-position and history views once per tick.
type Synchronizer struct {
	store     *repository.Store
	brokers   broker.Registry
	hub       *notify.Hub
	recompute SignalStatusRecomputer
	log       zerolog.Logger
}

func New(store *repository.Store, brokers broker.Registry, hub *notify.Hub, recompute SignalStatusRecomputer, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		store:     store,
		brokers:   brokers,
		hub:       hub,
		recompute: recompute,
		log:       log.With().Str("component", "position_synchronizer").Logger(),
	}
}

// Name satisfies scheduler.Job.
func (s *Synchronizer) Name() string { return "position_synchronizer" }

// Run executes one tick. It never returns an error upward — per §4.5, a
// failed tick is logged and the next tick simply continues.
func (s *Synchronizer) Run() error {
	ctx := context.Background()

	executions, err := s.store.Executions.ListByState(domain.StateExecuted)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list executed positions")
		return nil
	}

	for brokerID, group := range groupByBroker(executions) {
		s.syncGroup(ctx, brokerID, group)
	}
	return nil
}

func groupByBroker(executions []domain.Execution) map[uuid.UUID][]domain.Execution {
	groups := make(map[uuid.UUID][]domain.Execution)
	for _, e := range executions {
		groups[e.BrokerID] = append(groups[e.BrokerID], e)
	}
	return groups
}

func (s *Synchronizer) syncGroup(ctx context.Context, brokerID uuid.UUID, group []domain.Execution) {
	adapter, err := s.brokers.Adapter(ctx, brokerID)
	if err != nil {
		s.log.Error().Err(err).Str("broker_id", brokerID.String()).Msg("failed to resolve broker adapter")
		return
	}

	positions, err := adapter.ListPositions(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("broker_id", brokerID.String()).Msg("failed to list positions")
		return
	}

	open := make(map[int64]broker.Position, len(positions))
	for _, p := range positions {
		open[p.Ticket] = p
	}

	for _, exec := range group {
		if exec.Ticket == nil {
			continue
		}
		if pos, ok := open[*exec.Ticket]; ok {
			s.updateOpen(exec, pos)
			continue
		}
		s.resolveClosure(ctx, adapter, exec)
	}
}

func (s *Synchronizer) updateOpen(exec domain.Execution, pos broker.Position) {
	if err := s.store.Executions.UpdatePosition(exec.ID, pos.ProfitLoss, pos.PriceCurrent); err != nil {
		s.log.Error().Err(err).Str("execution_id", exec.ID.String()).Msg("failed to persist position update")
		return
	}
	s.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventPositionUpdate,
		Data: map[string]any{
			"execution_id":  exec.ID,
			"profit_loss":   pos.ProfitLoss,
			"price_current": pos.PriceCurrent,
		},
	})
}

func (s *Synchronizer) resolveClosure(ctx context.Context, adapter broker.Adapter, exec domain.Execution) {
	deal, err := adapter.HistoryDeal(ctx, *exec.Ticket)
	if err != nil {
		// No closing deal yet — assumed transient per §4.5; do nothing.
		return
	}

	closeTime, err := time.Parse(time.RFC3339, deal.CloseTime)
	if err != nil {
		closeTime = time.Now()
	}

	if err := s.store.Executions.MarkClosed(exec.ID, deal.ClosePrice, deal.ProfitLoss, closeTime); err != nil {
		s.log.Error().Err(err).Str("execution_id", exec.ID.String()).Msg("failed to persist closure")
		return
	}
	s.hub.BroadcastToUser(exec.UserID, notify.Event{
		Type: notify.EventPositionClosed,
		Data: map[string]any{
			"execution_id": exec.ID,
			"close_price":  deal.ClosePrice,
			"profit_loss":  deal.ProfitLoss,
		},
	})
	s.recompute.RecomputeSignalStatus(exec.SignalID)
}
