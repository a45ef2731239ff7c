// Package signalrecorder implements the Signal Recorder (§4.2): the entry
// point from the Message Source into persistence, the Notification Hub, and
// the Execution Engine.
package signalrecorder

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
	"github.com/signalbridge/platform/internal/signalparser"
)

// Invoker is the subset of the Execution Engine the Recorder depends on.
// Modeled as an interface to avoid a circular import with internal/execution.
type Invoker interface {
	Invoke(ctx context.Context, signal domain.Signal, brokerID uuid.UUID) ([]domain.Execution, error)
}

// Recorder persists incoming channel posts and drives them downstream.
type Recorder struct {
	store  *repository.Store
	hub    *notify.Hub
	engine Invoker
	sender notify.MessageSender
	log    zerolog.Logger
}

func New(store *repository.Store, hub *notify.Hub, engine Invoker, sender notify.MessageSender, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		hub:    hub,
		engine: engine,
		sender: sender,
		log:    log.With().Str("component", "signal_recorder").Logger(),
	}
}

// Record implements §4.2 top to bottom for one incoming channel post.
func (r *Recorder) Record(ctx context.Context, externalChannelID int64, userID uuid.UUID, rawText string, receivedAt time.Time) {
	subscription, err := r.store.Channels.ByExternalChannel(externalChannelID, userID)
	if err != nil {
		r.log.Warn().Int64("channel_id", externalChannelID).Err(err).Msg("no active subscription for channel, dropping message")
		return
	}

	extracted := signalparser.Parse(rawText)
	signal := domain.Signal{
		ID:         uuid.New(),
		UserID:     userID,
		ChannelID:  subscription.ID,
		ReceivedAt: receivedAt,
		RawText:    rawText,
		Extracted:  extracted,
		Status:     domain.SignalPending,
	}

	action := "signal_received"
	if !extracted.Actionable() {
		action = "telegram_message"
	}

	err = database.WithTransaction(r.store.DB().Conn(), func(tx *sql.Tx) error {
		if err := r.store.Signals.CreateTx(tx, signal); err != nil {
			return err
		}
		return r.store.Audit.CreateTx(tx, domain.AuditEvent{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceKind: "signal",
			ResourceID:   signal.ID.String(),
			Details:      map[string]any{"category": extracted.Category},
			Timestamp:    receivedAt,
		})
	})
	if err != nil {
		r.log.Error().Err(err).Msg("failed to persist signal, dropping downstream emission")
		return
	}

	eventType := notify.EventSignalReceived
	if action == "telegram_message" {
		eventType = notify.EventTelegramMessage
	}
	r.hub.BroadcastToUser(userID, notify.Event{
		Type: eventType,
		Data: map[string]any{"signal_id": signal.ID, "raw_text": rawText, "category": extracted.Category},
	})

	if !extracted.Actionable() {
		return
	}

	r.forwardToSubscribers(userID, extracted)

	accounts, err := r.store.BrokerAccount.ListByUser(userID)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to load broker accounts for fan-out")
		return
	}
	for _, account := range accounts {
		if _, err := r.engine.Invoke(ctx, signal, account.ID); err != nil {
			r.log.Error().Err(err).Str("broker_account_id", account.ID.String()).Msg("execution engine invocation failed")
		}
	}
}

// forwardToSubscribers implements §4.7's subscriber rebroadcast: every active
// Subscriber for this user receives the reformatted signal through the
// Message Source's send API.
func (r *Recorder) forwardToSubscribers(userID uuid.UUID, extracted domain.ExtractedSignal) {
	if r.sender == nil || extracted.Symbol == nil {
		return
	}
	subscribers, err := r.store.Subscribers.ListActiveByUser(userID)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to load subscribers for forward")
		return
	}
	if len(subscribers) == 0 {
		return
	}
	text := notify.FormatSignal(*extracted.Symbol, extracted)
	for _, err := range notify.ForwardToSubscribers(r.sender, subscribers, text) {
		r.log.Warn().Err(err).Msg("failed to forward signal to subscriber")
	}
}
