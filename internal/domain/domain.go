// Package domain holds the entities and closed enumerations shared across the
// signal pipeline. IDs are the only cross-entity links; nothing here carries a
// back-pointer to its owner.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is a closed enumeration of trade directions.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MessageCategory is the top-level classification of an incoming chat message.
type MessageCategory string

const (
	CategoryActionableSignal MessageCategory = "actionable_signal"
	CategoryModification     MessageCategory = "modification"
	CategoryCommentary       MessageCategory = "commentary"
)

// ModificationType enumerates the sub-kinds of MessageCategory=modification.
type ModificationType string

const (
	ModificationBreakevenMove    ModificationType = "breakeven_move"
	ModificationCancellation     ModificationType = "cancellation"
	ModificationPartialClose     ModificationType = "partial_close"
	ModificationStopAdjustment   ModificationType = "stop_adjustment"
	ModificationTargetAdjustment ModificationType = "target_adjustment"
)

// SignalStatus is the monotone lifecycle of a Signal row.
type SignalStatus string

const (
	SignalPending   SignalStatus = "pending"
	SignalProcessed SignalStatus = "processed"
	SignalRejected  SignalStatus = "rejected"
)

// ExecutionState is the closed state machine driving one Execution. See
// SPEC_FULL.md §4.4 for the transition table.
type ExecutionState string

const (
	StatePending          ExecutionState = "PENDING"
	StatePendingApproval  ExecutionState = "PENDING_APPROVAL"
	StateValidated        ExecutionState = "VALIDATED"
	StateExecuting        ExecutionState = "EXECUTING"
	StateExecuted         ExecutionState = "EXECUTED"
	StateClosed           ExecutionState = "CLOSED"
	StateFailed           ExecutionState = "FAILED"
	StateCancelled        ExecutionState = "CANCELLED"
)

// IsTerminal reports whether state never transitions further on its own (a
// FAILED execution may still be replayed via an explicit confirm, see §4.4).
func (s ExecutionState) IsTerminal() bool {
	switch s {
	case StateExecuted, StateClosed, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// User is the root of ownership for every other entity.
type User struct {
	ID          uuid.UUID
	Email       string
	Username    string
	PasswordHash string
	Active      bool
	CreatedAt   time.Time
}

// BrokerAccount holds the non-secret half of a broker session; transport
// credentials live in the Credential Vault, keyed by (user, broker).
type BrokerAccount struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Label     string
	Login     string
	Server    string
	CreatedAt time.Time
}

// CredentialType is a closed enumeration of secret kinds stored in the Vault.
type CredentialType string

const (
	CredentialPassword CredentialType = "password"
	CredentialAPIKey   CredentialType = "api_key"
)

// Credential is a single encrypted secret, unique per (user, broker, type).
type Credential struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	BrokerID   *uuid.UUID
	Type       CredentialType
	Ciphertext []byte
	UpdatedAt  time.Time
}

// ChannelSubscription ties one external chat channel to one user.
type ChannelSubscription struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ChannelID  int64
	Label      string
	Active     bool
	CreatedAt  time.Time
}

// ExtractedSignal is the Classifier & Extractor's output shape (§2, §4.1).
type ExtractedSignal struct {
	Category         MessageCategory
	ModificationType *ModificationType
	Symbol           *string
	Side             *Side
	Entry            *decimal.Decimal
	EntryRangeLow    *decimal.Decimal
	EntryRangeHigh   *decimal.Decimal
	StopLoss         *decimal.Decimal
	TakeProfits      []decimal.Decimal
	Confidence       float64
	LLMAssisted      bool
	LLMReasoning     string
}

// Actionable reports whether the extraction qualifies for execution (§4.1 rule 3).
func (e ExtractedSignal) Actionable() bool {
	if e.Category != CategoryActionableSignal {
		return false
	}
	if e.Symbol == nil {
		return false
	}
	hasEntry := e.Entry != nil || (e.EntryRangeLow != nil && e.EntryRangeHigh != nil)
	hasExit := e.StopLoss != nil || len(e.TakeProfits) > 0
	return hasEntry && hasExit
}

// Signal is the persisted, immutable (except for status) record of one
// incoming message.
type Signal struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ChannelID    uuid.UUID
	ReceivedAt   time.Time
	RawText      string
	Extracted    ExtractedSignal
	Status       SignalStatus
	ProcessedAt  *time.Time
}

// Execution is one concrete order attempt at a broker for one take-profit
// target of a Signal.
type Execution struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	SignalID      uuid.UUID
	BrokerID      uuid.UUID
	Symbol        string
	Side          Side
	Volume        decimal.Decimal
	PlannedEntry  *decimal.Decimal
	PlannedSL     *decimal.Decimal
	PlannedTP     *decimal.Decimal
	ActualEntry   *decimal.Decimal
	ActualEntryAt *time.Time
	ClosePrice    *decimal.Decimal
	CloseTime     *time.Time
	ProfitLoss    *decimal.Decimal
	PriceCurrent  *decimal.Decimal
	Ticket        *int64
	State         ExecutionState
	Error         *string
	CreatedAt     time.Time
}

// Preferences are per-user execution policy settings, materialized with
// defaults on first read.
type Preferences struct {
	UserID             uuid.UUID
	ManualApproval     bool
	RiskPerTrade       decimal.Decimal
	MaxSlippagePips    decimal.Decimal
	UseLimitOrders     bool
	DefaultSLPips      decimal.Decimal
	MaxOpenPositions   int
}

// DefaultPreferences materializes the defaults referenced in §3.
func DefaultPreferences(userID uuid.UUID) Preferences {
	return Preferences{
		UserID:           userID,
		ManualApproval:   true,
		RiskPerTrade:     decimal.NewFromFloat(0.01),
		MaxSlippagePips:  decimal.NewFromInt(20),
		UseLimitOrders:   false,
		DefaultSLPips:    decimal.NewFromInt(50),
		MaxOpenPositions: 10,
	}
}

// AuditEvent is an append-only record of one pipeline action.
type AuditEvent struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Action       string
	ResourceKind string
	ResourceID   string
	Details      map[string]any
	Timestamp    time.Time
	ClientAddr   string
}

// Subscriber is an external forwarding target for human-readable rebroadcasts.
type Subscriber struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ExternalAddress string
	Label           string
	Active          bool
}
