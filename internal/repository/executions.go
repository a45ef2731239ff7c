package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
)

// ExecutionRepository persists domain.Execution rows and enforces the state
// machine's single-writer-per-row discipline (§5): every mutation is a
// targeted UPDATE, never a blind overwrite of the full row.
type ExecutionRepository struct {
	db *database.DB
}

// CreateTx inserts an execution as part of a caller-owned transaction (used
// by the Execution Engine's fan-out, §4.3).
func (r *ExecutionRepository) CreateTx(tx *sql.Tx, e domain.Execution) error {
	_, err := tx.Exec(
		`INSERT INTO executions (
			id, user_id, signal_id, broker_id, symbol, side, volume,
			planned_entry, planned_sl, planned_tp,
			actual_entry, actual_entry_at, close_price, close_time,
			profit_loss, price_current, ticket, state, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.SignalID.String(), e.BrokerID.String(), e.Symbol, string(e.Side), e.Volume.String(),
		nullDecimal(e.PlannedEntry), nullDecimal(e.PlannedSL), nullDecimal(e.PlannedTP),
		nullDecimal(e.ActualEntry), nullTime(e.ActualEntryAt), nullDecimal(e.ClosePrice), nullTime(e.CloseTime),
		nullDecimal(e.ProfitLoss), nullDecimal(e.PriceCurrent), nullInt64(e.Ticket), string(e.State), e.Error,
		e.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func (r *ExecutionRepository) ByID(id uuid.UUID) (*domain.Execution, error) {
	return r.scanOne(r.db.QueryRow(selectExecutionSQL+` WHERE id = ?`, id.String()))
}

func (r *ExecutionRepository) ListByUser(userID uuid.UUID) ([]domain.Execution, error) {
	rows, err := r.db.Query(selectExecutionSQL+` WHERE user_id = ? ORDER BY created_at DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExecutionRows(rows)
}

// ListBySignal returns every sibling Execution of a Signal, used for
// signal-status recomputation (§4.3).
func (r *ExecutionRepository) ListBySignal(signalID uuid.UUID) ([]domain.Execution, error) {
	rows, err := r.db.Query(selectExecutionSQL+` WHERE signal_id = ?`, signalID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExecutionRows(rows)
}

// ListByState is used by the Position Synchronizer to find every live
// Execution (§4.5).
func (r *ExecutionRepository) ListByState(state domain.ExecutionState) ([]domain.Execution, error) {
	rows, err := r.db.Query(selectExecutionSQL+` WHERE state = ?`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExecutionRows(rows)
}

// UpdateState performs a bare state transition.
func (r *ExecutionRepository) UpdateState(id uuid.UUID, state domain.ExecutionState) error {
	_, err := r.db.Exec(`UPDATE executions SET state = ? WHERE id = ?`, string(state), id.String())
	return err
}

// MarkFailed transitions to FAILED and records the error string (§4.3 validation rule).
func (r *ExecutionRepository) MarkFailed(id uuid.UUID, reason string) error {
	_, err := r.db.Exec(`UPDATE executions SET state = ?, error = ? WHERE id = ?`, string(domain.StateFailed), reason, id.String())
	return err
}

// MarkExecuted records the broker's successful fill (§4.3 "Success bookkeeping").
func (r *ExecutionRepository) MarkExecuted(id uuid.UUID, ticket int64, actualEntry decimal.Decimal, at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE executions SET state = ?, ticket = ?, actual_entry = ?, actual_entry_at = ? WHERE id = ?`,
		string(domain.StateExecuted), ticket, actualEntry.String(), at.Format(time.RFC3339), id.String(),
	)
	return err
}

// MarkClosed records a Synchronizer-detected or explicit close (§4.5).
func (r *ExecutionRepository) MarkClosed(id uuid.UUID, closePrice, profitLoss decimal.Decimal, closeTime time.Time) error {
	_, err := r.db.Exec(
		`UPDATE executions SET state = ?, close_price = ?, profit_loss = ?, close_time = ? WHERE id = ?`,
		string(domain.StateClosed), closePrice.String(), profitLoss.String(), closeTime.Format(time.RFC3339), id.String(),
	)
	return err
}

// UpdatePosition refreshes the live P&L/price snapshot for an open ticket (§4.5).
func (r *ExecutionRepository) UpdatePosition(id uuid.UUID, profitLoss, priceCurrent decimal.Decimal) error {
	_, err := r.db.Exec(
		`UPDATE executions SET profit_loss = ?, price_current = ? WHERE id = ?`,
		profitLoss.String(), priceCurrent.String(), id.String(),
	)
	return err
}

// ApplyOverrides updates the planned SL/TP when a PENDING_APPROVAL execution
// is confirmed with overrides (§4.3 approval gate).
func (r *ExecutionRepository) ApplyOverrides(id uuid.UUID, sl, tp *decimal.Decimal) error {
	_, err := r.db.Exec(`UPDATE executions SET planned_sl = ?, planned_tp = ? WHERE id = ?`, nullDecimal(sl), nullDecimal(tp), id.String())
	return err
}

const selectExecutionSQL = `SELECT
	id, user_id, signal_id, broker_id, symbol, side, volume,
	planned_entry, planned_sl, planned_tp,
	actual_entry, actual_entry_at, close_price, close_time,
	profit_loss, price_current, ticket, state, error, created_at
	FROM executions`

func scanExecutionRows(rows *sql.Rows) ([]domain.Execution, error) {
	var out []domain.Execution
	for rows.Next() {
		e, err := scanExecutionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanExecutionRow(row scannable) (*domain.Execution, error) {
	var e domain.Execution
	var id, userID, signalID, brokerID, side, volume, state, createdAt string
	var plannedEntry, plannedSL, plannedTP, actualEntry, closePrice, profitLoss, priceCurrent sql.NullString
	var actualEntryAt, closeTime sql.NullString
	var ticket sql.NullInt64
	var errStr sql.NullString

	if err := row.Scan(
		&id, &userID, &signalID, &brokerID, &e.Symbol, &side, &volume,
		&plannedEntry, &plannedSL, &plannedTP,
		&actualEntry, &actualEntryAt, &closePrice, &closeTime,
		&profitLoss, &priceCurrent, &ticket, &state, &errStr, &createdAt,
	); err != nil {
		return nil, err
	}

	e.ID = uuid.MustParse(id)
	e.UserID = uuid.MustParse(userID)
	e.SignalID = uuid.MustParse(signalID)
	e.BrokerID = uuid.MustParse(brokerID)
	e.Side = domain.Side(side)
	e.State = domain.ExecutionState(state)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	vol, err := decimal.NewFromString(volume)
	if err != nil {
		return nil, err
	}
	e.Volume = vol

	var derr error
	if e.PlannedEntry, derr = scanNullDecimal(plannedEntry); derr != nil {
		return nil, derr
	}
	if e.PlannedSL, derr = scanNullDecimal(plannedSL); derr != nil {
		return nil, derr
	}
	if e.PlannedTP, derr = scanNullDecimal(plannedTP); derr != nil {
		return nil, derr
	}
	if e.ActualEntry, derr = scanNullDecimal(actualEntry); derr != nil {
		return nil, derr
	}
	if e.ClosePrice, derr = scanNullDecimal(closePrice); derr != nil {
		return nil, derr
	}
	if e.ProfitLoss, derr = scanNullDecimal(profitLoss); derr != nil {
		return nil, derr
	}
	if e.PriceCurrent, derr = scanNullDecimal(priceCurrent); derr != nil {
		return nil, derr
	}
	e.Ticket = scanNullInt64(ticket)

	if actualEntryAt.Valid {
		t, _ := time.Parse(time.RFC3339, actualEntryAt.String)
		e.ActualEntryAt = &t
	}
	if closeTime.Valid {
		t, _ := time.Parse(time.RFC3339, closeTime.String)
		e.CloseTime = &t
	}
	if errStr.Valid {
		e.Error = &errStr.String
	}

	return &e, nil
}

func (r *ExecutionRepository) scanOne(row *sql.Row) (*domain.Execution, error) {
	e, err := scanExecutionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("execution not found")
		}
		return nil, err
	}
	return e, nil
}
