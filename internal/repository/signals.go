package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
)

// SignalRepository persists domain.Signal rows. The `extracted` column is the
// JSON encoding of domain.ExtractedSignal.
type SignalRepository struct {
	db *database.DB
}

// CreateTx inserts a signal as part of a caller-owned transaction, used by
// the Signal Recorder so the insert and its audit event commit atomically.
func (r *SignalRepository) CreateTx(tx *sql.Tx, s domain.Signal) error {
	extracted, err := json.Marshal(s.Extracted)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO signals (id, user_id, channel_id, received_at, raw_text, extracted, status, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), s.ChannelID.String(), s.ReceivedAt.Format(time.RFC3339),
		s.RawText, string(extracted), string(s.Status), nullTime(s.ProcessedAt),
	)
	return err
}

func (r *SignalRepository) ByID(id uuid.UUID) (*domain.Signal, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, channel_id, received_at, raw_text, extracted, status, processed_at FROM signals WHERE id = ?`,
		id.String(),
	)
	return r.scanOne(row)
}

func (r *SignalRepository) ListByUser(userID uuid.UUID) ([]domain.Signal, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, channel_id, received_at, raw_text, extracted, status, processed_at
		 FROM signals WHERE user_id = ? ORDER BY received_at DESC`,
		userID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Signal
	for rows.Next() {
		s, err := scanSignalRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateStatus applies the monotone status transition described in §3; it is
// the only mutation a Signal undergoes after creation.
func (r *SignalRepository) UpdateStatus(id uuid.UUID, status domain.SignalStatus, processedAt *time.Time) error {
	_, err := r.db.Exec(
		`UPDATE signals SET status = ?, processed_at = ? WHERE id = ?`,
		string(status), nullTime(processedAt), id.String(),
	)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSignalRow(row scannable) (*domain.Signal, error) {
	var s domain.Signal
	var id, userID, channelID, receivedAt, extracted, status string
	var processedAt sql.NullString
	if err := row.Scan(&id, &userID, &channelID, &receivedAt, &s.RawText, &extracted, &status, &processedAt); err != nil {
		return nil, err
	}
	s.ID = uuid.MustParse(id)
	s.UserID = uuid.MustParse(userID)
	s.ChannelID = uuid.MustParse(channelID)
	s.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)
	s.Status = domain.SignalStatus(status)
	if err := json.Unmarshal([]byte(extracted), &s.Extracted); err != nil {
		return nil, err
	}
	if processedAt.Valid {
		t, _ := time.Parse(time.RFC3339, processedAt.String)
		s.ProcessedAt = &t
	}
	return &s, nil
}

func (r *SignalRepository) scanOne(row *sql.Row) (*domain.Signal, error) {
	s, err := scanSignalRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("signal not found")
		}
		return nil, err
	}
	return s, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
