package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
)

// AuditRepository persists the append-only domain.AuditEvent log, grounded on
// the original source's AuditLogger (execution_state_manager.py).
type AuditRepository struct {
	db *database.DB
}

func (r *AuditRepository) CreateTx(tx *sql.Tx, e domain.AuditEvent) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO audit_events (id, user_id, action, resource_kind, resource_id, details, timestamp, client_addr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.Action, e.ResourceKind, e.ResourceID, string(details),
		e.Timestamp.Format(time.RFC3339), e.ClientAddr,
	)
	return err
}

func (r *AuditRepository) Create(e domain.AuditEvent) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(
		`INSERT INTO audit_events (id, user_id, action, resource_kind, resource_id, details, timestamp, client_addr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.Action, e.ResourceKind, e.ResourceID, string(details),
		e.Timestamp.Format(time.RFC3339), e.ClientAddr,
	)
	return err
}

func (r *AuditRepository) ListByUser(userID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, action, resource_kind, resource_id, details, timestamp, client_addr
		 FROM audit_events WHERE user_id = ? ORDER BY timestamp DESC LIMIT ?`,
		userID.String(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var id, userID, details, timestamp string
		if err := rows.Scan(&id, &userID, &e.Action, &e.ResourceKind, &e.ResourceID, &details, &timestamp, &e.ClientAddr); err != nil {
			return nil, err
		}
		e.ID = uuid.MustParse(id)
		e.UserID = uuid.MustParse(userID)
		e.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
