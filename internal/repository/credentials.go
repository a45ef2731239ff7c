package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/apperr"
	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
)

// CredentialRepository persists encrypted domain.Credential rows, upserted
// in place under the (user, broker, type) key (§3).
type CredentialRepository struct {
	db *database.DB
}

// Upsert inserts or replaces the credential for (user, broker, type).
func (r *CredentialRepository) Upsert(c domain.Credential) error {
	var brokerID any
	if c.BrokerID != nil {
		brokerID = c.BrokerID.String()
	}
	_, err := r.db.Exec(
		`INSERT INTO credentials (id, user_id, broker_id, type, ciphertext, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, broker_id, type) DO UPDATE SET
		   ciphertext = excluded.ciphertext, updated_at = excluded.updated_at`,
		c.ID.String(), c.UserID.String(), brokerID, string(c.Type), c.Ciphertext, c.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

func (r *CredentialRepository) Delete(id, userID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM credentials WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

// Get fetches a single credential by (user, broker, type).
func (r *CredentialRepository) Get(userID uuid.UUID, brokerID *uuid.UUID, credType domain.CredentialType) (*domain.Credential, error) {
	var row *sql.Row
	if brokerID != nil {
		row = r.db.QueryRow(
			`SELECT id, user_id, broker_id, type, ciphertext, updated_at FROM credentials
			 WHERE user_id = ? AND broker_id = ? AND type = ?`,
			userID.String(), brokerID.String(), string(credType),
		)
	} else {
		row = r.db.QueryRow(
			`SELECT id, user_id, broker_id, type, ciphertext, updated_at FROM credentials
			 WHERE user_id = ? AND broker_id IS NULL AND type = ?`,
			userID.String(), string(credType),
		)
	}
	return r.scanOne(row)
}

func (r *CredentialRepository) ListByUser(userID uuid.UUID) ([]domain.Credential, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, broker_id, type, ciphertext, updated_at FROM credentials WHERE user_id = ?`,
		userID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Credential
	for rows.Next() {
		c, err := scanCredentialRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ListAllForRotation returns every credential, used only by master-key rotation.
func (r *CredentialRepository) ListAllForRotation() ([]domain.Credential, error) {
	rows, err := r.db.Query(`SELECT id, user_id, broker_id, type, ciphertext, updated_at FROM credentials`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Credential
	for rows.Next() {
		c, err := scanCredentialRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ReplaceCiphertext updates only the ciphertext column, used during rotation.
func (r *CredentialRepository) ReplaceCiphertext(tx *sql.Tx, id uuid.UUID, ciphertext []byte) error {
	_, err := tx.Exec(`UPDATE credentials SET ciphertext = ? WHERE id = ?`, ciphertext, id.String())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredentialRow(rows rowScanner) (*domain.Credential, error) {
	var c domain.Credential
	var id, userID, updatedAt string
	var brokerID sql.NullString
	if err := rows.Scan(&id, &userID, &brokerID, &c.Type, &c.Ciphertext, &updatedAt); err != nil {
		return nil, err
	}
	c.ID = uuid.MustParse(id)
	c.UserID = uuid.MustParse(userID)
	if brokerID.Valid {
		b := uuid.MustParse(brokerID.String)
		c.BrokerID = &b
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

func (r *CredentialRepository) scanOne(row *sql.Row) (*domain.Credential, error) {
	c, err := scanCredentialRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("credential not found")
		}
		return nil, err
	}
	return c, nil
}
