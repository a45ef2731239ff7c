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

// BrokerAccountRepository persists domain.BrokerAccount rows.
type BrokerAccountRepository struct {
	db *database.DB
}

func (r *BrokerAccountRepository) Create(b domain.BrokerAccount) error {
	_, err := r.db.Exec(
		`INSERT INTO broker_accounts (id, user_id, label, login, server, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.UserID.String(), b.Label, b.Login, b.Server, b.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func (r *BrokerAccountRepository) Delete(id, userID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM broker_accounts WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

func (r *BrokerAccountRepository) ByID(id uuid.UUID) (*domain.BrokerAccount, error) {
	row := r.db.QueryRow(`SELECT id, user_id, label, login, server, created_at FROM broker_accounts WHERE id = ?`, id.String())
	return r.scanOne(row)
}

func (r *BrokerAccountRepository) ListByUser(userID uuid.UUID) ([]domain.BrokerAccount, error) {
	rows, err := r.db.Query(`SELECT id, user_id, label, login, server, created_at FROM broker_accounts WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BrokerAccount
	for rows.Next() {
		var b domain.BrokerAccount
		var id, userID, createdAt string
		if err := rows.Scan(&id, &userID, &b.Label, &b.Login, &b.Server, &createdAt); err != nil {
			return nil, err
		}
		b.ID = uuid.MustParse(id)
		b.UserID = uuid.MustParse(userID)
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BrokerAccountRepository) scanOne(row *sql.Row) (*domain.BrokerAccount, error) {
	var b domain.BrokerAccount
	var id, userID, createdAt string
	if err := row.Scan(&id, &userID, &b.Label, &b.Login, &b.Server, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("broker account not found")
		}
		return nil, err
	}
	b.ID = uuid.MustParse(id)
	b.UserID = uuid.MustParse(userID)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &b, nil
}
