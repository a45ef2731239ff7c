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

// UserRepository persists domain.User rows.
type UserRepository struct {
	db *database.DB
}

func (r *UserRepository) Create(u domain.User) error {
	_, err := r.db.Exec(
		`INSERT INTO users (id, email, username, password_hash, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.Username, u.PasswordHash, boolToInt(u.Active), u.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func (r *UserRepository) ByEmail(email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, email, username, password_hash, active, created_at FROM users WHERE email = ?`, email,
	))
}

func (r *UserRepository) ByID(id uuid.UUID) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, email, username, password_hash, active, created_at FROM users WHERE id = ?`, id.String(),
	))
}

func (r *UserRepository) ExistsByEmailOrUsername(email, username string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`, email, username,
	).Scan(&count)
	return count > 0, err
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var id, createdAt string
	var active int
	if err := row.Scan(&id, &u.Email, &u.Username, &u.PasswordHash, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	u.ID = uuid.MustParse(id)
	u.Active = active != 0
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
