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

// ChannelRepository persists domain.ChannelSubscription rows.
type ChannelRepository struct {
	db *database.DB
}

func (r *ChannelRepository) Create(c domain.ChannelSubscription) error {
	_, err := r.db.Exec(
		`INSERT INTO channel_subscriptions (id, user_id, channel_id, label, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.UserID.String(), c.ChannelID, c.Label, boolToInt(c.Active), c.CreatedAt.Format(time.RFC3339),
	)
	return err
}

func (r *ChannelRepository) Delete(id, userID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM channel_subscriptions WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

// ByExternalChannel looks up the subscription by (external channel id, user),
// as required by the Signal Recorder (§4.2).
func (r *ChannelRepository) ByExternalChannel(channelID int64, userID uuid.UUID) (*domain.ChannelSubscription, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, channel_id, label, active, created_at FROM channel_subscriptions
		 WHERE channel_id = ? AND user_id = ? AND active = 1`,
		channelID, userID.String(),
	)
	return r.scanOne(row)
}

func (r *ChannelRepository) ByID(id uuid.UUID) (*domain.ChannelSubscription, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, channel_id, label, active, created_at FROM channel_subscriptions WHERE id = ?`,
		id.String(),
	)
	return r.scanOne(row)
}

func (r *ChannelRepository) ListByUser(userID uuid.UUID) ([]domain.ChannelSubscription, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, channel_id, label, active, created_at FROM channel_subscriptions WHERE user_id = ?`,
		userID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannelRows(rows)
}

// ListAllActive is used by the Pipeline Coordinator at startup to register
// one handler per subscription (§4.8).
func (r *ChannelRepository) ListAllActive() ([]domain.ChannelSubscription, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, channel_id, label, active, created_at FROM channel_subscriptions WHERE active = 1`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannelRows(rows)
}

func scanChannelRows(rows *sql.Rows) ([]domain.ChannelSubscription, error) {
	var out []domain.ChannelSubscription
	for rows.Next() {
		var c domain.ChannelSubscription
		var id, userID, createdAt string
		var active int
		if err := rows.Scan(&id, &userID, &c.ChannelID, &c.Label, &active, &createdAt); err != nil {
			return nil, err
		}
		c.ID = uuid.MustParse(id)
		c.UserID = uuid.MustParse(userID)
		c.Active = active != 0
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChannelRepository) scanOne(row *sql.Row) (*domain.ChannelSubscription, error) {
	var c domain.ChannelSubscription
	var id, userID, createdAt string
	var active int
	if err := row.Scan(&id, &userID, &c.ChannelID, &c.Label, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("channel subscription not found")
		}
		return nil, err
	}
	c.ID = uuid.MustParse(id)
	c.UserID = uuid.MustParse(userID)
	c.Active = active != 0
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}
