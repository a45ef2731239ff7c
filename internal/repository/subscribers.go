package repository

import (
	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/database"
	"github.com/signalbridge/platform/internal/domain"
)

// SubscriberRepository persists domain.Subscriber rows, the external
// forwarding targets used by the Notification Hub's rebroadcast path (§4.7).
type SubscriberRepository struct {
	db *database.DB
}

func (r *SubscriberRepository) Create(s domain.Subscriber) error {
	_, err := r.db.Exec(
		`INSERT INTO subscribers (id, user_id, external_address, label, active) VALUES (?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), s.ExternalAddress, s.Label, boolToInt(s.Active),
	)
	return err
}

func (r *SubscriberRepository) Delete(id, userID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM subscribers WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

// ListActiveByUser returns the forwarding targets the hub fans out to for one
// user (§4.7).
func (r *SubscriberRepository) ListActiveByUser(userID uuid.UUID) ([]domain.Subscriber, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, external_address, label, active FROM subscribers WHERE user_id = ? AND active = 1`,
		userID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		var id, userID string
		var active int
		if err := rows.Scan(&id, &userID, &s.ExternalAddress, &s.Label, &active); err != nil {
			return nil, err
		}
		s.ID = uuid.MustParse(id)
		s.UserID = uuid.MustParse(userID)
		s.Active = active != 0
		out = append(out, s)
	}
	return out, rows.Err()
}
