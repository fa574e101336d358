package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// NotificationStore handles persistence for notification records.
type NotificationStore struct {
	db *pgxpool.Pool
}

// NewNotificationStore constructs a NotificationStore.
func NewNotificationStore(db *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	stored := *n
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, body, read, type, entity_id, url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		stored.ID, stored.UserID, stored.Title, stored.Body, stored.Read,
		stored.Type, stored.EntityID, stored.URL, stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &stored, nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, title, body, read, type, entity_id, url, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notes []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Read,
			&n.Type, &n.EntityID, &n.URL, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.CodeNotificationNotFound, "notification not found")
	}
	return nil
}
