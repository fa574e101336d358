package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// UserStore reads users and manages their device-token sets. Rows are
// provisioned by the external identity system; this service never
// inserts users.
type UserStore struct {
	db *pgxpool.Pool
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, role, device_tokens FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.DeviceTokens)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	query := `SELECT id, name, email, role, device_tokens FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.DeviceTokens); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) AddDeviceToken(ctx context.Context, userID, token string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET device_tokens = array_append(device_tokens, $2)
		 WHERE id = $1 AND NOT ($2 = ANY(device_tokens))`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("add device token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the user is missing or the token is already present.
		if _, err := s.GetByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserStore) RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET device_tokens = (
		     SELECT COALESCE(array_agg(t), '{}')
		     FROM unnest(device_tokens) AS t
		     WHERE t != ALL($2::text[])
		 )
		 WHERE id = $1`,
		userID, tokens,
	)
	if err != nil {
		return fmt.Errorf("remove device tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.CodeUserNotFound, "user not found")
	}
	return nil
}
