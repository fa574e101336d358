// Package postgres implements the store ports on PostgreSQL using pgx
// directly, no ORM.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// EventStore handles persistence for events.
type EventStore struct {
	db *pgxpool.Pool
}

// NewEventStore constructs an EventStore.
func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	stored := *event
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	organizers, err := json.Marshal(stored.DepartmentOrganizers)
	if err != nil {
		return nil, fmt.Errorf("marshal department organizers: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO events (id, title, description, date, venue, category, image_url,
		                     slots, enable_multi_department, department_organizers,
		                     assigned_to, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		stored.ID, stored.Title, stored.Description, stored.Date, stored.Venue,
		stored.Category, stored.ImageURL, stored.Slots, stored.EnableMultiDepartment,
		organizers, stored.AssignedTo, stored.CreatedBy, stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &stored, nil
}

func (s *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	event, err := scanEvent(s.db.QueryRow(ctx, selectEvent+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeEventNotFound, "event not found")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *EventStore) List(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.Query(ctx, selectEvent+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	organizers, err := json.Marshal(event.DepartmentOrganizers)
	if err != nil {
		return nil, fmt.Errorf("marshal department organizers: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, date = $4, venue = $5, category = $6,
		     image_url = $7, slots = $8, enable_multi_department = $9,
		     department_organizers = $10, assigned_to = $11
		 WHERE id = $1`,
		event.ID, event.Title, event.Description, event.Date, event.Venue,
		event.Category, event.ImageURL, event.Slots, event.EnableMultiDepartment,
		organizers, event.AssignedTo,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.New(apperr.CodeEventNotFound, "event not found")
	}
	return s.GetByID(ctx, event.ID)
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.CodeEventNotFound, "event not found")
	}
	return nil
}

const selectEvent = `SELECT id, title, description, date, venue, category, image_url,
                            slots, enable_multi_department, department_organizers,
                            assigned_to, created_by, created_at
                     FROM events`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	var organizers []byte
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Venue, &e.Category,
		&e.ImageURL, &e.Slots, &e.EnableMultiDepartment, &organizers,
		&e.AssignedTo, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(organizers) > 0 {
		if err := json.Unmarshal(organizers, &e.DepartmentOrganizers); err != nil {
			return nil, fmt.Errorf("unmarshal department organizers: %w", err)
		}
	}
	return &e, nil
}
