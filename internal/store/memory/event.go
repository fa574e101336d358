// Package memory implements the store ports with in-process maps.
// It backs the unit tests and local runs without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// EventStore keeps events in a mutex-guarded map.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]*model.Event
}

// NewEventStore constructs an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]*model.Event)}
}

func (s *EventStore) Create(_ context.Context, event *model.Event) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneEvent(event)
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.events[stored.ID] = stored
	return cloneEvent(stored), nil
}

func (s *EventStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, apperr.New(apperr.CodeEventNotFound, "event not found")
	}
	return cloneEvent(event), nil
}

func (s *EventStore) List(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, *cloneEvent(event))
	}
	return events, nil
}

func (s *EventStore) Update(_ context.Context, event *model.Event) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; !ok {
		return nil, apperr.New(apperr.CodeEventNotFound, "event not found")
	}
	s.events[event.ID] = cloneEvent(event)
	return cloneEvent(event), nil
}

func (s *EventStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return apperr.New(apperr.CodeEventNotFound, "event not found")
	}
	delete(s.events, id)
	return nil
}

func cloneEvent(event *model.Event) *model.Event {
	clone := *event
	if event.Slots != nil {
		slots := *event.Slots
		clone.Slots = &slots
	}
	if event.DepartmentOrganizers != nil {
		clone.DepartmentOrganizers = make(map[string]string, len(event.DepartmentOrganizers))
		for dept, organizer := range event.DepartmentOrganizers {
			clone.DepartmentOrganizers[dept] = organizer
		}
	}
	return &clone
}
