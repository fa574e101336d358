package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// NotificationStore keeps notification records in a mutex-guarded map.
type NotificationStore struct {
	mu    sync.RWMutex
	notes map[string]*model.Notification
}

// NewNotificationStore constructs an empty in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notes: make(map[string]*model.Notification)}
}

func (s *NotificationStore) Create(_ context.Context, n *model.Notification) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *n
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.notes[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *NotificationStore) ListByUser(_ context.Context, userID string) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notes []model.Notification
	for _, n := range s.notes {
		if n.UserID == userID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return apperr.New(apperr.CodeNotificationNotFound, "notification not found")
	}
	n.Read = true
	return nil
}
