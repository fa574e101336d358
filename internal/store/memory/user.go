package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// UserStore keeps users and their device-token sets in a mutex-guarded
// map. Seed populates it since identity issuance is external.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewUserStore constructs an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*model.User)}
}

// Seed inserts or replaces a user. Intended for tests and local runs.
func (s *UserStore) Seed(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := user
	stored.DeviceTokens = slices.Clone(user.DeviceTokens)
	s.users[stored.ID] = &stored
}

func (s *UserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.CodeUserNotFound, "user not found")
	}
	out := *user
	out.DeviceTokens = slices.Clone(user.DeviceTokens)
	return &out, nil
}

func (s *UserStore) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []model.User
	for _, user := range s.users {
		if role != "" && user.Role != role {
			continue
		}
		out := *user
		out.DeviceTokens = slices.Clone(user.DeviceTokens)
		users = append(users, out)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *UserStore) AddDeviceToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return apperr.New(apperr.CodeUserNotFound, "user not found")
	}
	if !slices.Contains(user.DeviceTokens, token) {
		user.DeviceTokens = append(user.DeviceTokens, token)
	}
	return nil
}

func (s *UserStore) RemoveDeviceTokens(_ context.Context, userID string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return apperr.New(apperr.CodeUserNotFound, "user not found")
	}
	user.DeviceTokens = slices.DeleteFunc(user.DeviceTokens, func(t string) bool {
		return slices.Contains(tokens, t)
	})
	return nil
}
