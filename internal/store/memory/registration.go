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

// RegistrationStore keeps registrations in a mutex-guarded map. A
// single mutex covers every mutation, so duplicate and capacity checks
// always observe the same snapshot as the insert, the in-memory
// equivalent of the row-locked transaction in the postgres store.
type RegistrationStore struct {
	mu     sync.Mutex
	events *EventStore
	regs   map[string]*model.Registration
}

// NewRegistrationStore constructs an empty in-memory registration
// store. It reads event capacity from events.
func NewRegistrationStore(events *EventStore) *RegistrationStore {
	return &RegistrationStore{
		events: events,
		regs:   make(map[string]*model.Registration),
	}
}

func (s *RegistrationStore) Admit(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, existing := range s.regs {
		if existing.EventID != reg.EventID {
			continue
		}
		if existing.UserID == reg.UserID {
			return nil, apperr.New(apperr.CodeDuplicateRegistration, "already registered for this event")
		}
		if existing.Status.Active() {
			active++
		}
	}
	if event.Slots != nil && active >= *event.Slots {
		return nil, apperr.New(apperr.CodeCapacityExceeded, "event is fully booked")
	}

	stored := *reg
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.regs[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *RegistrationStore) GetByID(_ context.Context, id string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return nil, apperr.New(apperr.CodeRegistrationNotFound, "registration not found")
	}
	out := *reg
	return &out, nil
}

func (s *RegistrationStore) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var regs []model.Registration
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			regs = append(regs, *reg)
		}
	}
	sortByCreation(regs)
	return regs, nil
}

func (s *RegistrationStore) ListByUser(_ context.Context, userID string) ([]model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var regs []model.Registration
	for _, reg := range s.regs {
		if reg.UserID == userID {
			regs = append(regs, *reg)
		}
	}
	sortByCreation(regs)
	return regs, nil
}

func (s *RegistrationStore) UpdateStatus(ctx context.Context, id string, target model.Status) (*model.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return nil, false, apperr.New(apperr.CodeRegistrationNotFound, "registration not found")
	}
	if reg.Status == target {
		out := *reg
		return &out, false, nil
	}
	if !reg.Status.CanTransitionTo(target) {
		return nil, false, apperr.Newf(apperr.CodeInvalidTransition,
			"cannot transition registration from %s to %s", reg.Status, target)
	}
	if !reg.Status.Active() && target.Active() {
		if err := s.checkCapacityLocked(ctx, reg.EventID); err != nil {
			return nil, false, err
		}
	}

	reg.Status = target
	out := *reg
	return &out, true, nil
}

func (s *RegistrationStore) UpdatePaperStatus(_ context.Context, id string, target model.PaperStatus) (*model.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return nil, false, apperr.New(apperr.CodeRegistrationNotFound, "registration not found")
	}
	if reg.PaperStatus == target {
		out := *reg
		return &out, false, nil
	}
	if !reg.PaperStatus.CanTransitionTo(target) {
		return nil, false, apperr.Newf(apperr.CodeInvalidTransition,
			"cannot transition paper review from %s to %s", reg.PaperStatus, target)
	}

	reg.PaperStatus = target
	out := *reg
	return &out, true, nil
}

func (s *RegistrationStore) UpdatePaymentProof(ctx context.Context, id, handle string) (*model.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return nil, apperr.New(apperr.CodeRegistrationNotFound, "registration not found")
	}
	if !reg.Status.Active() {
		if err := s.checkCapacityLocked(ctx, reg.EventID); err != nil {
			return nil, err
		}
	}

	reg.PaymentProofHandle = handle
	reg.Status = model.StatusPending
	out := *reg
	return &out, nil
}

// checkCapacityLocked guards re-activation of a rejected registration
// the same way Admit guards a new one. Caller holds s.mu.
func (s *RegistrationStore) checkCapacityLocked(ctx context.Context, eventID string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Slots == nil {
		return nil
	}
	active := 0
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.Status.Active() {
			active++
		}
	}
	if active >= *event.Slots {
		return apperr.New(apperr.CodeCapacityExceeded, "event is fully booked")
	}
	return nil
}

func sortByCreation(regs []model.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
}
