// Package store declares the persistence ports of the registration
// engine. Two implementations exist: memory (tests, local runs without
// a database) and postgres.
package store

import (
	"context"

	"github.com/avishkar-events/registration-engine/internal/model"
)

// EventStore persists events. Capacity and ownership fields are
// mutated only through Update by organizer/admin actions; the
// admission path reads them and never writes.
type EventStore interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, event *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// RegistrationStore persists registrations and owns every mutation
// that must hold the capacity invariant: the count of registrations
// with an active status for an event never exceeds the event's slots.
type RegistrationStore interface {
	// Admit atomically verifies that no registration exists for
	// (reg.UserID, reg.EventID), that the event has a free slot, and
	// inserts reg. The checks and the insert observe one consistent
	// snapshot per event, equivalent to serial execution.
	Admit(ctx context.Context, reg *model.Registration) (*model.Registration, error)

	GetByID(ctx context.Context, id string) (*model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)

	// UpdateStatus applies a legal status transition. It reports
	// changed=false for a self-transition (a no-op that must not
	// trigger fan-out). Re-activating a rejected registration
	// re-validates capacity under the same discipline as Admit.
	UpdateStatus(ctx context.Context, id string, target model.Status) (reg *model.Registration, changed bool, err error)

	// UpdatePaperStatus applies a legal paper review transition.
	UpdatePaperStatus(ctx context.Context, id string, target model.PaperStatus) (reg *model.Registration, changed bool, err error)

	// UpdatePaymentProof stores a new payment proof handle and resets
	// the registration's status to pending: a new payment submission
	// always requires re-review.
	UpdatePaymentProof(ctx context.Context, id, handle string) (*model.Registration, error)
}

// NotificationStore persists notification records. Records are only
// ever mutated to flip the read flag.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// UserStore reads referenced users and manages their device-token sets.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	// ListByRole returns users with the given role; an empty role
	// returns every user.
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	AddDeviceToken(ctx context.Context, userID, token string) error
	RemoveDeviceTokens(ctx context.Context, userID string, tokens []string) error
}
