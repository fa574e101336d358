// Package service implements business logic, validation, and
// orchestration between HTTP handlers and the stores: admission of new
// registrations against event capacity, the review state machine, and
// the wiring of state changes to notification fan-out.
package service

import (
	"log/slog"

	"github.com/avishkar-events/registration-engine/internal/blob"
	"github.com/avishkar-events/registration-engine/internal/metrics"
	"github.com/avishkar-events/registration-engine/internal/notify"
	"github.com/avishkar-events/registration-engine/internal/store"
)

// Notifier accepts fan-out jobs without blocking. Production wiring
// uses notify.Dispatcher; tests substitute a synchronous fake.
type Notifier interface {
	Enqueue(recipients []string, msg notify.Message)
}

// Service orchestrates the registration engine's operations.
type Service struct {
	events        store.EventStore
	registrations store.RegistrationStore
	notifications store.NotificationStore
	users         store.UserStore
	blobs         blob.Store
	notifier      Notifier
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New constructs a Service with its dependencies.
func New(
	events store.EventStore,
	registrations store.RegistrationStore,
	notifications store.NotificationStore,
	users store.UserStore,
	blobs blob.Store,
	notifier Notifier,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		events:        events,
		registrations: registrations,
		notifications: notifications,
		users:         users,
		blobs:         blobs,
		notifier:      notifier,
		logger:        logger,
		metrics:       m,
	}
}
