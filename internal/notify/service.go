package notify

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/avishkar-events/registration-engine/internal/metrics"
	"github.com/avishkar-events/registration-engine/internal/model"
	"github.com/avishkar-events/registration-engine/internal/store"
)

// Message is one logical notification event before fan-out.
type Message struct {
	Title    string
	Body     string
	Type     model.NotificationType
	EntityID string
	URL      string
}

// Service fans a message out to recipients. Failures are logged and
// absorbed; Fan never returns an error because delivery must not fail
// the business operation that triggered it.
type Service struct {
	notifications store.NotificationStore
	users         store.UserStore
	pusher        Pusher
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// NewService constructs a fan-out service.
func NewService(
	notifications store.NotificationStore,
	users store.UserStore,
	pusher Pusher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		notifications: notifications,
		users:         users,
		pusher:        pusher,
		logger:        logger,
		metrics:       m,
	}
}

// Fan delivers msg to every recipient independently and in parallel.
// One recipient's failure never blocks or fails another's delivery.
func (s *Service) Fan(ctx context.Context, recipients []string, msg Message) {
	g := new(errgroup.Group)
	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			s.deliver(ctx, recipient, msg)
			return nil
		})
	}
	_ = g.Wait()
}

// deliver persists the durable record first (the source of truth),
// then attempts a best-effort multicast push to the recipient's
// current device tokens, pruning tokens the channel reports as
// unregistered.
func (s *Service) deliver(ctx context.Context, recipient string, msg Message) {
	record := &model.Notification{
		UserID:   recipient,
		Title:    msg.Title,
		Body:     msg.Body,
		Type:     msg.Type,
		EntityID: msg.EntityID,
		URL:      msg.URL,
	}
	if _, err := s.notifications.Create(ctx, record); err != nil {
		s.logger.Error("persist notification failed",
			"user_id", recipient, "type", msg.Type, "error", err)
	} else {
		s.metrics.NotificationsPersisted.Inc()
	}

	user, err := s.users.GetByID(ctx, recipient)
	if err != nil {
		s.logger.Warn("skip push, recipient lookup failed",
			"user_id", recipient, "error", err)
		return
	}
	if len(user.DeviceTokens) == 0 {
		return
	}

	results, err := s.pusher.Send(ctx, user.DeviceTokens, msg.Title, msg.Body)
	if err != nil {
		s.metrics.PushFailures.Add(float64(len(user.DeviceTokens)))
		s.logger.Warn("push delivery failed",
			"user_id", recipient, "tokens", len(user.DeviceTokens), "error", err)
		return
	}

	var stale []string
	for _, result := range results {
		switch result.Status {
		case DeliveryOK:
			s.metrics.PushesSent.Inc()
		case DeliveryUnregistered:
			s.metrics.PushFailures.Inc()
			stale = append(stale, result.Token)
		case DeliveryTransient:
			s.metrics.PushFailures.Inc()
		}
	}
	if len(stale) == 0 {
		return
	}
	if err := s.users.RemoveDeviceTokens(ctx, recipient, stale); err != nil {
		s.logger.Warn("prune stale device tokens failed",
			"user_id", recipient, "tokens", len(stale), "error", err)
		return
	}
	s.metrics.TokensPruned.Add(float64(len(stale)))
	s.logger.Info("pruned stale device tokens",
		"user_id", recipient, "tokens", len(stale))
}
