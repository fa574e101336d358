package service

import (
	"context"
	"strings"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
	"github.com/avishkar-events/registration-engine/internal/notify"
)

// ListUserNotifications returns a user's notification inbox, newest
// first.
func (s *Service) ListUserNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if userID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "user id is required")
	}
	return s.notifications.ListByUser(ctx, userID)
}

// MarkNotificationRead flips a notification's read flag.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	if id == "" {
		return apperr.New(apperr.CodeInvalidInput, "notification id is required")
	}
	return s.notifications.MarkRead(ctx, id)
}

// Broadcast fans a message out to every user of the target role; an
// empty or "all" role reaches everyone. Returns the recipient count.
func (s *Service) Broadcast(ctx context.Context, req model.BroadcastRequest) (int, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if req.Title == "" || req.Body == "" {
		return 0, apperr.New(apperr.CodeInvalidInput, "title and body are required")
	}

	role := req.TargetRole
	if role == "all" {
		role = ""
	}
	if role != "" && !role.Valid() {
		return 0, apperr.Newf(apperr.CodeInvalidInput, "unknown target role %q", role)
	}

	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return 0, err
	}
	recipients := make([]string, 0, len(users))
	for _, user := range users {
		recipients = append(recipients, user.ID)
	}

	s.notifier.Enqueue(recipients, notify.Message{
		Title: req.Title,
		Body:  req.Body,
		Type:  model.NotificationBroadcast,
		URL:   "/dashboard",
	})
	return len(recipients), nil
}

// RegisterDeviceToken adds a push token to a user's set.
func (s *Service) RegisterDeviceToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.New(apperr.CodeInvalidInput, "device token is required")
	}
	return s.users.AddDeviceToken(ctx, userID, token)
}
