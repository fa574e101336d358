package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/blob"
	"github.com/avishkar-events/registration-engine/internal/model"
	"github.com/avishkar-events/registration-engine/internal/notify"
	"github.com/avishkar-events/registration-engine/internal/organizer"
)

// Register admits a new registration for an event. The duplicate and
// capacity checks happen atomically in the store; on success the
// resolved organizer and all admins are notified through the
// asynchronous fan-out, deduplicated so an identity holding both hats
// is notified once.
func (s *Service) Register(ctx context.Context, eventID string, req model.RegisterRequest) (*model.Registration, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Mobile = strings.TrimSpace(req.Mobile)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if eventID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "event id is required")
	}
	if req.UserID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "user_id is required")
	}
	if req.Mobile == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "mobile is required")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		s.metrics.Admissions.WithLabelValues(string(apperr.CodeOf(err))).Inc()
		return nil, err
	}

	paperStatus := model.PaperNotApplicable
	if req.Paper != "" {
		paperStatus = model.PaperPending
	}

	reg := &model.Registration{
		UserID:             req.UserID,
		EventID:            eventID,
		Name:               strings.TrimSpace(req.Name),
		Email:              req.Email,
		Mobile:             req.Mobile,
		Department:         strings.TrimSpace(req.Department),
		Status:             model.StatusPending,
		PaperStatus:        paperStatus,
		PaymentProofHandle: s.storeBlob(ctx, "payments", req.PaymentProof),
		PaperHandle:        s.storeBlob(ctx, "papers", req.Paper),
	}

	admitted, err := s.registrations.Admit(ctx, reg)
	if err != nil {
		s.metrics.Admissions.WithLabelValues(string(apperr.CodeOf(err))).Inc()
		return nil, err
	}
	s.metrics.Admissions.WithLabelValues("admitted").Inc()

	recipients := s.reviewerRecipients(ctx, event, admitted.Department)
	name := admitted.Name
	if name == "" {
		name = admitted.UserID
	}
	s.notifier.Enqueue(recipients, notify.Message{
		Title:    "New Registration",
		Body:     fmt.Sprintf("%s registered for %s.", name, event.Title),
		Type:     model.NotificationRegistration,
		EntityID: admitted.ID,
		URL:      "/registrations/" + admitted.ID,
	})
	return admitted, nil
}

// TransitionStatus moves a registration to the target review status.
// A self-transition is a silent no-op; an effective transition
// notifies the registrant.
func (s *Service) TransitionStatus(ctx context.Context, id, target string) (*model.Registration, error) {
	status := model.Status(target)
	if !status.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidInput, "unknown status %q", target)
	}

	reg, changed, err := s.registrations.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !changed {
		return reg, nil
	}
	s.metrics.Transitions.WithLabelValues("status", string(status)).Inc()

	title, body := s.statusNotification(ctx, reg)
	s.notifier.Enqueue([]string{reg.UserID}, notify.Message{
		Title:    title,
		Body:     body,
		Type:     model.NotificationStatusChange,
		EntityID: reg.ID,
		URL:      "/registrations/" + reg.ID,
	})
	return reg, nil
}

// TransitionPaperStatus decides a pending paper review. Accepting a
// paper does not change the registration status; it unblocks the
// registrant's payment submission, which callers gate on PaperStatus.
func (s *Service) TransitionPaperStatus(ctx context.Context, id, target string) (*model.Registration, error) {
	paperStatus := model.PaperStatus(target)
	if !paperStatus.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidInput, "unknown paper status %q", target)
	}

	reg, changed, err := s.registrations.UpdatePaperStatus(ctx, id, paperStatus)
	if err != nil {
		return nil, err
	}
	if !changed {
		return reg, nil
	}
	s.metrics.Transitions.WithLabelValues("paper_status", string(paperStatus)).Inc()

	var title, body string
	switch paperStatus {
	case model.PaperAccepted:
		title = "Paper Accepted"
		body = "Your paper has been accepted. You can now proceed to payment."
	default:
		title = "Paper Rejected"
		body = "Your paper has been rejected. Please contact the organizer for details."
	}
	s.notifier.Enqueue([]string{reg.UserID}, notify.Message{
		Title:    title,
		Body:     body,
		Type:     model.NotificationPaperReview,
		EntityID: reg.ID,
		URL:      "/registrations/" + reg.ID,
	})
	return reg, nil
}

// UpdatePaymentProof stores a new payment proof and re-opens the
// registration for review. The resolved organizer is notified, not the
// registrant.
func (s *Service) UpdatePaymentProof(ctx context.Context, id, proof string) (*model.Registration, error) {
	if strings.TrimSpace(proof) == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "payment proof is required")
	}

	handle := s.storeBlob(ctx, "payments", proof)
	reg, err := s.registrations.UpdatePaymentProof(ctx, id, handle)
	if err != nil {
		return nil, err
	}
	s.metrics.Transitions.WithLabelValues("status", string(model.StatusPending)).Inc()

	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		s.logger.Warn("skip payment notification, event lookup failed",
			"registration_id", reg.ID, "error", err)
		return reg, nil
	}
	if owner, ok := organizer.Resolve(event, reg.Department); ok {
		name := reg.Name
		if name == "" {
			name = reg.UserID
		}
		s.notifier.Enqueue([]string{owner}, notify.Message{
			Title:    "Payment Proof Updated",
			Body:     fmt.Sprintf("%s submitted new payment proof for %s. Review required.", name, event.Title),
			Type:     model.NotificationPaymentUpdate,
			EntityID: reg.ID,
			URL:      "/registrations/" + reg.ID,
		})
	}
	return reg, nil
}

// GetRegistration returns a single registration by ID.
func (s *Service) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return s.registrations.GetByID(ctx, id)
}

// ListEventRegistrations returns an event's registrations. On a
// multi-department event, a viewer who organizes one department sees
// only that department's registrations.
func (s *Service) ListEventRegistrations(ctx context.Context, eventID, viewerID string) ([]model.Registration, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !event.EnableMultiDepartment || viewerID == "" {
		return regs, nil
	}
	viewerDept := ""
	for dept, owner := range event.DepartmentOrganizers {
		if owner == viewerID {
			viewerDept = dept
			break
		}
	}
	if viewerDept == "" {
		return regs, nil
	}
	filtered := regs[:0]
	for _, reg := range regs {
		if reg.Department == viewerDept {
			filtered = append(filtered, reg)
		}
	}
	return filtered, nil
}

// ListUserRegistrations returns all registrations made by a user.
func (s *Service) ListUserRegistrations(ctx context.Context, userID string) ([]model.Registration, error) {
	return s.registrations.ListByUser(ctx, userID)
}

// ResolveOrganizer exposes the routing resolver for the surrounding
// system.
func (s *Service) ResolveOrganizer(event *model.Event, department string) (string, bool) {
	return organizer.Resolve(event, department)
}

// reviewerRecipients is the admission fan-out set: the resolved
// organizer plus every admin, deduplicated.
func (s *Service) reviewerRecipients(ctx context.Context, event *model.Event, department string) []string {
	seen := make(map[string]bool)
	var recipients []string
	if owner, ok := organizer.Resolve(event, department); ok {
		seen[owner] = true
		recipients = append(recipients, owner)
	}

	admins, err := s.users.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		s.logger.Warn("list admins for admission fan-out failed", "error", err)
		return recipients
	}
	for _, admin := range admins {
		if !seen[admin.ID] {
			seen[admin.ID] = true
			recipients = append(recipients, admin.ID)
		}
	}
	return recipients
}

// statusNotification builds the registrant-facing message for an
// effective status transition.
func (s *Service) statusNotification(ctx context.Context, reg *model.Registration) (title, body string) {
	eventTitle := "the event"
	if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
		eventTitle = event.Title
	}
	switch reg.Status {
	case model.StatusApproved:
		return "Registration Approved",
			fmt.Sprintf("Your registration for %s has been approved.", eventTitle)
	case model.StatusConfirmed:
		return "Registration Confirmed",
			fmt.Sprintf("Your registration for %s is confirmed. See you there!", eventTitle)
	case model.StatusRejected:
		return "Registration Rejected",
			fmt.Sprintf("Your registration for %s has been rejected. Please contact the organizer for details.", eventTitle)
	default:
		return "Registration Under Review",
			fmt.Sprintf("Your registration for %s is back under review.", eventTitle)
	}
}

// storeBlob uploads data-URI content to the blob store and returns the
// handle. Opaque handles pass through unchanged. An upload failure is
// absorbed: the raw content is kept so nothing is lost.
func (s *Service) storeBlob(ctx context.Context, folder, content string) string {
	if content == "" {
		return ""
	}
	data, ext, ok := blob.DecodeDataURI(content)
	if !ok {
		return content
	}
	handle, err := s.blobs.Upload(ctx, folder, data, ext)
	if err != nil {
		s.logger.Warn("blob upload failed, keeping raw content",
			"folder", folder, "error", err)
		return content
	}
	return handle
}
