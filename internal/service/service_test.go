package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/blob"
	"github.com/avishkar-events/registration-engine/internal/metrics"
	"github.com/avishkar-events/registration-engine/internal/model"
	"github.com/avishkar-events/registration-engine/internal/notify"
	"github.com/avishkar-events/registration-engine/internal/store/memory"
)

// recordingNotifier captures fan-out jobs synchronously.
type recordingNotifier struct {
	mu         sync.Mutex
	recipients [][]string
	msgs       []notify.Message
}

func (n *recordingNotifier) Enqueue(recipients []string, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recipients = append(n.recipients, recipients)
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) last() ([]string, notify.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) == 0 {
		return nil, notify.Message{}, false
	}
	return n.recipients[len(n.recipients)-1], n.msgs[len(n.msgs)-1], true
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

type harness struct {
	svc      *Service
	events   *memory.EventStore
	regs     *memory.RegistrationStore
	notes    *memory.NotificationStore
	users    *memory.UserStore
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	events := memory.NewEventStore()
	regs := memory.NewRegistrationStore(events)
	notes := memory.NewNotificationStore()
	users := memory.NewUserStore()
	notifier := &recordingNotifier{}
	svc := New(events, regs, notes, users, blob.NewMemory(), notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.New(prometheus.NewRegistry()))
	return &harness{svc: svc, events: events, regs: regs, notes: notes, users: users, notifier: notifier}
}

func (h *harness) createEvent(t *testing.T, req model.CreateEventRequest) *model.Event {
	t.Helper()
	event, err := h.svc.CreateEvent(context.Background(), req)
	require.NoError(t, err)
	return event
}

func intPtr(n int) *int { return &n }

func registerReq(userID string) model.RegisterRequest {
	return model.RegisterRequest{UserID: userID, Name: "Asha", Email: "asha@example.com", Mobile: "555-0100"}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("validation errors", func(t *testing.T) {
		h := newHarness(t)
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit"})

		_, err := h.svc.Register(ctx, event.ID, model.RegisterRequest{Mobile: "555"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		_, err = h.svc.Register(ctx, event.ID, model.RegisterRequest{UserID: "user-1"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, 0, h.notifier.count())
	})

	t.Run("event not found", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Register(ctx, "missing", registerReq("user-1"))
		assert.True(t, apperr.IsCode(err, apperr.CodeEventNotFound))
	})

	t.Run("admits pending with paper review seeded", func(t *testing.T) {
		h := newHarness(t)
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit"})

		req := registerReq("user-1")
		req.Paper = "mem://papers/draft.pdf"
		reg, err := h.svc.Register(ctx, event.ID, req)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, reg.Status)
		assert.Equal(t, model.PaperPending, reg.PaperStatus)

		reg2, err := h.svc.Register(ctx, event.ID, registerReq("user-2"))
		require.NoError(t, err)
		assert.Equal(t, model.PaperNotApplicable, reg2.PaperStatus)
	})

	t.Run("notifies resolved organizer and admins, deduplicated", func(t *testing.T) {
		h := newHarness(t)
		h.users.Seed(model.User{ID: "admin-1", Role: model.RoleAdmin})
		h.users.Seed(model.User{ID: "org-1", Role: model.RoleOrganizer})
		event := h.createEvent(t, model.CreateEventRequest{
			Title:                 "Summit",
			EnableMultiDepartment: true,
			DepartmentOrganizers:  map[string]string{"CSE": "org-1"},
			CreatedBy:             "creator-1",
		})

		req := registerReq("user-1")
		req.Department = "CSE"
		reg, err := h.svc.Register(ctx, event.ID, req)
		require.NoError(t, err)

		recipients, msg, ok := h.notifier.last()
		require.True(t, ok)
		assert.ElementsMatch(t, []string{"org-1", "admin-1"}, recipients)
		assert.Equal(t, model.NotificationRegistration, msg.Type)
		assert.Equal(t, reg.ID, msg.EntityID)
	})

	t.Run("organizer who is also admin is notified once", func(t *testing.T) {
		h := newHarness(t)
		h.users.Seed(model.User{ID: "boss-1", Role: model.RoleAdmin})
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit", AssignedTo: "boss-1"})

		_, err := h.svc.Register(ctx, event.ID, registerReq("user-1"))
		require.NoError(t, err)

		recipients, _, ok := h.notifier.last()
		require.True(t, ok)
		assert.Equal(t, []string{"boss-1"}, recipients)
	})

	t.Run("admin placeholder owner notifies admins only", func(t *testing.T) {
		h := newHarness(t)
		h.users.Seed(model.User{ID: "admin-1", Role: model.RoleAdmin})
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit"}) // createdBy defaults to admin placeholder

		_, err := h.svc.Register(ctx, event.ID, registerReq("user-1"))
		require.NoError(t, err)

		recipients, _, ok := h.notifier.last()
		require.True(t, ok)
		assert.Equal(t, []string{"admin-1"}, recipients)
	})

	t.Run("duplicate and capacity conflicts", func(t *testing.T) {
		h := newHarness(t)
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit", Slots: intPtr(1)})

		_, err := h.svc.Register(ctx, event.ID, registerReq("user-1"))
		require.NoError(t, err)

		_, err = h.svc.Register(ctx, event.ID, registerReq("user-1"))
		assert.True(t, apperr.IsCode(err, apperr.CodeDuplicateRegistration))

		_, err = h.svc.Register(ctx, event.ID, registerReq("user-2"))
		assert.True(t, apperr.IsCode(err, apperr.CodeCapacityExceeded))
	})

	t.Run("concurrent racers for the last slots", func(t *testing.T) {
		h := newHarness(t)
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit", Slots: intPtr(2)})

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := 0; i < 3; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = h.svc.Register(ctx, event.ID, registerReq(fmt.Sprintf("user-%d", i)))
			}()
		}
		wg.Wait()

		admitted, full := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				admitted++
			case apperr.IsCode(err, apperr.CodeCapacityExceeded):
				full++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 2, admitted)
		assert.Equal(t, 1, full)
	})

	t.Run("data URI payment proof is uploaded", func(t *testing.T) {
		h := newHarness(t)
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit"})

		req := registerReq("user-1")
		req.PaymentProof = "data:image/png;base64,aGVsbG8="
		reg, err := h.svc.Register(ctx, event.ID, req)
		require.NoError(t, err)
		assert.Contains(t, reg.PaymentProofHandle, "mem://payments/")
	})
}

func TestTransitionStatus(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*harness, *model.Registration) {
		h := newHarness(t)
		event := h.createEvent(t, model.CreateEventRequest{Title: "Summit"})
		reg, err := h.svc.Register(ctx, event.ID, registerReq("user-1"))
		require.NoError(t, err)
		return h, reg
	}

	t.Run("approval notifies the registrant", func(t *testing.T) {
		h, reg := setup(t)
		before := h.notifier.count()

		updated, err := h.svc.TransitionStatus(ctx, reg.ID, "approved")
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, updated.Status)

		require.Equal(t, before+1, h.notifier.count())
		recipients, msg, _ := h.notifier.last()
		assert.Equal(t, []string{"user-1"}, recipients)
		assert.Equal(t, "Registration Approved", msg.Title)
		assert.Equal(t, model.NotificationStatusChange, msg.Type)
	})

	t.Run("self transition does not re-notify", func(t *testing.T) {
		h, reg := setup(t)
		before := h.notifier.count()

		updated, err := h.svc.TransitionStatus(ctx, reg.ID, "pending")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, updated.Status)
		assert.Equal(t, before, h.notifier.count())
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		h, reg := setup(t)
		_, err := h.svc.TransitionStatus(ctx, reg.ID, "cancelled")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))
	})

	t.Run("illegal transition is a conflict", func(t *testing.T) {
		h, reg := setup(t)
		_, err := h.svc.TransitionStatus(ctx, reg.ID, "rejected")
		require.NoError(t, err)

		_, err = h.svc.TransitionStatus(ctx, reg.ID, "confirmed")
		assert.True(t, apperr.IsCode(err, apperr.CodeInvalidTransition))
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("unknown registration", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.TransitionStatus(ctx, "missing", "approved")
		assert.True(t, apperr.IsCode(err, apperr.CodeRegistrationNotFound))
	})
}

func TestPaperReviewAndPaymentFlow(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.users.Seed(model.User{ID: "org-1", Role: model.RoleOrganizer})
	event := h.createEvent(t, model.CreateEventRequest{Title: "Summit", AssignedTo: "org-1"})

	req := registerReq("user-1")
	req.Paper = "mem://papers/draft.pdf"
	reg, err := h.svc.Register(ctx, event.ID, req)
	require.NoError(t, err)
	require.Equal(t, model.PaperPending, reg.PaperStatus)

	t.Run("accepting the paper leaves status untouched", func(t *testing.T) {
		updated, err := h.svc.TransitionPaperStatus(ctx, reg.ID, "accepted")
		require.NoError(t, err)
		assert.Equal(t, model.PaperAccepted, updated.PaperStatus)
		assert.Equal(t, model.StatusPending, updated.Status)

		recipients, msg, _ := h.notifier.last()
		assert.Equal(t, []string{"user-1"}, recipients)
		assert.Equal(t, "Paper Accepted", msg.Title)
	})

	t.Run("payment proof re-opens review and notifies the organizer", func(t *testing.T) {
		_, err := h.svc.TransitionStatus(ctx, reg.ID, "confirmed")
		require.NoError(t, err)

		updated, err := h.svc.UpdatePaymentProof(ctx, reg.ID, "data:image/png;base64,cHJvb2Y=")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, updated.Status)
		assert.Contains(t, updated.PaymentProofHandle, "mem://payments/")

		recipients, msg, _ := h.notifier.last()
		assert.Equal(t, []string{"org-1"}, recipients)
		assert.Equal(t, "Payment Proof Updated", msg.Title)
		assert.Equal(t, model.NotificationPaymentUpdate, msg.Type)
	})

	t.Run("empty proof is a validation error", func(t *testing.T) {
		_, err := h.svc.UpdatePaymentProof(ctx, reg.ID, "  ")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("unknown paper status is a validation error", func(t *testing.T) {
		_, err := h.svc.TransitionPaperStatus(ctx, reg.ID, "maybe")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

// failingPusher simulates a full channel outage.
type failingPusher struct{}

func (failingPusher) Send(context.Context, []string, string, string) ([]notify.DeliveryResult, error) {
	return nil, errors.New("channel down")
}

// syncNotifier runs fan-out inline so delivery failures would surface
// immediately if they propagated.
type syncNotifier struct{ svc *notify.Service }

func (n syncNotifier) Enqueue(recipients []string, msg notify.Message) {
	n.svc.Fan(context.Background(), recipients, msg)
}

func TestDeliveryFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()

	events := memory.NewEventStore()
	regs := memory.NewRegistrationStore(events)
	notes := memory.NewNotificationStore()
	users := memory.NewUserStore()
	users.Seed(model.User{ID: "org-1", Role: model.RoleOrganizer, DeviceTokens: []string{"tok-1"}})
	users.Seed(model.User{ID: "user-1", DeviceTokens: []string{"tok-2"}})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())
	fanout := notify.NewService(notes, users, failingPusher{}, logger, m)
	svc := New(events, regs, notes, users, blob.NewMemory(), syncNotifier{fanout}, logger, m)

	event, err := svc.CreateEvent(ctx, model.CreateEventRequest{Title: "Summit", AssignedTo: "org-1"})
	require.NoError(t, err)

	reg, err := svc.Register(ctx, event.ID, registerReq("user-1"))
	require.NoError(t, err, "admission must not fail on a push outage")

	updated, err := svc.TransitionStatus(ctx, reg.ID, "approved")
	require.NoError(t, err, "transition must not fail on a push outage")
	assert.Equal(t, model.StatusApproved, updated.Status)

	// The committed state and the durable records both survived.
	stored, err := regs.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	records, err := notes.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListEventRegistrations(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	event := h.createEvent(t, model.CreateEventRequest{
		Title:                 "Summit",
		EnableMultiDepartment: true,
		DepartmentOrganizers:  map[string]string{"CSE": "org-1", "ECE": "org-2"},
	})

	for i, dept := range []string{"CSE", "ECE", "CSE"} {
		req := registerReq(fmt.Sprintf("user-%d", i))
		req.Department = dept
		_, err := h.svc.Register(ctx, event.ID, req)
		require.NoError(t, err)
	}

	t.Run("department organizer sees only their department", func(t *testing.T) {
		regs, err := h.svc.ListEventRegistrations(ctx, event.ID, "org-1")
		require.NoError(t, err)
		require.Len(t, regs, 2)
		for _, reg := range regs {
			assert.Equal(t, "CSE", reg.Department)
		}
	})

	t.Run("other viewers see everything", func(t *testing.T) {
		regs, err := h.svc.ListEventRegistrations(ctx, event.ID, "")
		require.NoError(t, err)
		assert.Len(t, regs, 3)

		regs, err = h.svc.ListEventRegistrations(ctx, event.ID, "admin-9")
		require.NoError(t, err)
		assert.Len(t, regs, 3)
	})
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.users.Seed(model.User{ID: "user-1", Role: model.RoleParticipant})
	h.users.Seed(model.User{ID: "user-2", Role: model.RoleParticipant})
	h.users.Seed(model.User{ID: "org-1", Role: model.RoleOrganizer})

	t.Run("targets one role", func(t *testing.T) {
		count, err := h.svc.Broadcast(ctx, model.BroadcastRequest{
			Title: "Venue Change", Body: "Hall B", TargetRole: model.RoleParticipant,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		recipients, msg, _ := h.notifier.last()
		assert.ElementsMatch(t, []string{"user-1", "user-2"}, recipients)
		assert.Equal(t, model.NotificationBroadcast, msg.Type)
	})

	t.Run("all reaches everyone", func(t *testing.T) {
		count, err := h.svc.Broadcast(ctx, model.BroadcastRequest{
			Title: "Reminder", Body: "Tomorrow", TargetRole: "all",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := h.svc.Broadcast(ctx, model.BroadcastRequest{Title: "", Body: "x"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		_, err = h.svc.Broadcast(ctx, model.BroadcastRequest{Title: "t", Body: "b", TargetRole: "aliens"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestNotificationInbox(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	created, err := h.notes.Create(ctx, &model.Notification{UserID: "user-1", Title: "Hello"})
	require.NoError(t, err)

	notes, err := h.svc.ListUserNotifications(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.False(t, notes[0].Read)

	require.NoError(t, h.svc.MarkNotificationRead(ctx, created.ID))
	notes, err = h.svc.ListUserNotifications(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, notes[0].Read)

	err = h.svc.MarkNotificationRead(ctx, "missing")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotificationNotFound))
}
