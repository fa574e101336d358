// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
	"github.com/avishkar-events/registration-engine/internal/service"
)

// Handler holds all HTTP handlers for the registration API.
type Handler struct {
	svc *service.Service
}

// New constructs a Handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts every endpoint on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Post("/{id}/register", h.Register)
		r.Get("/{id}/registrations", h.ListEventRegistrations)
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Get("/{id}", h.GetRegistration)
		r.Put("/{id}/status", h.TransitionStatus)
		r.Put("/{id}/paper-status", h.TransitionPaperStatus)
		r.Put("/{id}/payment-proof", h.UpdatePaymentProof)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/{id}/registrations", h.ListUserRegistrations)
		r.Get("/{id}/notifications", h.ListUserNotifications)
		r.Post("/{id}/device-tokens", h.RegisterDeviceToken)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Put("/{id}/read", h.MarkNotificationRead)
		r.Post("/broadcast", h.Broadcast)
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// 400, not-found 404, conflict 409, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	code := apperr.CodeOf(err)

	switch code.Kind() {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		msg = err.Error()
	case apperr.KindNotFound:
		status = http.StatusNotFound
		msg = err.Error()
	case apperr.KindConflict:
		status = http.StatusConflict
		msg = err.Error()
	}

	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: string(code)})
}

func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest,
		model.ErrorResponse{Error: msg, Code: string(apperr.CodeInvalidInput)})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 8<<20) // payment proofs may be inline data URIs
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// ─── Registrations ────────────────────────────────────────────────────────────

// Register handles POST /events/{id}/register
// Admission is concurrency-safe: the duplicate and capacity checks are
// atomic with the insert.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.Register(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// ListEventRegistrations handles GET /events/{id}/registrations
// The optional viewer query parameter scopes a department organizer's
// view on multi-department events.
func (h *Handler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListEventRegistrations(r.Context(),
		chi.URLParam(r, "id"), r.URL.Query().Get("viewer"))
	if err != nil {
		writeError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// GetRegistration handles GET /registrations/{id}
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// TransitionStatus handles PUT /registrations/{id}/status
func (h *Handler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.TransitionStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// TransitionPaperStatus handles PUT /registrations/{id}/paper-status
func (h *Handler) TransitionPaperStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaperStatus string `json:"paper_status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.TransitionPaperStatus(r.Context(), chi.URLParam(r, "id"), req.PaperStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// UpdatePaymentProof handles PUT /registrations/{id}/payment-proof
func (h *Handler) UpdatePaymentProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentProof string `json:"payment_proof"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.UpdatePaymentProof(r.Context(), chi.URLParam(r, "id"), req.PaymentProof)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ─── Users & notifications ────────────────────────────────────────────────────

// ListUserRegistrations handles GET /users/{id}/registrations
func (h *Handler) ListUserRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListUserRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ListUserNotifications handles GET /users/{id}/notifications
func (h *Handler) ListUserNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListUserNotifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// RegisterDeviceToken handles POST /users/{id}/device-tokens
func (h *Handler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.RegisterDeviceToken(r.Context(), chi.URLParam(r, "id"), req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "device token registered"})
}

// MarkNotificationRead handles PUT /notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// Broadcast handles POST /notifications/broadcast
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req model.BroadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}

	count, err := h.svc.Broadcast(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recipients": count})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
