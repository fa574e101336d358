// Package model defines the core domain types for the registration engine.
package model

import "time"

// Role classifies a user for routing and broadcast targeting.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Status is the review state of a registration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// Active reports whether a registration in this status counts against
// event capacity.
func (s Status) Active() bool {
	return s != StatusRejected
}

// CanTransitionTo reports whether the move from s to target is legal.
// Confirmed and rejected are terminal; the only way out is an explicit
// re-open back to pending.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusConfirmed || target == StatusRejected
	case StatusApproved:
		return target == StatusConfirmed || target == StatusRejected || target == StatusPending
	case StatusConfirmed, StatusRejected:
		return target == StatusPending
	}
	return false
}

// PaperStatus is the review state of a registration's paper submission.
type PaperStatus string

const (
	PaperNotApplicable PaperStatus = "not_applicable"
	PaperPending       PaperStatus = "pending"
	PaperAccepted      PaperStatus = "accepted"
	PaperRejected      PaperStatus = "rejected"
)

// Valid reports whether p is a known paper status value.
func (p PaperStatus) Valid() bool {
	switch p {
	case PaperNotApplicable, PaperPending, PaperAccepted, PaperRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the paper review move is legal.
// Only a pending paper can be decided; there is no re-open path.
func (p PaperStatus) CanTransitionTo(target PaperStatus) bool {
	return p == PaperPending && (target == PaperAccepted || target == PaperRejected)
}

// Event represents an event participants can register for.
// Slots is nil when capacity is unlimited.
type Event struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	Date                  string            `json:"date"`
	Venue                 string            `json:"venue"`
	Category              string            `json:"category"`
	ImageURL              string            `json:"image_url,omitempty"`
	Slots                 *int              `json:"slots,omitempty"`
	EnableMultiDepartment bool              `json:"enable_multi_department"`
	DepartmentOrganizers  map[string]string `json:"department_organizers,omitempty"`
	AssignedTo            string            `json:"assigned_to,omitempty"`
	CreatedBy             string            `json:"created_by"`
	CreatedAt             time.Time         `json:"created_at"`
}

// Registration represents one user's registration for one event.
// At most one exists per (UserID, EventID) pair.
type Registration struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id"`
	EventID            string      `json:"event_id"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Mobile             string      `json:"mobile"`
	Department         string      `json:"department,omitempty"`
	Status             Status      `json:"status"`
	PaperStatus        PaperStatus `json:"paper_status"`
	PaymentProofHandle string      `json:"payment_proof_handle,omitempty"`
	PaperHandle        string      `json:"paper_handle,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
}

// NotificationType categorizes a notification for client-side routing.
type NotificationType string

const (
	NotificationRegistration  NotificationType = "registration"
	NotificationStatusChange  NotificationType = "status_change"
	NotificationPaperReview   NotificationType = "paper_review"
	NotificationPaymentUpdate NotificationType = "payment_update"
	NotificationBroadcast     NotificationType = "broadcast"
)

// Notification is the durable per-recipient record of a fan-out delivery.
// Push delivery is best-effort; this record is the source of truth.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	Type      NotificationType `json:"type"`
	EntityID  string           `json:"entity_id,omitempty"`
	URL       string           `json:"url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// User is referenced for routing and push delivery; identity issuance
// lives outside this service.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         Role     `json:"role"`
	DeviceTokens []string `json:"device_tokens,omitempty"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	Date                  string            `json:"date"`
	Venue                 string            `json:"venue"`
	Category              string            `json:"category"`
	ImageURL              string            `json:"image_url"`
	Slots                 *int              `json:"slots"`
	EnableMultiDepartment bool              `json:"enable_multi_department"`
	DepartmentOrganizers  map[string]string `json:"department_organizers"`
	AssignedTo            string            `json:"assigned_to"`
	CreatedBy             string            `json:"created_by"`
}

// UpdateEventRequest carries mutable event fields for organizer/admin edits.
// Nil fields are left untouched.
type UpdateEventRequest struct {
	Title                 *string            `json:"title"`
	Description           *string            `json:"description"`
	Date                  *string            `json:"date"`
	Venue                 *string            `json:"venue"`
	Category              *string            `json:"category"`
	ImageURL              *string            `json:"image_url"`
	Slots                 *int               `json:"slots"`
	EnableMultiDepartment *bool              `json:"enable_multi_department"`
	DepartmentOrganizers  *map[string]string `json:"department_organizers"`
	AssignedTo            *string            `json:"assigned_to"`
}

// RegisterRequest is the payload for registering for an event.
// PaymentProof and Paper may be opaque handles or data URIs; data URIs
// are uploaded to the blob store before the registration is admitted.
type RegisterRequest struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	Department   string `json:"department"`
	PaymentProof string `json:"payment_proof"`
	Paper        string `json:"paper"`
}

// BroadcastRequest is the payload for a role-targeted broadcast.
type BroadcastRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	TargetRole Role   `json:"target_role"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
