package service

import (
	"context"
	"strings"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
	"github.com/avishkar-events/registration-engine/internal/organizer"
)

// CreateEvent validates the request and delegates to the store.
func (s *Service) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "event title is required")
	}
	if req.Slots != nil && *req.Slots <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "slots must be a positive integer")
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = organizer.AdminPlaceholder
	}

	event := &model.Event{
		Title:                 req.Title,
		Description:           req.Description,
		Date:                  req.Date,
		Venue:                 req.Venue,
		Category:              req.Category,
		ImageURL:              req.ImageURL,
		Slots:                 req.Slots,
		EnableMultiDepartment: req.EnableMultiDepartment,
		DepartmentOrganizers:  req.DepartmentOrganizers,
		AssignedTo:            req.AssignedTo,
		CreatedBy:             createdBy,
	}
	return s.events.Create(ctx, event)
}

// ListEvents returns all events.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// GetEvent returns a single event by ID.
func (s *Service) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "event id is required")
	}
	return s.events.GetByID(ctx, id)
}

// UpdateEvent applies the non-nil fields of req to an existing event.
// Capacity and ownership edits flow through here, never through the
// admission path.
func (s *Service) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperr.New(apperr.CodeInvalidInput, "event title is required")
		}
		event.Title = title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.ImageURL != nil {
		event.ImageURL = *req.ImageURL
	}
	if req.Slots != nil {
		if *req.Slots <= 0 {
			return nil, apperr.New(apperr.CodeInvalidInput, "slots must be a positive integer")
		}
		event.Slots = req.Slots
	}
	if req.EnableMultiDepartment != nil {
		event.EnableMultiDepartment = *req.EnableMultiDepartment
	}
	if req.DepartmentOrganizers != nil {
		event.DepartmentOrganizers = *req.DepartmentOrganizers
	}
	if req.AssignedTo != nil {
		event.AssignedTo = *req.AssignedTo
	}

	return s.events.Update(ctx, event)
}

// DeleteEvent removes an event and its stored image. A blob store
// failure degrades to an orphaned file, never a failed deletion.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.ImageURL != "" {
		if err := s.blobs.Delete(ctx, event.ImageURL); err != nil {
			s.logger.Warn("delete event image failed",
				"event_id", id, "error", err)
		}
	}
	return s.events.Delete(ctx, id)
}
