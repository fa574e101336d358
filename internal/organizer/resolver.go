// Package organizer resolves which identity owns the review of a
// registration when ownership is split across departments.
package organizer

import "github.com/avishkar-events/registration-engine/internal/model"

// AdminPlaceholder is the literal owner value events fall back to when
// created without an explicit organizer. Admins are notified through
// their role, never as a resolved organizer.
const AdminPlaceholder = "admin"

// Resolve returns the organizer identity owning a registration with
// the given department, applying a fixed precedence: the department
// mapping when multi-department routing is enabled, then the event's
// assigned organizer, then its creator. The second return is false
// when ownership falls through to the admin placeholder.
func Resolve(event *model.Event, department string) (string, bool) {
	resolved := event.CreatedBy
	if event.EnableMultiDepartment {
		if id, ok := event.DepartmentOrganizers[department]; ok && id != "" {
			resolved = id
			return checkPlaceholder(resolved)
		}
	}
	if event.AssignedTo != "" {
		resolved = event.AssignedTo
	}
	return checkPlaceholder(resolved)
}

func checkPlaceholder(id string) (string, bool) {
	if id == "" || id == AdminPlaceholder {
		return "", false
	}
	return id, true
}
