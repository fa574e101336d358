package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusConfirmed, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusPending, true},
		{StatusConfirmed, StatusPending, true},
		{StatusRejected, StatusPending, true},
		// Terminal states only re-open.
		{StatusConfirmed, StatusApproved, false},
		{StatusConfirmed, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusActive(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusApproved.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.False(t, StatusRejected.Active())
}

func TestPaperStatusCanTransitionTo(t *testing.T) {
	assert.True(t, PaperPending.CanTransitionTo(PaperAccepted))
	assert.True(t, PaperPending.CanTransitionTo(PaperRejected))

	assert.False(t, PaperNotApplicable.CanTransitionTo(PaperAccepted))
	assert.False(t, PaperAccepted.CanTransitionTo(PaperRejected))
	assert.False(t, PaperRejected.CanTransitionTo(PaperPending))
	assert.False(t, PaperPending.CanTransitionTo(PaperNotApplicable))
}

func TestValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("cancelled").Valid())
	assert.True(t, PaperAccepted.Valid())
	assert.False(t, PaperStatus("waitlisted").Valid())
	assert.True(t, RoleOrganizer.Valid())
	assert.False(t, Role("superuser").Valid())
}
