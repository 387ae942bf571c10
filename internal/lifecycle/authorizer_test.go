package lifecycle

import (
	"testing"

	"rescue-coordination/internal/model"

	"github.com/stretchr/testify/assert"
)

func assigned(id int64) *int64 { return &id }

var (
	admin      = model.Actor{ID: 1, Role: model.RoleAdmin}
	volunteerA = model.Actor{ID: 5, Role: model.RoleVolunteer}
	volunteerB = model.Actor{ID: 9, Role: model.RoleVolunteer}
	reporter   = model.Actor{ID: 20, Role: model.RoleReporter}
)

func TestCanTransition(t *testing.T) {
	pending := &model.RescueReport{ID: 1, Status: model.StatusPending}
	held := &model.RescueReport{ID: 2, Status: model.StatusAssigned, AssignedVolunteerID: assigned(5)}
	working := &model.RescueReport{ID: 3, Status: model.StatusInProgress, AssignedVolunteerID: assigned(5)}
	done := &model.RescueReport{ID: 4, Status: model.StatusCompleted, AssignedVolunteerID: assigned(5)}

	cases := []struct {
		name   string
		report *model.RescueReport
		target model.Status
		actor  model.Actor
		want   bool
	}{
		{"volunteer claims", pending, model.StatusAssigned, volunteerA, true},
		{"admin claims", pending, model.StatusAssigned, admin, true},
		{"reporter claims", pending, model.StatusAssigned, reporter, false},
		{"assignee starts", held, model.StatusInProgress, volunteerA, true},
		{"other volunteer starts", held, model.StatusInProgress, volunteerB, false},
		{"admin starts", held, model.StatusInProgress, admin, true},
		{"assignee completes", working, model.StatusCompleted, volunteerA, true},
		{"other volunteer completes", working, model.StatusCompleted, volunteerB, false},
		{"admin cancels pending", pending, model.StatusCancelled, admin, true},
		{"admin cancels assigned", held, model.StatusCancelled, admin, true},
		{"assignee cancels", held, model.StatusCancelled, volunteerA, false},
		{"reporter cancels", pending, model.StatusCancelled, reporter, false},
		{"admin cancels in progress", working, model.StatusCancelled, admin, false},
		{"admin skips ahead", pending, model.StatusCompleted, admin, false},
		{"admin leaves terminal", done, model.StatusPending, admin, false},
		{"unknown role", pending, model.StatusAssigned, model.Actor{ID: 5, Role: "guest"}, false},
		{"nil report", nil, model.StatusAssigned, admin, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.report, tc.target, tc.actor))
		})
	}
}

func TestVolunteerWithoutAssigneeCannotStart(t *testing.T) {
	broken := &model.RescueReport{ID: 1, Status: model.StatusAssigned}
	assert.False(t, CanTransition(broken, model.StatusInProgress, volunteerA))
}

func TestAllowedTargets(t *testing.T) {
	pending := &model.RescueReport{Status: model.StatusPending}
	held := &model.RescueReport{Status: model.StatusAssigned, AssignedVolunteerID: assigned(5)}

	assert.Equal(t, []model.Status{model.StatusAssigned, model.StatusCancelled}, AllowedTargets(pending, admin))
	assert.Equal(t, []model.Status{model.StatusAssigned}, AllowedTargets(pending, volunteerB))
	assert.Empty(t, AllowedTargets(pending, reporter))
	assert.Equal(t, []model.Status{model.StatusInProgress}, AllowedTargets(held, volunteerA))
	assert.Empty(t, AllowedTargets(held, volunteerB))
	assert.Empty(t, AllowedTargets(&model.RescueReport{Status: model.StatusCancelled}, admin))
}
