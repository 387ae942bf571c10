package lifecycle

import "rescue-coordination/internal/model"

// CanTransition reports whether actor may move report to target. Edges absent
// from the table are never permitted.
func CanTransition(report *model.RescueReport, target model.Status, actor model.Actor) bool {
	if report == nil {
		return false
	}
	edge, ok := Lookup(report.Status, target)
	if !ok {
		return false
	}

	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleVolunteer:
		switch edge.Permit {
		case PermitVolunteerOrAdmin:
			return true
		case PermitAssigneeOrAdmin:
			return report.IsAssignee(actor)
		}
	}
	return false
}

// AllowedTargets lists the statuses actor may request for report right now.
func AllowedTargets(report *model.RescueReport, actor model.Actor) []model.Status {
	out := []model.Status{}
	if report == nil {
		return out
	}
	for _, to := range Reachable(report.Status) {
		if CanTransition(report, to, actor) {
			out = append(out, to)
		}
	}
	return out
}
