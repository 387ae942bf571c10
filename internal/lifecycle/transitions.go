// Package lifecycle holds the rescue report state machine: the edge table,
// the authorization predicate over it and the engine that applies transitions
// against a report store.
package lifecycle

import "rescue-coordination/internal/model"

// Permit names who may take an edge.
type Permit int

const (
	// PermitVolunteerOrAdmin allows any volunteer, or an admin.
	PermitVolunteerOrAdmin Permit = iota + 1
	// PermitAssigneeOrAdmin allows the volunteer holding the report, or an admin.
	PermitAssigneeOrAdmin
	// PermitAdmin allows admins only.
	PermitAdmin
)

func (p Permit) String() string {
	switch p {
	case PermitVolunteerOrAdmin:
		return "volunteer_or_admin"
	case PermitAssigneeOrAdmin:
		return "assignee_or_admin"
	case PermitAdmin:
		return "admin"
	}
	return "unknown"
}

type Edge struct {
	From   model.Status
	To     model.Status
	Permit Permit
}

var edges = []Edge{
	{From: model.StatusPending, To: model.StatusAssigned, Permit: PermitVolunteerOrAdmin},
	{From: model.StatusAssigned, To: model.StatusInProgress, Permit: PermitAssigneeOrAdmin},
	{From: model.StatusInProgress, To: model.StatusCompleted, Permit: PermitAssigneeOrAdmin},
	{From: model.StatusPending, To: model.StatusCancelled, Permit: PermitAdmin},
	{From: model.StatusAssigned, To: model.StatusCancelled, Permit: PermitAdmin},
}

// Edges returns a copy of the transition table.
func Edges() []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// Lookup finds the edge from -> to.
func Lookup(from, to model.Status) (Edge, bool) {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Reachable returns the statuses directly reachable from s, in table order.
func Reachable(from model.Status) []model.Status {
	var out []model.Status
	for _, e := range edges {
		if e.From == from {
			out = append(out, e.To)
		}
	}
	return out
}

// Apply computes the fields written when report takes the edge to target on
// behalf of actor. The edge must exist.
func Apply(report *model.RescueReport, target model.Status, actor model.Actor) model.StatusUpdate {
	upd := model.StatusUpdate{
		Status:              target,
		AssignedVolunteerID: report.AssignedVolunteerID,
	}
	switch {
	case report.Status == model.StatusPending && target == model.StatusAssigned:
		id := actor.ID
		upd.AssignedVolunteerID = &id
	case target == model.StatusCancelled:
		upd.AssignedVolunteerID = nil
	}
	return upd
}
