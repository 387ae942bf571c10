// Package projection derives dashboard views from a snapshot of reports.
// Nothing here writes or caches; every call recomputes from its input.
package projection

import "rescue-coordination/internal/model"

func CountByStatus(reports []model.RescueReport) map[model.Status]int {
	counts := make(map[model.Status]int, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for _, r := range reports {
		if r.Status.Valid() {
			counts[r.Status]++
		}
	}
	return counts
}

func UrgentSubset(reports []model.RescueReport) []model.RescueReport {
	return filter(reports, func(r *model.RescueReport) bool { return r.Urgent })
}

// ForActor returns the reports actor may see. Reporters only see what they
// submitted.
func ForActor(reports []model.RescueReport, actor model.Actor) []model.RescueReport {
	switch actor.Role {
	case model.RoleVolunteer, model.RoleAdmin:
		return filter(reports, func(*model.RescueReport) bool { return true })
	case model.RoleReporter:
		return filter(reports, func(r *model.RescueReport) bool { return r.ReporterID == actor.ID })
	}
	return []model.RescueReport{}
}

// Visible reports whether a single report passes ForActor.
func Visible(report *model.RescueReport, actor model.Actor) bool {
	switch actor.Role {
	case model.RoleVolunteer, model.RoleAdmin:
		return true
	case model.RoleReporter:
		return report.ReporterID == actor.ID
	}
	return false
}

// Active drops reports in a terminal state.
func Active(reports []model.RescueReport) []model.RescueReport {
	return filter(reports, func(r *model.RescueReport) bool { return !r.Status.IsTerminal() })
}

func WithStatus(reports []model.RescueReport, status model.Status) []model.RescueReport {
	return filter(reports, func(r *model.RescueReport) bool { return r.Status == status })
}

type Summary struct {
	Total    int                  `json:"total"`
	ByStatus map[model.Status]int `json:"byStatus"`
	Urgent   int                  `json:"urgent"`
	// UrgentOpen counts urgent reports not yet completed or cancelled.
	UrgentOpen     int     `json:"urgentOpen"`
	CompletionRate float64 `json:"completionRate"`
	// TotalRescued is the number of completed reports.
	TotalRescued int `json:"totalRescued"`
	// ActiveVolunteers counts distinct volunteers holding an open report.
	ActiveVolunteers int `json:"activeVolunteers"`
}

func Summarize(reports []model.RescueReport) Summary {
	s := Summary{
		Total:    len(reports),
		ByStatus: CountByStatus(reports),
	}
	s.TotalRescued = s.ByStatus[model.StatusCompleted]

	holders := make(map[int64]struct{})
	for _, r := range reports {
		if r.AssignedVolunteerID != nil && !r.Status.IsTerminal() {
			holders[*r.AssignedVolunteerID] = struct{}{}
		}
		if !r.Urgent {
			continue
		}
		s.Urgent++
		if !r.Status.IsTerminal() {
			s.UrgentOpen++
		}
	}
	s.ActiveVolunteers = len(holders)
	if s.Total > 0 {
		s.CompletionRate = float64(s.ByStatus[model.StatusCompleted]) / float64(s.Total) * 100
	}
	return s
}

func filter(reports []model.RescueReport, keep func(*model.RescueReport) bool) []model.RescueReport {
	out := make([]model.RescueReport, 0, len(reports))
	for i := range reports {
		if keep(&reports[i]) {
			out = append(out, reports[i])
		}
	}
	return out
}
