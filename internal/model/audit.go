package model

import "time"

type AuditOutcome string

const (
	AuditApplied  AuditOutcome = "applied"
	AuditRefused  AuditOutcome = "refused"
	AuditConflict AuditOutcome = "conflict"
)

// AuditEvent records one transition attempt that reached the authorization
// step. PreviousAssignee keeps the holder of a report that was cancelled.
type AuditEvent struct {
	ReportID         int64        `json:"report_id"`
	ActorID          int64        `json:"actor_id"`
	ActorRole        Role         `json:"actor_role"`
	From             Status       `json:"from"`
	To               Status       `json:"to"`
	Outcome          AuditOutcome `json:"outcome"`
	PreviousAssignee *int64       `json:"previous_assignee,omitempty"`
	Urgent           bool         `json:"urgent"`
	TraceID          string       `json:"trace_id,omitempty"`
	At               time.Time    `json:"at"`
}
