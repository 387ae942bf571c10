package model

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every lifecycle state in display order.
var Statuses = []Status{
	StatusPending,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HasAssignee reports whether a report in state s carries an assigned volunteer.
func (s Status) HasAssignee() bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusCompleted
}

type Role string

const (
	RoleReporter  Role = "reporter"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleReporter || r == RoleVolunteer || r == RoleAdmin
}

type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

type RescueReport struct {
	ID                  int64     `json:"id"`
	Location            string    `json:"location"`
	Latitude            *string   `json:"latitude"`
	Longitude           *string   `json:"longitude"`
	Description         string    `json:"description"`
	Urgent              bool      `json:"urgent"`
	Status              Status    `json:"status"`
	AssignedVolunteerID *int64    `json:"assignedVolunteerId"`
	ReporterID          int64     `json:"reporterId"`
	CreatedAt           time.Time `json:"createdAt"`
}

// IsAssignee reports whether actor currently holds the report.
func (r *RescueReport) IsAssignee(actor Actor) bool {
	return r.AssignedVolunteerID != nil && *r.AssignedVolunteerID == actor.ID
}

type ReportDraft struct {
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Urgent      bool    `json:"urgent"`
	Latitude    *string `json:"latitude"`
	Longitude   *string `json:"longitude"`
}

// Normalize trims free text and drops blank coordinates.
func (d ReportDraft) Normalize() ReportDraft {
	d.Location = strings.TrimSpace(d.Location)
	d.Description = strings.TrimSpace(d.Description)
	d.Latitude = trimOptional(d.Latitude)
	d.Longitude = trimOptional(d.Longitude)
	return d
}

func (d ReportDraft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidDraft)
	}
	return ValidateCoordinates(d.Latitude, d.Longitude)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// StatusUpdate is the set of fields a single transition writes.
type StatusUpdate struct {
	Status              Status
	AssignedVolunteerID *int64
}

type MapPosition struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MapMarker struct {
	ReportID int64       `json:"reportId"`
	Position MapPosition `json:"position"`
	Status   Status      `json:"status"`
	Urgent   bool        `json:"urgent"`
	Color    string      `json:"color"`
	Location string      `json:"location"`
	Fallback bool        `json:"fallback"`
}
