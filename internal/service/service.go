package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rescue-coordination/internal/geo"
	"rescue-coordination/internal/lifecycle"
	"rescue-coordination/internal/model"
	"rescue-coordination/internal/projection"
	"rescue-coordination/internal/tracing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/sirupsen/logrus"
)

// Recorder accepts audit events. repository.AuditQueue is the Redis-backed
// implementation.
type Recorder interface {
	Push(ctx context.Context, event model.AuditEvent) error
}

// Pinger reports backend health; a nil error means healthy or not configured.
type Pinger interface {
	Ping(ctx context.Context) (dbErr, redisErr error)
}

type HealthError struct {
	DBError    error
	RedisError error
}

func (e *HealthError) Error() string {
	return fmt.Sprintf("db=%v, redis=%v", e.DBError, e.RedisError)
}

type ListFilter struct {
	Status     model.Status
	UrgentOnly bool
}

type ReportView struct {
	Report             *model.RescueReport `json:"report"`
	Position           model.MapPosition   `json:"position"`
	AllowedTransitions []model.Status      `json:"allowedTransitions"`
}

type MapView struct {
	Features *geojson.FeatureCollection `json:"features"`
	Viewport geo.Viewport               `json:"viewport"`
}

type ReportService struct {
	store    lifecycle.Store
	engine   *lifecycle.Engine
	resolver *geo.Resolver
	recorder Recorder
	health   Pinger
	logger   *logrus.Logger
	now      func() time.Time
}

func NewReportService(store lifecycle.Store, resolver *geo.Resolver, recorder Recorder, health Pinger, logger *logrus.Logger) *ReportService {
	if recorder == nil {
		recorder = NewLogRecorder(logger)
	}
	return &ReportService{
		store:    store,
		engine:   lifecycle.NewEngine(store, logger),
		resolver: resolver,
		recorder: recorder,
		health:   health,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ReportService) HealthCheck(ctx context.Context) *HealthError {
	if s.health == nil {
		return nil
	}
	dbErr, redisErr := s.health.Ping(ctx)
	if dbErr == nil && redisErr == nil {
		return nil
	}
	return &HealthError{DBError: dbErr, RedisError: redisErr}
}

func (s *ReportService) Submit(ctx context.Context, draft model.ReportDraft, actor model.Actor) (*model.RescueReport, error) {
	return s.engine.Submit(ctx, draft, actor)
}

// Get returns the report with its map position and the transitions actor may
// request. Reports the actor may not see are reported as not found.
func (s *ReportService) Get(ctx context.Context, id int64, actor model.Actor) (*ReportView, error) {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !projection.Visible(report, actor) {
		return nil, model.ErrNotFound
	}
	return &ReportView{
		Report:             report,
		Position:           s.resolver.Resolve(report),
		AllowedTransitions: lifecycle.AllowedTargets(report, actor),
	}, nil
}

func (s *ReportService) List(ctx context.Context, actor model.Actor, f ListFilter) ([]model.RescueReport, error) {
	reports, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	reports = projection.ForActor(reports, actor)
	if f.Status != "" {
		reports = projection.WithStatus(reports, f.Status)
	}
	if f.UrgentOnly {
		reports = projection.UrgentSubset(reports)
	}
	return reports, nil
}

func (s *ReportService) Position(ctx context.Context, id int64, actor model.Actor) (model.MapPosition, error) {
	view, err := s.Get(ctx, id, actor)
	if err != nil {
		return model.MapPosition{}, err
	}
	return view.Position, nil
}

func (s *ReportService) Stats(ctx context.Context) (projection.Summary, error) {
	reports, err := s.store.List(ctx)
	if err != nil {
		return projection.Summary{}, err
	}
	return projection.Summarize(reports), nil
}

// Map renders the reports visible to actor. Terminal reports are left out
// unless includeClosed is set.
func (s *ReportService) Map(ctx context.Context, actor model.Actor, includeClosed bool) (*MapView, error) {
	reports, err := s.List(ctx, actor, ListFilter{})
	if err != nil {
		return nil, err
	}
	if !includeClosed {
		reports = projection.Active(reports)
	}
	markers := s.resolver.Markers(reports)
	return &MapView{
		Features: geo.FeatureCollection(markers),
		Viewport: geo.ViewportOf(geo.MarkerPositions(markers)),
	}, nil
}

// Transition applies a status change. A conflict is retried once against a
// fresh read; the retry's outcome is returned as is.
func (s *ReportService) Transition(ctx context.Context, id int64, target model.Status, actor model.Actor) (*model.RescueReport, error) {
	res, err := s.engine.Attempt(ctx, id, target, actor)
	s.record(ctx, res, actor, err)

	if errors.Is(err, model.ErrConflict) {
		s.logger.WithFields(logrus.Fields{
			"report_id": id,
			"to":        target,
			"trace_id":  tracing.FromContext(ctx),
		}).Info("conflicting update, retrying once")

		res, err = s.engine.Attempt(ctx, id, target, actor)
		s.record(ctx, res, actor, err)
	}
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

func (s *ReportService) record(ctx context.Context, res lifecycle.Result, actor model.Actor, err error) {
	from := "unknown"
	if res.Before != nil {
		from = string(res.Before.Status)
	}
	// requested statuses come from the client; only known ones become labels
	to := "invalid"
	if res.Target.Valid() {
		to = string(res.Target)
	}
	outcome := outcomeOf(err)
	transitionsTotal.WithLabelValues(from, to, outcome).Inc()

	var audit model.AuditOutcome
	switch outcome {
	case "applied":
		audit = model.AuditApplied
	case "refused":
		audit = model.AuditRefused
	case "conflict":
		audit = model.AuditConflict
	default:
		return
	}
	if res.Before == nil {
		return
	}

	event := model.AuditEvent{
		ReportID:         res.Before.ID,
		ActorID:          actor.ID,
		ActorRole:        actor.Role,
		From:             res.Before.Status,
		To:               res.Target,
		Outcome:          audit,
		PreviousAssignee: res.Before.AssignedVolunteerID,
		Urgent:           res.Before.Urgent,
		TraceID:          tracing.FromContext(ctx),
		At:               s.now().UTC(),
	}
	if err := s.recorder.Push(ctx, event); err != nil {
		s.logger.WithError(err).WithField("report_id", event.ReportID).Warn("failed to record audit event")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, model.ErrForbidden):
		return "refused"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	}
	return "error"
}
