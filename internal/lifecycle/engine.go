package lifecycle

import (
	"context"
	"fmt"

	"rescue-coordination/internal/model"

	"github.com/sirupsen/logrus"
)

// Store is the report store the engine reads and writes through.
// CompareAndSwapStatus must apply update only while the stored status equals
// expected, returning model.ErrConflict otherwise.
type Store interface {
	Get(ctx context.Context, id int64) (*model.RescueReport, error)
	List(ctx context.Context) ([]model.RescueReport, error)
	CompareAndSwapStatus(ctx context.Context, id int64, expected model.Status, update model.StatusUpdate) (*model.RescueReport, error)
	Create(ctx context.Context, draft model.ReportDraft, reporterID int64) (*model.RescueReport, error)
}

type Engine struct {
	store  Store
	logger *logrus.Logger
}

func NewEngine(store Store, logger *logrus.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// Submit stores a new report in the pending state on behalf of actor.
func (e *Engine) Submit(ctx context.Context, draft model.ReportDraft, actor model.Actor) (*model.RescueReport, error) {
	if !actor.Role.Valid() {
		return nil, model.ErrForbidden
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	report, err := e.store.Create(ctx, draft, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"urgent":    report.Urgent,
		"reporter":  actor.ID,
	}).Info("report submitted")
	return report, nil
}

// Result describes one transition attempt. Before is the report as read
// prior to validation; After is set only when the write succeeded.
type Result struct {
	Before *model.RescueReport
	After  *model.RescueReport
	Target model.Status
}

// RequestTransition validates and applies a single status change. A concurrent
// writer that moved the report first yields model.ErrConflict.
func (e *Engine) RequestTransition(ctx context.Context, id int64, target model.Status, actor model.Actor) (*model.RescueReport, error) {
	res, err := e.Attempt(ctx, id, target, actor)
	if err != nil {
		return nil, err
	}
	return res.After, nil
}

// Attempt is RequestTransition returning the surrounding context as well.
// Before is populated whenever the report could be read, even on error.
func (e *Engine) Attempt(ctx context.Context, id int64, target model.Status, actor model.Actor) (Result, error) {
	res := Result{Target: target}

	report, err := e.store.Get(ctx, id)
	if err != nil {
		return res, err
	}
	res.Before = report

	if !target.Valid() {
		return res, fmt.Errorf("%w: unknown status %q", model.ErrInvalidTransition, target)
	}
	if _, ok := Lookup(report.Status, target); !ok {
		return res, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, report.Status, target)
	}
	if !CanTransition(report, target, actor) {
		e.logger.WithFields(logrus.Fields{
			"report_id":  report.ID,
			"actor_id":   actor.ID,
			"actor_role": actor.Role,
			"from":       report.Status,
			"to":         target,
		}).Warn("transition refused")
		return res, fmt.Errorf("%w: %s -> %s", model.ErrForbidden, report.Status, target)
	}

	updated, err := e.store.CompareAndSwapStatus(ctx, id, report.Status, Apply(report, target, actor))
	if err != nil {
		return res, err
	}
	res.After = updated

	e.logger.WithFields(logrus.Fields{
		"report_id": updated.ID,
		"actor_id":  actor.ID,
		"from":      report.Status,
		"to":        updated.Status,
	}).Info("transition applied")
	return res, nil
}
