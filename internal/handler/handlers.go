package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"rescue-coordination/internal/lifecycle"
	"rescue-coordination/internal/middleware"
	"rescue-coordination/internal/model"
	"rescue-coordination/internal/projection"
	"rescue-coordination/internal/response"
	"rescue-coordination/internal/service"
	"rescue-coordination/internal/tracing"

	"github.com/sirupsen/logrus"
)

type ReportService interface {
	HealthCheck(ctx context.Context) *service.HealthError
	Submit(ctx context.Context, draft model.ReportDraft, actor model.Actor) (*model.RescueReport, error)
	Get(ctx context.Context, id int64, actor model.Actor) (*service.ReportView, error)
	List(ctx context.Context, actor model.Actor, f service.ListFilter) ([]model.RescueReport, error)
	Transition(ctx context.Context, id int64, target model.Status, actor model.Actor) (*model.RescueReport, error)
	Position(ctx context.Context, id int64, actor model.Actor) (model.MapPosition, error)
	Stats(ctx context.Context) (projection.Summary, error)
	Map(ctx context.Context, actor model.Actor, includeClosed bool) (*service.MapView, error)
}

type Handler struct {
	logger  *logrus.Logger
	service ReportService
}

func NewHandler(logger *logrus.Logger, service ReportService) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// ReportsHandler serves /api/v1/reports.
func (h *Handler) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateReport(w, r)
	case http.MethodGet:
		h.ListReports(w, r)
	default:
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

// ReportByIDHandler serves /api/v1/reports/{id}, /status and /position.
func (h *Handler) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/reports/"), "/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "Invalid report ID", "")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.GetReport(w, r, id)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPatch:
		h.UpdateStatus(w, r, id)
	case len(parts) == 2 && parts[1] == "position" && r.Method == http.MethodGet:
		h.GetPosition(w, r, id)
	case len(parts) == 1 || (len(parts) == 2 && (parts[1] == "status" || parts[1] == "position")):
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	default:
		response.Error(w, http.StatusNotFound, "Not found", "")
	}
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var draft model.ReportDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.logger.WithError(err).Info("Invalid request body in CreateReport")
		response.Error(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	report, err := h.service.Submit(r.Context(), draft, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Report created", report)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := service.ListFilter{
		Status:     model.Status(q.Get("status")),
		UrgentOnly: q.Get("urgent") == "true",
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(w, http.StatusBadRequest, "Invalid status filter", string(filter.Status))
		return
	}

	reports, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Reports fetched", reports)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), id, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Report fetched", view)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var input struct {
		Status model.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	report, err := h.service.Transition(r.Context(), id, input.Status, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Report status updated", report)
}

func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	pos, err := h.service.Position(r.Context(), id, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Position resolved", pos)
}

type lifecycleEdge struct {
	From   model.Status `json:"from"`
	To     model.Status `json:"to"`
	Permit string       `json:"permit"`
}

type lifecycleView struct {
	Statuses []model.Status  `json:"statuses"`
	Edges    []lifecycleEdge `json:"edges"`
}

// LifecycleHandler serves the transition table so clients can render the
// status flow without hard-coding it.
func (h *Handler) LifecycleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	view := lifecycleView{Statuses: model.Statuses}
	for _, e := range lifecycle.Edges() {
		view.Edges = append(view.Edges, lifecycleEdge{From: e.From, To: e.To, Permit: e.Permit.String()})
	}
	response.Success(w, http.StatusOK, "Report lifecycle", view)
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	summary, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Statistics computed", summary)
}

func (h *Handler) MapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	view, err := h.service.Map(r.Context(), actor, r.URL.Query().Get("all") == "true")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Map rendered", view)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status": "ok",
		"db":     "ok",
		"redis":  "ok",
	}

	if herr := h.service.HealthCheck(r.Context()); herr != nil {
		body["status"] = "degraded"
		if herr.DBError != nil {
			body["db"] = "error"
		}
		if herr.RedisError != nil {
			body["redis"] = "error"
		}
		h.logger.WithError(herr).Warn("health check degraded")
	}

	response.JSON(w, http.StatusOK, body)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized", "")
	}
	return actor, ok
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Report not found", "")
	case errors.Is(err, model.ErrInvalidTransition):
		response.Error(w, http.StatusBadRequest, "Invalid status transition", err.Error())
	case errors.Is(err, model.ErrInvalidDraft):
		response.Error(w, http.StatusBadRequest, "Invalid report", err.Error())
	case errors.Is(err, model.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, model.ErrConflict):
		response.Error(w, http.StatusConflict, "Report was updated by someone else, reload and try again", "")
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"trace_id": tracing.FromContext(r.Context()),
			"path":     r.URL.Path,
		}).Error("request failed")
		response.Error(w, http.StatusInternalServerError, "Internal error", "")
	}
}
