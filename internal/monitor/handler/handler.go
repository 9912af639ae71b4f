// Package handler wires the monitoring HTTP endpoints to the monitor
// service, keeping transport concerns out of the domain.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
	"fairgate/pkg/platform/httputil"
	"fairgate/pkg/requestcontext"
)

// Service defines the monitoring operations the handler exposes.
type Service interface {
	MonitorProcess(ctx context.Context, processID id.ProcessID, processType monitor.ProcessType, batch *monitor.Batch) (*monitor.Result, error)
	LatestResult(ctx context.Context, processID id.ProcessID) (*monitor.Result, error)
	Dashboard(ctx context.Context, from, to time.Time) (*monitor.DashboardData, error)
	GenerateReport(ctx context.Context, reportType monitor.ReportType, from, to time.Time) (*monitor.Report, error)
	ActiveAlerts(ctx context.Context) ([]monitor.Alert, error)
	AcknowledgeAlert(ctx context.Context, alertID id.AlertID) (*monitor.Alert, error)
	ResolveAlert(ctx context.Context, alertID id.AlertID) (*monitor.Alert, error)
	UpdateThresholds(ctx context.Context, cfg monitor.ThresholdConfig, effectiveAt time.Time) error
	Thresholds(now time.Time) (monitor.ThresholdVersion, int)
}

// HealthChecker reports one dependency's reachability.
type HealthChecker func(ctx context.Context) error

// Handler wires monitoring endpoints to the monitor service.
type Handler struct {
	service Service
	logger  *slog.Logger
	checks  map[string]HealthChecker
}

// New constructs a monitoring handler with its dependencies.
func New(service Service, logger *slog.Logger, checks map[string]HealthChecker) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		checks:  checks,
	}
}

// Register mounts the public monitoring endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/monitor/process", h.HandleMonitorProcess)
	r.Get("/monitor/results/{processID}", h.HandleLatestResult)
	r.Get("/monitor/dashboard", h.HandleDashboard)
	r.Get("/monitor/reports/{reportType}", h.HandleReport)
	r.Get("/alerts", h.HandleListAlerts)
	r.Get("/healthz", h.HandleHealth)
}

// RegisterAdmin mounts the admin endpoints; the router guards them with
// authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/alerts/{alertID}/acknowledge", h.HandleAcknowledgeAlert)
	r.Post("/alerts/{alertID}/resolve", h.HandleResolveAlert)
	r.Get("/admin/thresholds", h.HandleGetThresholds)
	r.Put("/admin/thresholds", h.HandleUpdateThresholds)
}

// HandleMonitorProcess handles POST /monitor/process requests.
func (h *Handler) HandleMonitorProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MonitorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.MonitorProcess(ctx, req.ParsedProcessID(), req.ParsedProcessType(), &req.Batch)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual evaluation failed",
			"request_id", requestID,
			"process_id", req.ProcessID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleLatestResult handles GET /monitor/results/{processID} requests.
func (h *Handler) HandleLatestResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	processID, err := id.ParseProcessID(chi.URLParam(r, "processID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.LatestResult(ctx, processID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleDashboard handles GET /monitor/dashboard requests.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseWindow(r, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	data, err := h.service.Dashboard(ctx, from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "dashboard assembly failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

// HandleReport handles GET /monitor/reports/{reportType} requests.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseWindow(r, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.GenerateReport(ctx, monitor.ReportType(chi.URLParam(r, "reportType")), from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleListAlerts handles GET /alerts requests.
func (h *Handler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ActiveAlerts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AlertListResponse{Alerts: alerts, Count: len(alerts)})
}

// HandleAcknowledgeAlert handles POST /alerts/{alertID}/acknowledge requests.
func (h *Handler) HandleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.AcknowledgeAlert)
}

// HandleResolveAlert handles POST /alerts/{alertID}/resolve requests.
func (h *Handler) HandleResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ResolveAlert)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.AlertID) (*monitor.Alert, error)) {
	ctx := r.Context()

	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	alert, err := op(ctx, alertID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alert)
}

// HandleGetThresholds handles GET /admin/thresholds requests.
func (h *Handler) HandleGetThresholds(w http.ResponseWriter, r *http.Request) {
	version, count := h.service.Thresholds(requestcontext.Now(r.Context()))
	httputil.WriteJSON(w, http.StatusOK, FromThresholdVersion(version, count))
}

// HandleUpdateThresholds handles PUT /admin/thresholds requests.
func (h *Handler) HandleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ThresholdUpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	effectiveAt := requestcontext.Now(ctx)
	if req.EffectiveAt != nil {
		effectiveAt = *req.EffectiveAt
	}

	if err := h.service.UpdateThresholds(ctx, req.Config(), effectiveAt); err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, count := h.service.Thresholds(effectiveAt)
	httputil.WriteJSON(w, http.StatusOK, FromThresholdVersion(version, count))
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

// parseWindow reads the from/to query window, defaulting to the last 24
// hours.
func parseWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from := now.Add(-24 * time.Hour)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, derrors.New(derrors.CodeBadRequest, "from must be RFC3339")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, derrors.New(derrors.CodeBadRequest, "to must be RFC3339")
		}
		to = parsed
	}
	return from, to, nil
}
