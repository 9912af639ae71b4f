package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"fairgate/internal/fairness"
	"fairgate/internal/monitor/metrics"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
	"fairgate/pkg/requestcontext"
)

// registration is one process stream the sweep re-evaluates periodically.
type registration struct {
	ProcessType ProcessType
	Source      DataSource
}

// Service orchestrates bias monitoring: evaluation, threshold checks, alert
// lifecycle, audit trail, and the dashboard cache. Construct one per host
// application and inject it; there is no package-level singleton.
type Service struct {
	calc       *fairness.Calculator
	alerts     AlertStore
	audit      AuditStore
	cache      ResultCache
	notifier   Notifier
	thresholds *ThresholdStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	// workers bounds concurrent CPU-bound calculations so parallel
	// evaluations are not serialized but also cannot starve the host.
	workers  *semaphore.Weighted
	cacheTTL time.Duration
	// maxRetryElapsed caps the exponential backoff on alert/audit writes.
	maxRetryElapsed time.Duration

	mu      sync.RWMutex
	streams map[id.ProcessID]registration
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNotifier sets the alert feed sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithWorkerLimit bounds concurrent statistical computations.
func WithWorkerLimit(n int64) Option {
	return func(s *Service) { s.workers = semaphore.NewWeighted(n) }
}

// WithCacheTTL overrides the dashboard cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

// WithRetryBudget caps how long persistence retries may take.
func WithRetryBudget(d time.Duration) Option {
	return func(s *Service) { s.maxRetryElapsed = d }
}

// NewService constructs the monitoring service with its required stores.
func NewService(calc *fairness.Calculator, alerts AlertStore, audit AuditStore, cache ResultCache, thresholds *ThresholdStore, opts ...Option) (*Service, error) {
	if calc == nil {
		return nil, fmt.Errorf("fairness calculator is required")
	}
	if alerts == nil {
		return nil, fmt.Errorf("alert store is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("result cache is required")
	}
	if thresholds == nil {
		return nil, fmt.Errorf("threshold store is required")
	}

	s := &Service{
		calc:            calc,
		alerts:          alerts,
		audit:           audit,
		cache:           cache,
		thresholds:      thresholds,
		logger:          slog.Default(),
		tracer:          otel.Tracer("fairgate/monitor"),
		workers:         semaphore.NewWeighted(4),
		cacheTTL:        5 * time.Minute,
		maxRetryElapsed: 3 * time.Second,
		streams:         make(map[id.ProcessID]registration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register adds a process stream for sweep re-evaluation and cache-miss
// recomputation.
func (s *Service) Register(processID id.ProcessID, processType ProcessType, source DataSource) error {
	if !processType.IsValid() {
		return derrors.Newf(derrors.CodeInvalidInput, "unknown process type %q", processType)
	}
	if source == nil {
		return derrors.New(derrors.CodeInvalidInput, "data source is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[processID] = registration{ProcessType: processType, Source: source}
	return nil
}

// Stream is one registered process stream.
type Stream struct {
	ProcessID   id.ProcessID
	ProcessType ProcessType
	Source      DataSource
}

// Streams returns a stable snapshot of the registry, ordered by process ID.
func (s *Service) Streams() []Stream {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Stream, 0, len(s.streams))
	for pid, reg := range s.streams {
		out = append(out, Stream{ProcessID: pid, ProcessType: reg.ProcessType, Source: reg.Source})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessID.String() < out[j].ProcessID.String() })
	return out
}

// MonitorProcess runs one full evaluation of a process batch.
//
// The computation is complete-recomputation: concurrent evaluations of the
// same process race benignly with last-writer-wins on the snapshot. A
// cancelled computation publishes nothing. Persistence faults degrade to an
// integrity warning; the computed result is still returned to the caller.
func (s *Service) MonitorProcess(ctx context.Context, processID id.ProcessID, processType ProcessType, batch *Batch) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "monitor.MonitorProcess",
		trace.WithAttributes(
			attribute.String("process.id", processID.String()),
			attribute.String("process.type", string(processType)),
		))
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)

	if processID.IsNil() {
		return nil, derrors.New(derrors.CodeInvalidInput, "process_id is required")
	}
	if !processType.IsValid() {
		return nil, derrors.Newf(derrors.CodeInvalidInput, "unknown process type %q", processType)
	}
	if batch == nil {
		return nil, derrors.New(derrors.CodeInvalidInput, "batch is required")
	}

	result := &Result{
		MonitoringID: id.NewMonitoringID(),
		ProcessID:    processID,
		ProcessType:  processType,
		Timestamp:    now,
	}

	// An empty stream has nothing to be biased about; short-circuit to a
	// trivially compliant result instead of failing the caller.
	if len(batch.Records) == 0 {
		result.ComplianceStatus = StatusCompliant
		result.Violations = []Violation{}
		result.Recommendations = []string{}
		result.ProcessingTimeMS = time.Since(start).Milliseconds()
		s.persist(ctx, result, s.thresholds.EffectiveAt(now).Config, time.Since(start))
		s.metrics.ObserveEvaluation(time.Since(start).Seconds())
		return result, nil
	}

	input, err := extractSubjects(processType, batch)
	if err != nil {
		s.metrics.IncFailure()
		return nil, err
	}

	analysis, err := s.calculate(ctx, input)
	if err != nil {
		s.metrics.IncFailure()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// Cancelled mid-computation: discard entirely, publish nothing.
		return nil, err
	}

	version := s.thresholds.EffectiveAt(now)
	violations := evaluateThresholds(analysis, version.Config, now)

	result.Analysis = analysis
	result.Violations = violations
	result.ComplianceStatus = complianceFor(violations)
	result.Recommendations = recommendations(violations)
	result.ProcessingTimeMS = time.Since(start).Milliseconds()

	for _, v := range violations {
		s.metrics.IncViolation(string(v.Severity))
		s.raiseAlert(ctx, result, v)
	}

	s.persist(ctx, result, version.Config, time.Since(start))
	s.metrics.ObserveEvaluation(time.Since(start).Seconds())

	s.logger.InfoContext(ctx, "process evaluated",
		"monitoring_id", result.MonitoringID,
		"process_id", processID,
		"process_type", processType,
		"compliance", result.ComplianceStatus,
		"violations", len(violations),
		"overall_score", analysis.OverallBiasScore,
		"duration_ms", result.ProcessingTimeMS,
	)
	return result, nil
}

// calculate runs the CPU-bound analysis under the worker semaphore.
func (s *Service) calculate(ctx context.Context, input fairness.Input) (*fairness.Metrics, error) {
	if err := s.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.workers.Release(1)
	return s.calc.Calculate(ctx, input)
}

// raiseAlert creates or refreshes the alert for one violation and emits the
// feed event on creation. Store faults retry with backoff and degrade to an
// integrity warning.
func (s *Service) raiseAlert(ctx context.Context, result *Result, v Violation) {
	candidate := Alert{
		ID: id.NewAlertID(),
		Key: AlertKey{
			ProcessID: result.ProcessID,
			Type:      v.Type,
			Metric:    v.Metric,
		},
		ProcessType: result.ProcessType,
		Violation:   v,
		Analysis:    *result.Analysis,
		Status:      AlertActive,
		CreatedAt:   result.Timestamp,
		UpdatedAt:   result.Timestamp,
	}

	var stored *Alert
	var created bool
	err := s.withRetry(ctx, func() error {
		var upsertErr error
		stored, created, upsertErr = s.alerts.Upsert(ctx, candidate)
		return upsertErr
	})
	if err != nil {
		s.metrics.IncPersistFailure()
		s.logger.ErrorContext(ctx, "integrity warning: alert upsert failed after retries",
			"process_id", result.ProcessID,
			"violation_type", v.Type,
			"metric", v.Metric,
			"error", err,
		)
		return
	}

	if created && s.notifier != nil {
		if err := s.notifier.AlertCreated(ctx, *stored); err != nil {
			s.logger.WarnContext(ctx, "alert feed emit failed",
				"alert_id", stored.ID,
				"error", err,
			)
		}
	}
	s.refreshAlertGauge(ctx)
}

// persist appends the audit entry and publishes the dashboard cache entry.
// Neither failure is surfaced to the caller; the result already exists.
func (s *Service) persist(ctx context.Context, result *Result, cfg ThresholdConfig, elapsed time.Duration) {
	entry := AuditEntry{
		MonitoringID: result.MonitoringID,
		ProcessID:    result.ProcessID,
		ProcessType:  result.ProcessType,
		Analysis:     result.Analysis,
		Violations:   result.Violations,
		Compliance:   result.ComplianceStatus,
		Thresholds:   cfg,
		Timestamp:    result.Timestamp,
		DurationMS:   elapsed.Milliseconds(),
	}
	if err := s.withRetry(ctx, func() error { return s.audit.Append(ctx, entry) }); err != nil {
		s.metrics.IncPersistFailure()
		s.logger.ErrorContext(ctx, "integrity warning: audit append failed after retries",
			"monitoring_id", result.MonitoringID,
			"process_id", result.ProcessID,
			"error", err,
		)
	}

	if err := s.cache.Put(ctx, result, s.cacheTTL); err != nil {
		// Best-effort: a cold cache only costs a recomputation.
		s.logger.WarnContext(ctx, "result cache publish failed",
			"process_id", result.ProcessID,
			"error", err,
		)
	}
}

func (s *Service) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = s.maxRetryElapsed
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

func (s *Service) refreshAlertGauge(ctx context.Context) {
	active, err := s.alerts.ListActive(ctx)
	if err != nil {
		return
	}
	s.metrics.SetActiveAlerts(len(active))
}

// LatestResult serves dashboard reads: cache hit first, recomputation from
// the registered data source on a miss. Stale-as-correct is never an option.
func (s *Service) LatestResult(ctx context.Context, processID id.ProcessID) (*Result, error) {
	if cached, err := s.cache.Get(ctx, processID); err == nil && cached != nil {
		return cached, nil
	}

	s.mu.RLock()
	reg, ok := s.streams[processID]
	s.mu.RUnlock()
	if !ok {
		return nil, derrors.Newf(derrors.CodeNotFound,
			"no cached result and no registered source for process %s", processID)
	}

	batch, err := reg.Source.FetchBatch(ctx, processID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "fetch batch for recomputation")
	}
	return s.MonitorProcess(ctx, processID, reg.ProcessType, batch)
}

// AcknowledgeAlert moves an active alert to acknowledged.
func (s *Service) AcknowledgeAlert(ctx context.Context, alertID id.AlertID) (*Alert, error) {
	return s.transitionAlert(ctx, alertID, AlertAcknowledged)
}

// ResolveAlert moves an active or acknowledged alert to resolved.
func (s *Service) ResolveAlert(ctx context.Context, alertID id.AlertID) (*Alert, error) {
	return s.transitionAlert(ctx, alertID, AlertResolved)
}

func (s *Service) transitionAlert(ctx context.Context, alertID id.AlertID, next AlertStatus) (*Alert, error) {
	now := requestcontext.Now(ctx)
	alert, err := s.alerts.Transition(ctx, alertID, next, now)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if nerr := s.notifier.AlertTransitioned(ctx, *alert); nerr != nil {
			s.logger.WarnContext(ctx, "alert feed emit failed",
				"alert_id", alert.ID,
				"error", nerr,
			)
		}
	}
	s.refreshAlertGauge(ctx)

	s.logger.InfoContext(ctx, "alert transitioned",
		"alert_id", alert.ID,
		"status", alert.Status,
		"actor", requestcontext.Actor(ctx),
	)
	return alert, nil
}

// UpdateThresholds appends a new threshold version. The change itself is an
// auditable event: the version history records who changed what and when.
func (s *Service) UpdateThresholds(ctx context.Context, cfg ThresholdConfig, effectiveAt time.Time) error {
	actor := requestcontext.Actor(ctx)
	if err := s.thresholds.Update(cfg, effectiveAt, actor); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "thresholds updated",
		"actor", actor,
		"effective_at", effectiveAt,
		"warning", cfg.Warning,
		"critical", cfg.Critical,
		"demographic_parity", cfg.DemographicParity,
		"equalized_odds", cfg.EqualizedOdds,
		"effect_size", cfg.EffectSize,
	)
	return nil
}

// Thresholds exposes the current effective version and history size for the
// admin read endpoint.
func (s *Service) Thresholds(now time.Time) (ThresholdVersion, int) {
	return s.thresholds.EffectiveAt(now), len(s.thresholds.History())
}

// ActiveAlerts lists unresolved alerts for the dashboard.
func (s *Service) ActiveAlerts(ctx context.Context) ([]Alert, error) {
	return s.alerts.ListActive(ctx)
}
