package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fairgate/internal/fairness"
	"fairgate/internal/monitor"
	"fairgate/internal/monitor/cache"
	alertstore "fairgate/internal/monitor/store/alert"
	auditstore "fairgate/internal/monitor/store/audit"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
	"fairgate/pkg/requestcontext"
)

type ReportSuite struct {
	suite.Suite
	service *monitor.Service
	audits  *auditstore.InMemoryStore
	ctx     context.Context
	from    time.Time
	to      time.Time
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportSuite))
}

func (s *ReportSuite) SetupTest() {
	s.from = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.to = s.from.AddDate(0, 0, 7)
	s.ctx = requestcontext.WithTime(context.Background(), s.to)

	s.audits = auditstore.NewMemory()
	service, err := monitor.NewService(
		fairness.NewCalculator(),
		alertstore.NewMemory(),
		s.audits,
		cache.NewMemory(),
		monitor.NewThresholdStore(monitor.DefaultThresholds(), s.from),
	)
	s.Require().NoError(err)
	s.service = service
}

func (s *ReportSuite) seedEntry(processType monitor.ProcessType, at time.Time, score float64, status monitor.ComplianceStatus, violations ...monitor.Violation) {
	err := s.audits.Append(s.ctx, monitor.AuditEntry{
		MonitoringID: id.NewMonitoringID(),
		ProcessID:    id.NewProcessID(),
		ProcessType:  processType,
		Analysis:     &fairness.Metrics{OverallBiasScore: score},
		Violations:   violations,
		Compliance:   status,
		Thresholds:   monitor.DefaultThresholds(),
		Timestamp:    at,
		DurationMS:   12,
	})
	s.Require().NoError(err)
}

func (s *ReportSuite) seedWeek() {
	parity := monitor.Violation{
		Type: monitor.ViolationDemographicParity, Severity: fairness.SeverityHigh, Metric: "gender",
	}
	impact := monitor.Violation{
		Type: monitor.ViolationDisparateImpact, Severity: fairness.SeverityMedium, Metric: "gender",
	}
	overall := monitor.Violation{
		Type: monitor.ViolationOverallScore, Severity: fairness.SeverityCritical, Metric: "overall",
	}

	s.seedEntry(monitor.ProcessHiringDecision, s.from.Add(6*time.Hour), 0.65, monitor.StatusViolationDetected, parity, impact)
	s.seedEntry(monitor.ProcessHiringDecision, s.from.AddDate(0, 0, 1), 0.72, monitor.StatusNonCompliant, parity, overall)
	s.seedEntry(monitor.ProcessApplicationReview, s.from.AddDate(0, 0, 2), 0.1, monitor.StatusCompliant)
	s.seedEntry(monitor.ProcessApplicationReview, s.from.AddDate(0, 0, 4), 0.15, monitor.StatusCompliant)
	s.seedEntry(monitor.ProcessHiringDecision, s.from.AddDate(0, 0, 5), 0.35, monitor.StatusCompliant)
	s.seedEntry(monitor.ProcessHiringDecision, s.from.AddDate(0, 0, 6), 0.3, monitor.StatusCompliant)
}

func (s *ReportSuite) TestComplianceReport() {
	s.seedWeek()

	report, err := s.service.GenerateReport(s.ctx, monitor.ReportCompliance, s.from, s.to)
	s.Require().NoError(err)

	s.Equal(6, report.Evaluations)
	s.False(report.LowConfidence)
	s.Require().NotNil(report.Compliance)
	s.Equal(4, report.Compliance.ByStatus[monitor.StatusCompliant])
	s.Equal(1, report.Compliance.ByStatus[monitor.StatusViolationDetected])
	s.Equal(1, report.Compliance.ByStatus[monitor.StatusNonCompliant])
	s.InDelta(4.0/6.0, report.Compliance.ComplianceRate, 1e-9)
	s.Equal(4, report.Compliance.Violations)
	s.Equal(1, report.Compliance.BySeverity[fairness.SeverityCritical])
	s.Equal(2, report.Compliance.BySeverity[fairness.SeverityHigh])
}

func (s *ReportSuite) TestTrendReportDirection() {
	s.seedWeek()

	report, err := s.service.GenerateReport(s.ctx, monitor.ReportTrend, s.from, s.to)
	s.Require().NoError(err)

	s.Require().NotNil(report.Trend)
	s.Len(report.Trend.Points, 6, "one point per day with data")
	s.Equal("improving", report.Trend.Direction,
		"first-half scores 0.65/0.72/0.1 fall to 0.15/0.35/0.3")
	s.Greater(report.Trend.FirstHalf, report.Trend.LastHalf)
}

func (s *ReportSuite) TestViolationSummaryReport() {
	s.seedWeek()

	report, err := s.service.GenerateReport(s.ctx, monitor.ReportViolationSummary, s.from, s.to)
	s.Require().NoError(err)

	s.Require().NotNil(report.ViolationSummary)
	s.Equal(2, report.ViolationSummary.ByType[monitor.ViolationDemographicParity])
	s.Equal(1, report.ViolationSummary.ByType[monitor.ViolationDisparateImpact])
	s.Equal(3, report.ViolationSummary.ByMetric["gender"])
	s.Equal("gender", report.ViolationSummary.TopMetric)
}

func (s *ReportSuite) TestProcessPerformanceReport() {
	s.seedWeek()

	report, err := s.service.GenerateReport(s.ctx, monitor.ReportProcessPerformance, s.from, s.to)
	s.Require().NoError(err)

	s.Require().NotNil(report.ProcessPerformance)
	byType := report.ProcessPerformance.ByProcessType
	s.Require().Len(byType, 2)

	hiring := byType[monitor.ProcessHiringDecision]
	s.Equal(4, hiring.Evaluations)
	s.InDelta(0.505, hiring.AverageScore, 1e-9)
	s.InDelta(0.5, hiring.ComplianceRate, 1e-9)

	review := byType[monitor.ProcessApplicationReview]
	s.Equal(2, review.Evaluations)
	s.InDelta(1.0, review.ComplianceRate, 1e-9)
}

func (s *ReportSuite) TestEmptyWindowLowConfidence() {
	report, err := s.service.GenerateReport(s.ctx, monitor.ReportCompliance, s.from, s.to)
	s.Require().NoError(err)

	s.Equal(0, report.Evaluations)
	s.True(report.LowConfidence)
	s.Require().NotNil(report.Compliance)
	s.Zero(report.Compliance.ComplianceRate)
}

func (s *ReportSuite) TestWindowBoundsHonored() {
	s.seedWeek()
	// Entry exactly at the window end is excluded (half-open interval).
	s.seedEntry(monitor.ProcessHiringDecision, s.to, 0.9, monitor.StatusNonCompliant)

	report, err := s.service.GenerateReport(s.ctx, monitor.ReportCompliance, s.from, s.to)
	s.Require().NoError(err)
	s.Equal(6, report.Evaluations)
}

func (s *ReportSuite) TestInvalidRequests() {
	_, err := s.service.GenerateReport(s.ctx, monitor.ReportType("quarterly"), s.from, s.to)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInvalidInput))

	_, err = s.service.GenerateReport(s.ctx, monitor.ReportCompliance, s.to, s.from)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInvalidInput))
}
