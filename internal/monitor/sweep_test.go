package monitor_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fairgate/internal/fairness"
	"fairgate/internal/monitor"
	"fairgate/internal/monitor/cache"
	alertstore "fairgate/internal/monitor/store/alert"
	auditstore "fairgate/internal/monitor/store/audit"
	id "fairgate/pkg/domain"
	"fairgate/pkg/requestcontext"
)

type SweepSuite struct {
	suite.Suite
	service *monitor.Service
	audits  *auditstore.InMemoryStore
	sweeper *monitor.Sweeper
	ctx     context.Context
}

func TestSweepSuite(t *testing.T) {
	suite.Run(t, new(SweepSuite))
}

func (s *SweepSuite) SetupTest() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)

	s.audits = auditstore.NewMemory()
	service, err := monitor.NewService(
		fairness.NewCalculator(),
		alertstore.NewMemory(),
		s.audits,
		cache.NewMemory(),
		monitor.NewThresholdStore(monitor.DefaultThresholds(), now.Add(-time.Hour)),
	)
	require.NoError(s.T(), err)
	s.service = service

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.sweeper = monitor.NewSweeper(service, time.Hour,
		monitor.WithSweepLogger(logger),
		monitor.WithSweepFanout(2),
	)
}

func (s *SweepSuite) TestSweepEvaluatesAllStreams() {
	first := id.NewProcessID()
	second := id.NewProcessID()
	s.Require().NoError(s.service.Register(first, monitor.ProcessHiringDecision, stubSource{batch: hiringBatch(1000, 300)}))
	s.Require().NoError(s.service.Register(second, monitor.ProcessHiringDecision, stubSource{batch: hiringBatch(1000, 300)}))

	s.sweeper.Sweep(s.ctx)

	for _, pid := range []id.ProcessID{first, second} {
		entries, err := s.audits.ListByProcess(s.ctx, pid, 10)
		s.Require().NoError(err)
		s.Len(entries, 1)
	}
}

func (s *SweepSuite) TestFailingStreamDoesNotStopOthers() {
	broken := id.NewProcessID()
	healthy := id.NewProcessID()
	s.Require().NoError(s.service.Register(broken, monitor.ProcessHiringDecision, failingSource{}))
	s.Require().NoError(s.service.Register(healthy, monitor.ProcessHiringDecision, stubSource{batch: hiringBatch(1000, 300)}))

	s.sweeper.Sweep(s.ctx)

	entries, err := s.audits.ListByProcess(s.ctx, healthy, 10)
	s.Require().NoError(err)
	s.Len(entries, 1, "a broken stream must not block the rest of the pass")

	entries, err = s.audits.ListByProcess(s.ctx, broken, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *SweepSuite) TestRegisterValidation() {
	err := s.service.Register(id.NewProcessID(), monitor.ProcessType("payroll"), stubSource{})
	s.Require().Error(err)

	err = s.service.Register(id.NewProcessID(), monitor.ProcessHiringDecision, nil)
	s.Require().Error(err)
}

type failingSource struct{}

func (failingSource) FetchBatch(context.Context, id.ProcessID) (*monitor.Batch, error) {
	return nil, errors.New("upstream unavailable")
}
