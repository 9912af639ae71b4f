package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
	"fairgate/pkg/testutil"
)

func sampleResult(processID id.ProcessID) *monitor.Result {
	return &monitor.Result{
		MonitoringID:     id.NewMonitoringID(),
		ProcessID:        processID,
		ProcessType:      monitor.ProcessHiringDecision,
		ComplianceStatus: monitor.StatusCompliant,
		Violations:       []monitor.Violation{},
		Timestamp:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryCacheHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	processID := id.NewProcessID()

	require.NoError(t, c.Put(ctx, sampleResult(processID), time.Minute))

	got, err := c.Get(ctx, processID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, processID, got.ProcessID)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemory()
	got, err := c.Get(context.Background(), id.NewProcessID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	processID := id.NewProcessID()

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	testutil.Given(t, "a result cached for one minute", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, sampleResult(processID), time.Minute))
	})

	testutil.When(t, "read just before expiry", func(t *testing.T) {
		clock = clock.Add(59 * time.Second)
		got, err := c.Get(ctx, processID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	testutil.Then(t, "the expired entry reads as a miss", func(t *testing.T) {
		clock = clock.Add(2 * time.Second)
		got, err := c.Get(ctx, processID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	processID := id.NewProcessID()

	first := sampleResult(processID)
	require.NoError(t, c.Put(ctx, first, time.Minute))

	second := sampleResult(processID)
	second.ComplianceStatus = monitor.StatusViolationDetected
	require.NoError(t, c.Put(ctx, second, time.Minute))

	got, err := c.Get(ctx, processID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, monitor.StatusViolationDetected, got.ComplianceStatus)
	assert.Equal(t, second.MonitoringID, got.MonitoringID)
}
