package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairgate/internal/fairness"
	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
)

func newCandidate(processID id.ProcessID, at time.Time) monitor.Alert {
	return monitor.Alert{
		ID: id.NewAlertID(),
		Key: monitor.AlertKey{
			ProcessID: processID,
			Type:      monitor.ViolationDemographicParity,
			Metric:    "gender",
		},
		ProcessType: monitor.ProcessHiringDecision,
		Violation: monitor.Violation{
			Type:     monitor.ViolationDemographicParity,
			Severity: fairness.SeverityHigh,
			Metric:   "gender",
			Observed: 0.65,
		},
		Status:    monitor.AlertActive,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestUpsertCreatesThenRefreshes(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	processID := id.NewProcessID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, created, err := store.Upsert(ctx, newCandidate(processID, at))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, first.UpdateCount)

	refresh := newCandidate(processID, at.Add(time.Hour))
	refresh.Violation.Observed = 0.55
	second, created, err := store.Upsert(ctx, refresh)
	require.NoError(t, err)

	assert.False(t, created, "repeat violation must refresh, not duplicate")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.UpdateCount)
	assert.Equal(t, 0.55, second.Violation.Observed)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUpsertDistinctKeysStaySeparate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := newCandidate(id.NewProcessID(), at)
	b := newCandidate(id.NewProcessID(), at)
	b.Key.Metric = "ethnicity"
	b.Violation.Metric = "ethnicity"

	_, created, err := store.Upsert(ctx, a)
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = store.Upsert(ctx, b)
	require.NoError(t, err)
	assert.True(t, created)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestTransitionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	alert, _, err := store.Upsert(ctx, newCandidate(id.NewProcessID(), at))
	require.NoError(t, err)

	acked, err := store.Transition(ctx, alert.ID, monitor.AlertAcknowledged, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, monitor.AlertAcknowledged, acked.Status)
	require.NotNil(t, acked.AckedAt)

	resolved, err := store.Transition(ctx, alert.ID, monitor.AlertResolved, at.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, monitor.AlertResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolved is terminal.
	_, err = store.Transition(ctx, alert.ID, monitor.AlertAcknowledged, at.Add(3*time.Minute))
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeConflict))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestResolveFreesKeyForNewAlert(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	processID := id.NewProcessID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, _, err := store.Upsert(ctx, newCandidate(processID, at))
	require.NoError(t, err)
	_, err = store.Transition(ctx, first.ID, monitor.AlertResolved, at.Add(time.Minute))
	require.NoError(t, err)

	second, created, err := store.Upsert(ctx, newCandidate(processID, at.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, created, "a resolved key must reopen as a fresh alert")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestTransitionUnknownAlert(t *testing.T) {
	store := NewMemory()
	_, err := store.Transition(context.Background(), id.NewAlertID(), monitor.AlertResolved, time.Now())
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeNotFound))
}

func TestConcurrentUpsertsSingleActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	processID := id.NewProcessID()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	const workers = 32
	var wg sync.WaitGroup
	createdCount := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.Upsert(ctx, newCandidate(processID, at))
			assert.NoError(t, err)
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	creates := 0
	for created := range createdCount {
		if created {
			creates++
		}
	}
	assert.Equal(t, 1, creates, "exactly one racing upsert may create")

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, workers-1, active[0].UpdateCount)
}
