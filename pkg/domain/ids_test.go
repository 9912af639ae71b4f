package domain

import (
	"database/sql/driver"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "fairgate/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProcessID("")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProcessID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAlertID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseMonitoringID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, MonitoringID(valid), id)
	})
}

// TestTypeDistinction verifies typed IDs stay distinct at runtime. The
// compile-time half of the invariant is that cross-type assignment between
// ProcessID and AlertID does not compile.
func TestTypeDistinction(t *testing.T) {
	processID := NewProcessID()
	alertID := NewAlertID()
	assert.NotEqual(t, uuid.UUID(processID), uuid.UUID(alertID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, ProcessID{}.IsNil())
	assert.False(t, NewProcessID().IsNil())
}

// TestDatabaseRoundTrip verifies typed IDs cross the database/sql boundary:
// the default parameter converter must accept them as query args, and Scan
// must restore them from the string and []byte forms drivers return.
func TestDatabaseRoundTrip(t *testing.T) {
	t.Run("converts to a driver value", func(t *testing.T) {
		monitoringID := NewMonitoringID()
		v, err := driver.DefaultParameterConverter.ConvertValue(monitoringID)
		require.NoError(t, err)
		assert.Equal(t, monitoringID.String(), v)

		processID := NewProcessID()
		v, err = driver.DefaultParameterConverter.ConvertValue(processID)
		require.NoError(t, err)
		assert.Equal(t, processID.String(), v)

		alertID := NewAlertID()
		v, err = driver.DefaultParameterConverter.ConvertValue(alertID)
		require.NoError(t, err)
		assert.Equal(t, alertID.String(), v)
	})

	t.Run("scans from string", func(t *testing.T) {
		want := NewProcessID()
		var got ProcessID
		require.NoError(t, got.Scan(want.String()))
		assert.Equal(t, want, got)
	})

	t.Run("scans from bytes", func(t *testing.T) {
		want := NewMonitoringID()
		var got MonitoringID
		require.NoError(t, got.Scan([]byte(want.String())))
		assert.Equal(t, want, got)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		var got AlertID
		require.Error(t, got.Scan("not-a-uuid"))
	})
}
