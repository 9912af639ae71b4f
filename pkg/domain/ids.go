// Package domain holds shared identifier types and enums used across the
// engine. Typed IDs prevent cross-type assignment at compile time.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	derrors "fairgate/pkg/domain-errors"
)

// ProcessID identifies one hiring process stream (a requisition's review
// pipeline, an interview round, a matching run).
type ProcessID uuid.UUID

// MonitoringID identifies one evaluation run. A re-run always gets a new ID.
type MonitoringID uuid.UUID

// AlertID identifies a bias alert.
type AlertID uuid.UUID

// NewProcessID generates a random process ID.
func NewProcessID() ProcessID { return ProcessID(uuid.New()) }

// NewMonitoringID generates a random monitoring ID.
func NewMonitoringID() MonitoringID { return MonitoringID(uuid.New()) }

// NewAlertID generates a random alert ID.
func NewAlertID() AlertID { return AlertID(uuid.New()) }

func (id ProcessID) String() string    { return uuid.UUID(id).String() }
func (id MonitoringID) String() string { return uuid.UUID(id).String() }
func (id AlertID) String() string      { return uuid.UUID(id).String() }

func (id ProcessID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MonitoringID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AlertID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// Value implements driver.Valuer. Defining a new type over uuid.UUID sheds
// its methods, so without these the database/sql parameter converter rejects
// typed IDs as plain byte arrays.
func (id ProcessID) Value() (driver.Value, error)    { return uuid.UUID(id).String(), nil }
func (id MonitoringID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id AlertID) Value() (driver.Value, error)      { return uuid.UUID(id).String(), nil }

// Scan implements sql.Scanner, accepting the string and []byte forms drivers
// produce for UUID columns.
func (id *ProcessID) Scan(src any) error    { return (*uuid.UUID)(id).Scan(src) }
func (id *MonitoringID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }
func (id *AlertID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "invalid %s format", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidInput, "%s cannot be the nil UUID", kind)
	}
	return u, nil
}

// ParseProcessID parses and validates a process ID from its string form.
func ParseProcessID(s string) (ProcessID, error) {
	u, err := parseUUID(s, "process_id")
	return ProcessID(u), err
}

// ParseMonitoringID parses and validates a monitoring ID from its string form.
func ParseMonitoringID(s string) (MonitoringID, error) {
	u, err := parseUUID(s, "monitoring_id")
	return MonitoringID(u), err
}

// ParseAlertID parses and validates an alert ID from its string form.
func ParseAlertID(s string) (AlertID, error) {
	u, err := parseUUID(s, "alert_id")
	return AlertID(u), err
}
