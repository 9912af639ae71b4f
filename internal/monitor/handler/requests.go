package handler

import (
	"time"

	"fairgate/internal/monitor"
	id "fairgate/pkg/domain"
	derrors "fairgate/pkg/domain-errors"
)

// MonitorRequest is the HTTP request body for POST /monitor/process.
type MonitorRequest struct {
	ProcessID   string        `json:"process_id"`
	ProcessType string        `json:"process_type"`
	Batch       monitor.Batch `json:"batch"`

	parsedProcessID id.ProcessID
}

// Validate validates and parses the request.
func (r *MonitorRequest) Validate() error {
	processID, err := id.ParseProcessID(r.ProcessID)
	if err != nil {
		return err
	}
	r.parsedProcessID = processID

	if !monitor.ProcessType(r.ProcessType).IsValid() {
		return derrors.Newf(derrors.CodeValidation, "unknown process type %q", r.ProcessType)
	}
	if len(r.Batch.ProtectedAttributes) == 0 {
		return derrors.New(derrors.CodeValidation, "batch.protected_attributes is required")
	}
	return nil
}

// ParsedProcessID returns the validated process ID.
func (r *MonitorRequest) ParsedProcessID() id.ProcessID {
	return r.parsedProcessID
}

// ParsedProcessType returns the validated process type.
func (r *MonitorRequest) ParsedProcessType() monitor.ProcessType {
	return monitor.ProcessType(r.ProcessType)
}

// ThresholdUpdateRequest is the HTTP request body for PUT /admin/thresholds.
type ThresholdUpdateRequest struct {
	Warning           float64 `json:"warning"`
	Critical          float64 `json:"critical"`
	DemographicParity float64 `json:"demographic_parity"`
	EqualizedOdds     float64 `json:"equalized_odds"`
	EffectSize        float64 `json:"effect_size"`
	// EffectiveAt defaults to now when omitted.
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
}

// Validate checks the shape; range validation belongs to the threshold
// store so every caller shares it.
func (r *ThresholdUpdateRequest) Validate() error {
	if r.EffectiveAt != nil && r.EffectiveAt.IsZero() {
		return derrors.New(derrors.CodeValidation, "effective_at must be a valid timestamp when present")
	}
	return nil
}

// Config converts the request to the domain threshold config.
func (r *ThresholdUpdateRequest) Config() monitor.ThresholdConfig {
	return monitor.ThresholdConfig{
		Warning:           r.Warning,
		Critical:          r.Critical,
		DemographicParity: r.DemographicParity,
		EqualizedOdds:     r.EqualizedOdds,
		EffectSize:        r.EffectSize,
	}
}
