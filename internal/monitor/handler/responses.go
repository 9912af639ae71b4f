package handler

import (
	"time"

	"fairgate/internal/monitor"
)

// AlertListResponse is the HTTP response for GET /alerts.
type AlertListResponse struct {
	Alerts []monitor.Alert `json:"alerts"`
	Count  int             `json:"count"`
}

// ThresholdResponse is the HTTP response for GET /admin/thresholds.
type ThresholdResponse struct {
	Warning           float64   `json:"warning"`
	Critical          float64   `json:"critical"`
	DemographicParity float64   `json:"demographic_parity"`
	EqualizedOdds     float64   `json:"equalized_odds"`
	EffectSize        float64   `json:"effect_size"`
	EffectiveAt       time.Time `json:"effective_at"`
	ChangedBy         string    `json:"changed_by,omitempty"`
	Versions          int       `json:"versions"`
}

// FromThresholdVersion converts the effective version to an HTTP response.
func FromThresholdVersion(v monitor.ThresholdVersion, versions int) *ThresholdResponse {
	return &ThresholdResponse{
		Warning:           v.Config.Warning,
		Critical:          v.Config.Critical,
		DemographicParity: v.Config.DemographicParity,
		EqualizedOdds:     v.Config.EqualizedOdds,
		EffectSize:        v.Config.EffectSize,
		EffectiveAt:       v.EffectiveAt,
		ChangedBy:         v.ChangedBy,
		Versions:          versions,
	}
}

// HealthResponse is the HTTP response for GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
