package llp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertEngine evaluates life status against thresholds, generates
// duplicate-suppressed alerts, and runs the acknowledge/resolve workflow.
//
// Alert lifecycle: GENERATED (active, unacknowledged) → ACKNOWLEDGED (active)
// → RESOLVED (inactive, terminal). Resolution requires prior acknowledgment
// and a resolved alert never reopens.
type AlertEngine struct {
	alerts     AlertRepository
	thresholds ThresholdRepository
	ledger     *Ledger
}

// NewAlertEngine creates an AlertEngine bound to the provided dependencies.
func NewAlertEngine(alerts AlertRepository, thresholds ThresholdRepository, ledger *Ledger) *AlertEngine {
	return &AlertEngine{alerts: alerts, thresholds: thresholds, ledger: ledger}
}

// ConfigureThresholds validates and upserts a threshold set, globally or
// scoped to one part instance. Thresholds must be strictly ascending.
func (e *AlertEngine) ConfigureThresholds(ctx context.Context, tc ThresholdConfig) (ThresholdConfig, error) {
	if !(tc.Info < tc.Warning && tc.Warning < tc.Critical && tc.Critical < tc.Urgent) {
		return ThresholdConfig{}, validationErr("thresholds",
			"invalid threshold configuration: must be strictly ascending (info < warning < critical < urgent)")
	}
	for _, v := range []float64{tc.Info, tc.Warning, tc.Critical, tc.Urgent} {
		if v < 0 {
			return ThresholdConfig{}, validationErr("thresholds", "percentages must not be negative")
		}
	}
	if tc.ID == uuid.Nil {
		tc.ID = uuid.New()
	}
	return e.thresholds.UpsertThresholds(ctx, tc)
}

// GeneratedAlert pairs an alert with whether this call created it. Created is
// false when an active alert for the same condition already existed and was
// reused.
type GeneratedAlert struct {
	Alert   Alert `json:"alert"`
	Created bool  `json:"created"`
}

// GenerateAlert creates a new active alert, or returns the already-active one
// for the same (serialized part, alert type) pair without creating a
// duplicate. Generation is idempotent while the prior alert stays active.
func (e *AlertEngine) GenerateAlert(ctx context.Context, a Alert) (GeneratedAlert, error) {
	if a.SerializedPartID == uuid.Nil {
		return GeneratedAlert{}, validationErr("serialized_part_id", "is required")
	}
	if !validAlertType(a.AlertType) {
		return GeneratedAlert{}, validationErr("alert_type", "unrecognized value %q", a.AlertType)
	}
	if !validSeverity(a.Severity) {
		return GeneratedAlert{}, validationErr("severity", "unrecognized value %q", a.Severity)
	}

	a.ID = uuid.New()
	a.IsActive = true
	a.IsAcknowledged = false
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = time.Now().UTC()
	}

	alert, created, err := e.alerts.CreateAlert(ctx, a)
	if err != nil {
		return GeneratedAlert{}, err
	}
	if created {
		alertsGenerated.WithLabelValues(string(alert.Severity)).Inc()
	}
	return GeneratedAlert{Alert: alert, Created: created}, nil
}

// EvaluateForAlerts recomputes the instance's life status and generates the
// alerts its severity calls for. Returns every alert active for the evaluated
// conditions, flagged with whether this evaluation created it.
func (e *AlertEngine) EvaluateForAlerts(ctx context.Context, instanceID uuid.UUID) ([]GeneratedAlert, error) {
	status, err := e.ledger.ComputeStatus(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	var out []GeneratedAlert

	switch status.AlertLevel {
	case SeverityUrgent:
		// Exceeding limits always produces (or reuses) a LIFE_LIMIT_EXCEEDED
		// alert at URGENT severity.
		a, err := e.GenerateAlert(ctx, Alert{
			SerializedPartID: instanceID,
			AlertType:        AlertLifeLimitExceeded,
			Severity:         SeverityUrgent,
			Title:            fmt.Sprintf("Life limit exceeded for %s", status.SerialNumber),
			Message: fmt.Sprintf("Part %s has consumed %.1f%% of its configured life and must be retired",
				status.SerialNumber, status.OverallPercentageUsed),
			CurrentCycles: status.CurrentCycles,
			CurrentHours:  status.CurrentHours,
			ThresholdPct:  &status.OverallPercentageUsed,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	case SeverityWarning, SeverityCritical:
		a, err := e.GenerateAlert(ctx, Alert{
			SerializedPartID: instanceID,
			AlertType:        AlertLifeLimitApproaching,
			Severity:         status.AlertLevel,
			Title:            fmt.Sprintf("Life limit approaching for %s", status.SerialNumber),
			Message: fmt.Sprintf("Part %s is at %.1f%% of its configured life",
				status.SerialNumber, status.OverallPercentageUsed),
			CurrentCycles: status.CurrentCycles,
			CurrentHours:  status.CurrentHours,
			ThresholdPct:  &status.OverallPercentageUsed,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if status.InspectionDue {
		a, err := e.GenerateAlert(ctx, Alert{
			SerializedPartID: instanceID,
			AlertType:        AlertInspectionDue,
			Severity:         SeverityWarning,
			Title:            fmt.Sprintf("Inspection due for %s", status.SerialNumber),
			Message:          fmt.Sprintf("Part %s has exceeded its inspection interval", status.SerialNumber),
			CurrentCycles:    status.CurrentCycles,
			CurrentHours:     status.CurrentHours,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, nil
}

// Acknowledge marks an active alert as seen by userID. Acknowledging twice is
// a domain error.
func (e *AlertEngine) Acknowledge(ctx context.Context, alertID uuid.UUID, userID, notes string) (Alert, error) {
	if userID == "" {
		return Alert{}, validationErr("user_id", "is required")
	}

	alert, err := e.alerts.AlertByID(ctx, alertID)
	if err != nil {
		return Alert{}, err
	}
	if alert == nil {
		return Alert{}, notFoundErr("alert", alertID)
	}
	if alert.IsAcknowledged {
		return Alert{}, domainErr("alert %s is already acknowledged", alertID)
	}

	now := time.Now().UTC()
	alert.IsAcknowledged = true
	alert.AcknowledgedBy = userID
	alert.AcknowledgedAt = &now
	alert.AcknowledgedNotes = notes

	if err := e.alerts.SaveAlert(ctx, *alert); err != nil {
		return Alert{}, err
	}
	return *alert, nil
}

// Resolve closes an acknowledged alert. Resolving before acknowledgment or
// resolving twice is a domain error; neither touches the stored alert.
func (e *AlertEngine) Resolve(ctx context.Context, alertID uuid.UUID, userID, resolution, notes string) (Alert, error) {
	if userID == "" {
		return Alert{}, validationErr("user_id", "is required")
	}
	if resolution == "" {
		return Alert{}, validationErr("resolution", "is required")
	}

	alert, err := e.alerts.AlertByID(ctx, alertID)
	if err != nil {
		return Alert{}, err
	}
	if alert == nil {
		return Alert{}, notFoundErr("alert", alertID)
	}
	if !alert.IsActive {
		return Alert{}, domainErr("alert %s is already resolved", alertID)
	}
	if !alert.IsAcknowledged {
		return Alert{}, domainErr("alert %s must be acknowledged before resolution", alertID)
	}

	now := time.Now().UTC()
	alert.IsActive = false
	alert.ResolvedBy = userID
	alert.ResolvedAt = &now
	alert.Resolution = resolution
	alert.ResolutionNotes = notes

	if err := e.alerts.SaveAlert(ctx, *alert); err != nil {
		return Alert{}, err
	}
	alertsResolved.Inc()
	return *alert, nil
}

// ListAlerts returns a filtered, newest-first page of alerts.
func (e *AlertEngine) ListAlerts(ctx context.Context, f AlertFilter) (AlertPage, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Severity != nil && !validSeverity(*f.Severity) {
		return AlertPage{}, validationErr("severity", "unrecognized value %q", *f.Severity)
	}

	alerts, total, err := e.alerts.ListAlerts(ctx, f)
	if err != nil {
		return AlertPage{}, err
	}

	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	return AlertPage{
		Data:        alerts,
		Total:       total,
		Page:        f.Page,
		TotalPages:  totalPages,
		HasNextPage: f.Page < totalPages,
	}, nil
}

// Statistics aggregates alert counts by severity, type, and lifecycle state,
// plus rolling 24h/7d/30d generation counts.
func (e *AlertEngine) Statistics(ctx context.Context) (AlertStatistics, error) {
	return e.alerts.Statistics(ctx)
}
