package llp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger is the append-only record of usage and state-changing events for
// serialized part instances, and the single place current life status is
// derived from.
type Ledger struct {
	configs    PartConfigRepository
	instances  PartInstanceRepository
	events     LifeEventRepository
	thresholds ThresholdRepository
}

// NewLedger creates a Ledger bound to the provided repositories.
func NewLedger(
	configs PartConfigRepository,
	instances PartInstanceRepository,
	events LifeEventRepository,
	thresholds ThresholdRepository,
) *Ledger {
	return &Ledger{
		configs:    configs,
		instances:  instances,
		events:     events,
		thresholds: thresholds,
	}
}

// RecordEvent validates and appends one event, returning its generated
// identifier. Every accepted call produces a new ledger row; events are never
// merged or deduplicated.
func (l *Ledger) RecordEvent(ctx context.Context, ev LifeEvent) (uuid.UUID, error) {
	if err := l.validateEvent(ctx, &ev); err != nil {
		return uuid.Nil, err
	}
	ev.ID = uuid.New()
	id, err := l.events.AppendEvent(ctx, ev)
	if err != nil {
		return uuid.Nil, err
	}
	eventsRecorded.Inc()
	return id, nil
}

// BatchRecordEvents processes each event independently. A failing item lands
// in Failed with its original index; the rest of the batch proceeds.
func (l *Ledger) BatchRecordEvents(ctx context.Context, events []LifeEvent) (BatchResult, error) {
	result := BatchResult{
		Successful:     []BatchItemSuccess{},
		Failed:         []BatchItemFailure{},
		TotalProcessed: len(events),
	}
	for i, ev := range events {
		id, err := l.RecordEvent(ctx, ev)
		if err != nil {
			result.Failed = append(result.Failed, BatchItemFailure{Index: i, Error: err.Error()})
			continue
		}
		result.Successful = append(result.Successful, BatchItemSuccess{Index: i, EventID: id})
	}
	return result, nil
}

// ComputeStatus folds the instance's ledger in event-date order and evaluates
// usage against the owning part's configured limits. Current usage is the
// maximum cycles/hours seen across the history; well-formed data is
// monotonically non-decreasing, so the maximum and the latest reading agree.
func (l *Ledger) ComputeStatus(ctx context.Context, instanceID uuid.UUID) (LifeStatus, error) {
	inst, err := l.instances.InstanceByID(ctx, instanceID)
	if err != nil {
		return LifeStatus{}, err
	}
	if inst == nil {
		return LifeStatus{}, notFoundErr("serialized part", instanceID)
	}

	cfg, err := l.configs.ConfigByPartID(ctx, inst.PartID)
	if err != nil {
		return LifeStatus{}, err
	}

	events, err := l.events.EventsByInstance(ctx, instanceID)
	if err != nil {
		return LifeStatus{}, err
	}

	tc, err := l.thresholds.ThresholdsFor(ctx, instanceID)
	if err != nil {
		return LifeStatus{}, err
	}
	if tc == nil {
		def := DefaultThresholds()
		tc = &def
	}

	return deriveStatus(*inst, cfg, events, *tc), nil
}

// BackToBirthTrace returns the instance's complete history partitioned by
// category alongside its current status. An instance with no recorded history
// yields empty partitions, not an error.
func (l *Ledger) BackToBirthTrace(ctx context.Context, instanceID uuid.UUID) (BackToBirthTrace, error) {
	status, err := l.ComputeStatus(ctx, instanceID)
	if err != nil {
		return BackToBirthTrace{}, err
	}
	events, err := l.events.EventsByInstance(ctx, instanceID)
	if err != nil {
		return BackToBirthTrace{}, err
	}

	trace := BackToBirthTrace{
		SerializedPartID: instanceID,
		SerialNumber:     status.SerialNumber,
		Manufacturing:    []LifeEvent{},
		Quality:          []LifeEvent{},
		Installation:     []LifeEvent{},
		Maintenance:      []LifeEvent{},
		Status:           status,
	}
	for _, ev := range events {
		switch ev.EventType {
		case EventManufacturingComplete:
			trace.Manufacturing = append(trace.Manufacturing, ev)
		case EventQualityInspection:
			trace.Quality = append(trace.Quality, ev)
		case EventInstallation, EventOperation:
			trace.Installation = append(trace.Installation, ev)
		case EventMaintenance, EventRetirement:
			trace.Maintenance = append(trace.Maintenance, ev)
		}
	}
	return trace, nil
}

// Retire appends a RETIREMENT event and flips the instance status to RETIRED
// atomically. Retiring an already-retired instance is a domain error and
// leaves both ledger and instance untouched.
func (l *Ledger) Retire(ctx context.Context, instanceID uuid.UUID, data RetirementData) (uuid.UUID, error) {
	if instanceID == uuid.Nil {
		return uuid.Nil, validationErr("serialized_part_id", "is required")
	}
	if data.RetirementCycles < 0 {
		return uuid.Nil, validationErr("retirement_cycles", "must not be negative, got %d", data.RetirementCycles)
	}
	if data.RetirementHours < 0 {
		return uuid.Nil, validationErr("retirement_hours", "must not be negative, got %d", data.RetirementHours)
	}

	meta := map[string]any{}
	for k, v := range data.Metadata {
		meta[k] = v
	}
	if data.Reason != "" {
		meta["reason"] = data.Reason
	}

	ev := LifeEvent{
		ID:               uuid.New(),
		SerializedPartID: instanceID,
		EventType:        EventRetirement,
		EventDate:        time.Now().UTC(),
		CyclesAtEvent:    data.RetirementCycles,
		HoursAtEvent:     data.RetirementHours,
		PerformedBy:      data.RetiredBy,
		Notes:            data.Notes,
		Metadata:         meta,
	}
	id, err := l.instances.RetireInstance(ctx, instanceID, ev)
	if err != nil {
		return uuid.Nil, err
	}
	partsRetired.Inc()
	return id, nil
}

func (l *Ledger) validateEvent(ctx context.Context, ev *LifeEvent) error {
	if ev.SerializedPartID == uuid.Nil {
		return validationErr("serialized_part_id", "is required")
	}
	if !validEventType(ev.EventType) {
		return validationErr("event_type", "unrecognized value %q", ev.EventType)
	}
	if ev.CyclesAtEvent < 0 {
		return validationErr("cycles_at_event", "must not be negative, got %d", ev.CyclesAtEvent)
	}
	if ev.HoursAtEvent < 0 {
		return validationErr("hours_at_event", "must not be negative, got %d", ev.HoursAtEvent)
	}

	inst, err := l.instances.InstanceByID(ctx, ev.SerializedPartID)
	if err != nil {
		return err
	}
	if inst == nil {
		return notFoundErr("serialized part", ev.SerializedPartID)
	}

	if ev.EventDate.IsZero() {
		ev.EventDate = time.Now().UTC()
	}
	return nil
}

// deriveStatus classifies usage against limits. Overall percentage is the
// greater of the cycle-based and hour-based percentages when both limits are
// configured.
func deriveStatus(inst PartInstance, cfg *PartTypeConfig, events []LifeEvent, tc ThresholdConfig) LifeStatus {
	status := LifeStatus{
		SerializedPartID: inst.ID,
		SerialNumber:     inst.SerialNumber,
		Status:           LifeActive,
		AlertLevel:       SeverityInfo,
	}

	var lastInspectionCycles int64
	for _, ev := range events {
		if ev.CyclesAtEvent > status.CurrentCycles {
			status.CurrentCycles = ev.CyclesAtEvent
		}
		if ev.HoursAtEvent > status.CurrentHours {
			status.CurrentHours = ev.HoursAtEvent
		}
		if ev.EventType == EventQualityInspection && ev.CyclesAtEvent > lastInspectionCycles {
			lastInspectionCycles = ev.CyclesAtEvent
		}
	}

	if cfg != nil && cfg.IsLifeLimited {
		var cyclePct, hourPct float64
		if cfg.CycleLimit != nil && *cfg.CycleLimit > 0 {
			cyclePct = float64(status.CurrentCycles) / float64(*cfg.CycleLimit) * 100
		}
		if cfg.TimeLimit != nil && *cfg.TimeLimit > 0 {
			hourPct = float64(status.CurrentHours) / float64(*cfg.TimeLimit) * 100
		}
		status.OverallPercentageUsed = cyclePct
		if hourPct > status.OverallPercentageUsed {
			status.OverallPercentageUsed = hourPct
		}

		status.AlertLevel = classify(status.OverallPercentageUsed, tc)
		if status.AlertLevel == SeverityUrgent {
			status.Status = LifeExceededLimits
			status.RetirementRequired = true
		}

		if cfg.InspectionInterval != nil && *cfg.InspectionInterval > 0 &&
			status.CurrentCycles-lastInspectionCycles >= *cfg.InspectionInterval {
			status.InspectionDue = true
		}

		projectRetirement(&status, cfg, events)
	}

	if inst.Status == PartRetired {
		status.Status = LifeRetired
		status.RetirementDue = nil
		status.DaysUntilRetirement = nil
	}
	return status
}

func classify(pct float64, tc ThresholdConfig) Severity {
	switch {
	case pct > tc.Urgent:
		return SeverityUrgent
	case pct >= tc.Critical:
		return SeverityCritical
	case pct >= tc.Warning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// projectRetirement estimates the retirement date from the observed usage
// rate between the first and latest ledger entries. No projection is made for
// flat usage or parts already over their limit.
func projectRetirement(status *LifeStatus, cfg *PartTypeConfig, events []LifeEvent) {
	if len(events) < 2 || status.RetirementRequired {
		return
	}

	first, last := events[0], events[len(events)-1]
	elapsed := last.EventDate.Sub(first.EventDate)
	if elapsed <= 0 {
		return
	}
	days := elapsed.Hours() / 24

	var remainingDays float64
	found := false
	if cfg.CycleLimit != nil && *cfg.CycleLimit > 0 {
		rate := float64(last.CyclesAtEvent-first.CyclesAtEvent) / days
		if rate > 0 {
			d := float64(*cfg.CycleLimit-status.CurrentCycles) / rate
			remainingDays = d
			found = true
		}
	}
	if cfg.TimeLimit != nil && *cfg.TimeLimit > 0 {
		rate := float64(last.HoursAtEvent-first.HoursAtEvent) / days
		if rate > 0 {
			d := float64(*cfg.TimeLimit-status.CurrentHours) / rate
			if !found || d < remainingDays {
				remainingDays = d
				found = true
			}
		}
	}
	if !found {
		return
	}

	dueIn := int(remainingDays)
	due := last.EventDate.Add(time.Duration(remainingDays * 24 * float64(time.Hour)))
	status.DaysUntilRetirement = &dueIn
	status.RetirementDue = &due
}
