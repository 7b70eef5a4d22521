package llp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(m *memStore) *Ledger {
	return NewLedger(m, m, m, m)
}

func recordUsage(t *testing.T, ledger *Ledger, instanceID uuid.UUID, daysAgo int, cycles, hours int64) uuid.UUID {
	t.Helper()
	id, err := ledger.RecordEvent(context.Background(), LifeEvent{
		SerializedPartID: instanceID,
		EventType:        EventOperation,
		EventDate:        time.Now().UTC().AddDate(0, 0, -daysAgo),
		CyclesAtEvent:    cycles,
		HoursAtEvent:     hours,
	})
	require.NoError(t, err)
	return id
}

func TestRecordEventValidation(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	tests := []struct {
		name    string
		event   LifeEvent
		notFound bool
	}{
		{
			name:  "missing instance id",
			event: LifeEvent{EventType: EventOperation},
		},
		{
			name: "unknown event type",
			event: LifeEvent{
				SerializedPartID: inst.ID,
				EventType:        "OVERHAUL",
			},
		},
		{
			name: "negative cycles",
			event: LifeEvent{
				SerializedPartID: inst.ID,
				EventType:        EventOperation,
				CyclesAtEvent:    -5,
			},
		},
		{
			name: "negative hours",
			event: LifeEvent{
				SerializedPartID: inst.ID,
				EventType:        EventOperation,
				HoursAtEvent:     -1,
			},
		},
		{
			name: "unknown instance",
			event: LifeEvent{
				SerializedPartID: uuid.New(),
				EventType:        EventOperation,
			},
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.RecordEvent(context.Background(), tt.event)
			require.Error(t, err)
			if tt.notFound {
				assert.True(t, IsNotFound(err), "expected not found, got %v", err)
			} else {
				assert.True(t, IsValidation(err), "expected validation error, got %v", err)
			}
		})
	}

	events, err := m.EventsByInstance(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Empty(t, events, "rejected events must not reach the ledger")
}

func TestRecordEventDefaultsEventDate(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	id, err := ledger.RecordEvent(context.Background(), LifeEvent{
		SerializedPartID: inst.ID,
		EventType:        EventManufacturingComplete,
	})
	require.NoError(t, err)

	ev, err := m.EventByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.False(t, ev.EventDate.IsZero())
}

func TestComputeStatusSeverityTiers(t *testing.T) {
	tests := []struct {
		name       string
		cycles     int64
		wantLevel  Severity
		wantState  LifeState
		wantRetire bool
	}{
		{name: "half used", cycles: 500, wantLevel: SeverityInfo, wantState: LifeActive},
		{name: "warning band", cycles: 800, wantLevel: SeverityWarning, wantState: LifeActive},
		{name: "critical band", cycles: 950, wantLevel: SeverityCritical, wantState: LifeActive},
		{name: "at the limit", cycles: 1000, wantLevel: SeverityCritical, wantState: LifeActive},
		{name: "over the limit", cycles: 1100, wantLevel: SeverityUrgent, wantState: LifeExceededLimits, wantRetire: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemStore()
			ledger := newTestLedger(m)
			inst := seedInstance(m, cyclesOnlyConfig(1000))
			recordUsage(t, ledger, inst.ID, 0, tt.cycles, 0)

			status, err := ledger.ComputeStatus(context.Background(), inst.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, status.AlertLevel)
			assert.Equal(t, tt.wantState, status.Status)
			assert.Equal(t, tt.wantRetire, status.RetirementRequired)
			assert.InDelta(t, float64(tt.cycles)/10, status.OverallPercentageUsed, 0.01)
		})
	}
}

func TestComputeStatusFoldsMaximum(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	// Usage readings arrive out of order; the fold takes the maximum.
	recordUsage(t, ledger, inst.ID, 10, 300, 40)
	recordUsage(t, ledger, inst.ID, 1, 700, 90)
	recordUsage(t, ledger, inst.ID, 5, 500, 60)

	status, err := ledger.ComputeStatus(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 700, status.CurrentCycles)
	assert.EqualValues(t, 90, status.CurrentHours)
}

func TestComputeStatusTakesGreaterPercentage(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, PartTypeConfig{
		IsLifeLimited:  true,
		Criticality:    CriticalityCritical,
		RetirementType: RetireCyclesOrTime,
		CycleLimit:     i64(1000),
		TimeLimit:      i64(100),
	})

	// 30% of cycles but 95% of hours: the hour percentage governs.
	recordUsage(t, ledger, inst.ID, 0, 300, 95)

	status, err := ledger.ComputeStatus(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.InDelta(t, 95, status.OverallPercentageUsed, 0.01)
	assert.Equal(t, SeverityCritical, status.AlertLevel)
}

func TestComputeStatusUnknownInstance(t *testing.T) {
	ledger := newTestLedger(newMemStore())
	_, err := ledger.ComputeStatus(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestComputeStatusNoConfiguration(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)

	inst := PartInstance{
		ID:           uuid.New(),
		PartID:       uuid.New(),
		SerialNumber: "SN-unconfigured",
		Status:       PartActive,
	}
	m.instances[inst.ID] = inst
	recordUsage(t, ledger, inst.ID, 0, 5000, 900)

	status, err := ledger.ComputeStatus(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, LifeActive, status.Status)
	assert.Equal(t, SeverityInfo, status.AlertLevel)
	assert.Zero(t, status.OverallPercentageUsed)
}

func TestComputeStatusInspectionDue(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)

	cfg := cyclesOnlyConfig(10000)
	cfg.InspectionInterval = i64(100)
	inst := seedInstance(m, cfg)

	_, err := ledger.RecordEvent(context.Background(), LifeEvent{
		SerializedPartID: inst.ID,
		EventType:        EventQualityInspection,
		EventDate:        time.Now().UTC().AddDate(0, 0, -30),
		CyclesAtEvent:    50,
	})
	require.NoError(t, err)
	recordUsage(t, ledger, inst.ID, 0, 160, 0)

	status, err := ledger.ComputeStatus(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.True(t, status.InspectionDue, "110 cycles since the last inspection exceeds the 100 cycle interval")
}

func TestComputeStatusRetirementProjection(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	// 500 cycles consumed over 30 days leaves roughly 30 days to the limit.
	recordUsage(t, ledger, inst.ID, 30, 0, 0)
	recordUsage(t, ledger, inst.ID, 0, 500, 0)

	status, err := ledger.ComputeStatus(context.Background(), inst.ID)
	require.NoError(t, err)
	require.NotNil(t, status.DaysUntilRetirement)
	require.NotNil(t, status.RetirementDue)
	assert.InDelta(t, 30, *status.DaysUntilRetirement, 1)
}

func TestBatchRecordEventsItemIsolation(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	batch := []LifeEvent{
		{SerializedPartID: inst.ID, EventType: EventOperation, CyclesAtEvent: 10},
		{SerializedPartID: inst.ID, EventType: EventOperation, CyclesAtEvent: -1},
		{SerializedPartID: inst.ID, EventType: EventOperation, CyclesAtEvent: 20},
	}

	result, err := ledger.BatchRecordEvents(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	require.Len(t, result.Successful, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 0, result.Successful[0].Index)
	assert.Equal(t, 2, result.Successful[1].Index)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.NotEmpty(t, result.Failed[0].Error)

	events, err := m.EventsByInstance(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRetire(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))
	recordUsage(t, ledger, inst.ID, 5, 900, 0)

	eventID, err := ledger.Retire(context.Background(), inst.ID, RetirementData{
		RetirementCycles: 950,
		RetirementHours:  120,
		RetiredBy:        "inspector-7",
		Reason:           "life limit reached",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, eventID)

	got, err := m.InstanceByID(context.Background(), inst.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, PartRetired, got.Status)

	ev, err := m.EventByID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventRetirement, ev.EventType)
	assert.Equal(t, "life limit reached", ev.Metadata["reason"])

	status, err := ledger.ComputeStatus(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, LifeRetired, status.Status)
	assert.Nil(t, status.RetirementDue)
	assert.Nil(t, status.DaysUntilRetirement)
}

func TestRetireTwice(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	_, err := ledger.Retire(context.Background(), inst.ID, RetirementData{RetiredBy: "inspector-7"})
	require.NoError(t, err)

	before, err := m.EventsByInstance(context.Background(), inst.ID)
	require.NoError(t, err)

	_, err = ledger.Retire(context.Background(), inst.ID, RetirementData{RetiredBy: "inspector-7"})
	require.Error(t, err)
	assert.True(t, IsDomain(err), "expected domain error, got %v", err)

	after, err := m.EventsByInstance(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "a failed retirement must not append to the ledger")
}

func TestRetireValidation(t *testing.T) {
	ledger := newTestLedger(newMemStore())

	_, err := ledger.Retire(context.Background(), uuid.Nil, RetirementData{})
	assert.True(t, IsValidation(err))

	_, err = ledger.Retire(context.Background(), uuid.New(), RetirementData{RetirementCycles: -1})
	assert.True(t, IsValidation(err))

	_, err = ledger.Retire(context.Background(), uuid.New(), RetirementData{RetirementHours: -1})
	assert.True(t, IsValidation(err))
}

func TestBackToBirthTracePartitions(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	record := func(daysAgo int, et EventType, cycles int64) {
		_, err := ledger.RecordEvent(context.Background(), LifeEvent{
			SerializedPartID: inst.ID,
			EventType:        et,
			EventDate:        time.Now().UTC().AddDate(0, 0, -daysAgo),
			CyclesAtEvent:    cycles,
		})
		require.NoError(t, err)
	}

	record(100, EventManufacturingComplete, 0)
	record(90, EventQualityInspection, 0)
	record(80, EventInstallation, 0)
	record(40, EventOperation, 300)
	record(20, EventMaintenance, 400)

	trace, err := ledger.BackToBirthTrace(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Equal(t, inst.ID, trace.SerializedPartID)
	assert.Equal(t, inst.SerialNumber, trace.SerialNumber)
	assert.Len(t, trace.Manufacturing, 1)
	assert.Len(t, trace.Quality, 1)
	assert.Len(t, trace.Installation, 2, "installation and operation events share a partition")
	assert.Len(t, trace.Maintenance, 1)
	assert.EqualValues(t, 400, trace.Status.CurrentCycles)
}

func TestBackToBirthTraceEmptyHistory(t *testing.T) {
	m := newMemStore()
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))

	trace, err := ledger.BackToBirthTrace(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.NotNil(t, trace.Manufacturing)
	assert.Empty(t, trace.Manufacturing)
	assert.Empty(t, trace.Quality)
	assert.Empty(t, trace.Installation)
	assert.Empty(t, trace.Maintenance)
}
