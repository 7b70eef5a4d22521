package llp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(m *memStore) *AlertEngine {
	return NewAlertEngine(m, m, newTestLedger(m))
}

func TestConfigureThresholdsValidation(t *testing.T) {
	engine := newTestEngine(newMemStore())

	tests := []struct {
		name string
		tc   ThresholdConfig
	}{
		{
			name: "not ascending",
			tc:   ThresholdConfig{Info: 50, Warning: 90, Critical: 75, Urgent: 100},
		},
		{
			name: "equal values",
			tc:   ThresholdConfig{Info: 50, Warning: 75, Critical: 75, Urgent: 100},
		},
		{
			name: "negative value",
			tc:   ThresholdConfig{Info: -10, Warning: 75, Critical: 90, Urgent: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ConfigureThresholds(context.Background(), tt.tc)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestConfigureThresholdsScoping(t *testing.T) {
	m := newMemStore()
	engine := newTestEngine(m)
	instanceID := uuid.New()

	_, err := engine.ConfigureThresholds(context.Background(), ThresholdConfig{
		Info: 50, Warning: 75, Critical: 90, Urgent: 100,
	})
	require.NoError(t, err)

	scoped, err := engine.ConfigureThresholds(context.Background(), ThresholdConfig{
		SerializedPartID: &instanceID,
		Info:             40, Warning: 60, Critical: 80, Urgent: 95,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, scoped.ID)

	got, err := m.ThresholdsFor(context.Background(), instanceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 60.0, got.Warning, "the instance-scoped configuration wins")

	other, err := m.ThresholdsFor(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, 75.0, other.Warning, "other instances fall back to the global configuration")
}

func TestGenerateAlertValidation(t *testing.T) {
	engine := newTestEngine(newMemStore())

	_, err := engine.GenerateAlert(context.Background(), Alert{
		AlertType: AlertInspectionDue,
		Severity:  SeverityWarning,
	})
	assert.True(t, IsValidation(err))

	_, err = engine.GenerateAlert(context.Background(), Alert{
		SerializedPartID: uuid.New(),
		AlertType:        "ENGINE_ON_FIRE",
		Severity:         SeverityWarning,
	})
	assert.True(t, IsValidation(err))

	_, err = engine.GenerateAlert(context.Background(), Alert{
		SerializedPartID: uuid.New(),
		AlertType:        AlertInspectionDue,
		Severity:         "PANIC",
	})
	assert.True(t, IsValidation(err))
}

func TestGenerateAlertDeduplicates(t *testing.T) {
	engine := newTestEngine(newMemStore())
	instanceID := uuid.New()

	alert := Alert{
		SerializedPartID: instanceID,
		AlertType:        AlertLifeLimitApproaching,
		Severity:         SeverityWarning,
		Title:            "approaching",
	}

	first, err := engine.GenerateAlert(context.Background(), alert)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.Alert.IsActive)
	assert.False(t, first.Alert.IsAcknowledged)

	second, err := engine.GenerateAlert(context.Background(), alert)
	require.NoError(t, err)
	assert.False(t, second.Created, "an active alert for the same condition is reused")
	assert.Equal(t, first.Alert.ID, second.Alert.ID)

	// A different alert type on the same instance is a separate condition.
	other, err := engine.GenerateAlert(context.Background(), Alert{
		SerializedPartID: instanceID,
		AlertType:        AlertInspectionDue,
		Severity:         SeverityWarning,
	})
	require.NoError(t, err)
	assert.True(t, other.Created)
}

func TestEvaluateForAlerts(t *testing.T) {
	tests := []struct {
		name      string
		cycles    int64
		wantTypes []AlertType
		wantSev   Severity
	}{
		{name: "info generates nothing", cycles: 500},
		{
			name:      "warning band",
			cycles:    800,
			wantTypes: []AlertType{AlertLifeLimitApproaching},
			wantSev:   SeverityWarning,
		},
		{
			name:      "critical band",
			cycles:    950,
			wantTypes: []AlertType{AlertLifeLimitApproaching},
			wantSev:   SeverityCritical,
		},
		{
			name:      "over the limit",
			cycles:    1200,
			wantTypes: []AlertType{AlertLifeLimitExceeded},
			wantSev:   SeverityUrgent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemStore()
			engine := newTestEngine(m)
			ledger := newTestLedger(m)
			inst := seedInstance(m, cyclesOnlyConfig(1000))
			recordUsage(t, ledger, inst.ID, 0, tt.cycles, 0)

			generated, err := engine.EvaluateForAlerts(context.Background(), inst.ID)
			require.NoError(t, err)
			require.Len(t, generated, len(tt.wantTypes))
			for i, want := range tt.wantTypes {
				assert.Equal(t, want, generated[i].Alert.AlertType)
				assert.Equal(t, tt.wantSev, generated[i].Alert.Severity)
				assert.True(t, generated[i].Created)
			}
		})
	}
}

func TestEvaluateForAlertsInspectionDue(t *testing.T) {
	m := newMemStore()
	engine := newTestEngine(m)
	ledger := newTestLedger(m)

	cfg := cyclesOnlyConfig(1000)
	cfg.InspectionInterval = i64(100)
	inst := seedInstance(m, cfg)

	// 850 cycles with no inspection on record: warning band plus inspection due.
	recordUsage(t, ledger, inst.ID, 0, 850, 0)

	generated, err := engine.EvaluateForAlerts(context.Background(), inst.ID)
	require.NoError(t, err)
	require.Len(t, generated, 2)
	assert.Equal(t, AlertLifeLimitApproaching, generated[0].Alert.AlertType)
	assert.Equal(t, AlertInspectionDue, generated[1].Alert.AlertType)
	assert.Equal(t, SeverityWarning, generated[1].Alert.Severity)
}

func TestEvaluateForAlertsIdempotentWhileActive(t *testing.T) {
	m := newMemStore()
	engine := newTestEngine(m)
	ledger := newTestLedger(m)
	inst := seedInstance(m, cyclesOnlyConfig(1000))
	recordUsage(t, ledger, inst.ID, 1, 800, 0)

	first, err := engine.EvaluateForAlerts(context.Background(), inst.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Created)

	recordUsage(t, ledger, inst.ID, 0, 820, 0)
	second, err := engine.EvaluateForAlerts(context.Background(), inst.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.False(t, second[0].Created)
	assert.Equal(t, first[0].Alert.ID, second[0].Alert.ID)
}

func TestAlertLifecycle(t *testing.T) {
	engine := newTestEngine(newMemStore())
	instanceID := uuid.New()

	generated, err := engine.GenerateAlert(context.Background(), Alert{
		SerializedPartID: instanceID,
		AlertType:        AlertLifeLimitApproaching,
		Severity:         SeverityWarning,
	})
	require.NoError(t, err)
	alertID := generated.Alert.ID

	// Resolving before acknowledgment is rejected.
	_, err = engine.Resolve(context.Background(), alertID, "tech-1", "INSPECTED", "")
	require.Error(t, err)
	assert.True(t, IsDomain(err))

	acked, err := engine.Acknowledge(context.Background(), alertID, "tech-1", "looking into it")
	require.NoError(t, err)
	assert.True(t, acked.IsAcknowledged)
	assert.Equal(t, "tech-1", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)
	assert.True(t, acked.IsActive, "acknowledgment keeps the alert active")

	// Double acknowledgment is rejected.
	_, err = engine.Acknowledge(context.Background(), alertID, "tech-2", "")
	require.Error(t, err)
	assert.True(t, IsDomain(err))

	resolved, err := engine.Resolve(context.Background(), alertID, "tech-1", "PART_RETIRED", "done")
	require.NoError(t, err)
	assert.False(t, resolved.IsActive)
	assert.Equal(t, "PART_RETIRED", resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)

	// Double resolution is rejected.
	_, err = engine.Resolve(context.Background(), alertID, "tech-1", "PART_RETIRED", "")
	require.Error(t, err)
	assert.True(t, IsDomain(err))

	// With the prior alert resolved, the same condition creates a fresh alert.
	again, err := engine.GenerateAlert(context.Background(), Alert{
		SerializedPartID: instanceID,
		AlertType:        AlertLifeLimitApproaching,
		Severity:         SeverityWarning,
	})
	require.NoError(t, err)
	assert.True(t, again.Created)
	assert.NotEqual(t, alertID, again.Alert.ID)
}

func TestAlertLifecycleValidation(t *testing.T) {
	engine := newTestEngine(newMemStore())

	_, err := engine.Acknowledge(context.Background(), uuid.New(), "", "")
	assert.True(t, IsValidation(err))

	_, err = engine.Acknowledge(context.Background(), uuid.New(), "tech-1", "")
	assert.True(t, IsNotFound(err))

	_, err = engine.Resolve(context.Background(), uuid.New(), "tech-1", "", "")
	assert.True(t, IsValidation(err))

	_, err = engine.Resolve(context.Background(), uuid.New(), "tech-1", "INSPECTED", "")
	assert.True(t, IsNotFound(err))
}

func TestListAlertsPagination(t *testing.T) {
	m := newMemStore()
	engine := newTestEngine(m)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		_, created, err := m.CreateAlert(context.Background(), Alert{
			ID:               uuid.New(),
			SerializedPartID: uuid.New(),
			AlertType:        AlertLifeLimitApproaching,
			Severity:         SeverityWarning,
			IsActive:         true,
			GeneratedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	page, err := engine.ListAlerts(context.Background(), AlertFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.Data, 10)
	assert.True(t, page.Data[0].GeneratedAt.After(page.Data[9].GeneratedAt), "newest first")

	last, err := engine.ListAlerts(context.Background(), AlertFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.False(t, last.HasNextPage)
	assert.Len(t, last.Data, 5)

	beyond, err := engine.ListAlerts(context.Background(), AlertFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.EqualValues(t, 25, beyond.Total)
}

func TestListAlertsFilters(t *testing.T) {
	m := newMemStore()
	engine := newTestEngine(m)
	target := uuid.New()

	seed := func(instanceID uuid.UUID, at AlertType, sev Severity, active bool) {
		_, _, err := m.CreateAlert(context.Background(), Alert{
			ID:               uuid.New(),
			SerializedPartID: instanceID,
			AlertType:        at,
			Severity:         sev,
			IsActive:         active,
			GeneratedAt:      time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	seed(target, AlertLifeLimitApproaching, SeverityWarning, true)
	seed(target, AlertLifeLimitExceeded, SeverityUrgent, false)
	seed(uuid.New(), AlertInspectionDue, SeverityWarning, true)

	urgent := SeverityUrgent
	page, err := engine.ListAlerts(context.Background(), AlertFilter{Severity: &urgent})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, AlertLifeLimitExceeded, page.Data[0].AlertType)

	active := true
	page, err = engine.ListAlerts(context.Background(), AlertFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	page, err = engine.ListAlerts(context.Background(), AlertFilter{SerializedPartID: &target})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	bogus := Severity("LOUD")
	_, err = engine.ListAlerts(context.Background(), AlertFilter{Severity: &bogus})
	assert.True(t, IsValidation(err))
}

func TestStatistics(t *testing.T) {
	m := newMemStore()
	engine := newTestEngine(m)

	seed := func(sev Severity, at AlertType, active bool, age time.Duration) {
		_, _, err := m.CreateAlert(context.Background(), Alert{
			ID:               uuid.New(),
			SerializedPartID: uuid.New(),
			AlertType:        at,
			Severity:         sev,
			IsActive:         active,
			GeneratedAt:      time.Now().UTC().Add(-age),
		})
		require.NoError(t, err)
	}

	seed(SeverityWarning, AlertLifeLimitApproaching, true, time.Hour)
	seed(SeverityUrgent, AlertLifeLimitExceeded, true, 3*24*time.Hour)
	seed(SeverityWarning, AlertInspectionDue, false, 20*24*time.Hour)

	stats, err := engine.Statistics(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.BySeverity[SeverityWarning])
	assert.EqualValues(t, 1, stats.BySeverity[SeverityUrgent])
	assert.EqualValues(t, 1, stats.ByType[AlertLifeLimitExceeded])
	assert.EqualValues(t, 2, stats.Active)
	assert.EqualValues(t, 1, stats.Resolved)
	assert.EqualValues(t, 1, stats.Last24h)
	assert.EqualValues(t, 2, stats.Last7d)
	assert.EqualValues(t, 3, stats.Last30d)
}
