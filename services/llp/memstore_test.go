package llp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory implementation of the repository interfaces used
// to exercise the engines without a database.
type memStore struct {
	mu sync.Mutex

	configs    map[uuid.UUID]PartTypeConfig
	instances  map[uuid.UUID]PartInstance
	events     map[uuid.UUID][]LifeEvent
	eventsByID map[uuid.UUID]LifeEvent
	certs      map[uuid.UUID][]CertificationDocument
	alerts     map[uuid.UUID]Alert
	alertOrder []uuid.UUID
	scoped     map[uuid.UUID]ThresholdConfig
	global     *ThresholdConfig
}

func newMemStore() *memStore {
	return &memStore{
		configs:    map[uuid.UUID]PartTypeConfig{},
		instances:  map[uuid.UUID]PartInstance{},
		events:     map[uuid.UUID][]LifeEvent{},
		eventsByID: map[uuid.UUID]LifeEvent{},
		certs:      map[uuid.UUID][]CertificationDocument{},
		alerts:     map[uuid.UUID]Alert{},
		scoped:     map[uuid.UUID]ThresholdConfig{},
	}
}

var (
	_ PartConfigRepository   = (*memStore)(nil)
	_ PartInstanceRepository = (*memStore)(nil)
	_ LifeEventRepository    = (*memStore)(nil)
	_ CertificationRepository = (*memStore)(nil)
	_ AlertRepository        = (*memStore)(nil)
	_ ThresholdRepository    = (*memStore)(nil)
)

func (m *memStore) UpsertConfig(ctx context.Context, cfg PartTypeConfig) (PartTypeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.PartID] = cfg
	return cfg, nil
}

func (m *memStore) ConfigByPartID(ctx context.Context, partID uuid.UUID) (*PartTypeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[partID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (m *memStore) CreateInstance(ctx context.Context, inst PartInstance) (PartInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[inst.ID] = inst
	return inst, nil
}

func (m *memStore) InstanceByID(ctx context.Context, id uuid.UUID) (*PartInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return nil, nil
	}
	return &inst, nil
}

func (m *memStore) RetireInstance(ctx context.Context, id uuid.UUID, ev LifeEvent) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return uuid.Nil, notFoundErr("serialized part", id)
	}
	if inst.Status == PartRetired {
		return uuid.Nil, domainErr("serialized part %s is already retired", id)
	}

	inst.Status = PartRetired
	m.instances[id] = inst
	m.events[id] = append(m.events[id], ev)
	m.eventsByID[ev.ID] = ev
	return ev.ID, nil
}

func (m *memStore) AppendEvent(ctx context.Context, ev LifeEvent) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.SerializedPartID] = append(m.events[ev.SerializedPartID], ev)
	m.eventsByID[ev.ID] = ev
	return ev.ID, nil
}

func (m *memStore) EventsByInstance(ctx context.Context, instanceID uuid.UUID) ([]LifeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]LifeEvent(nil), m.events[instanceID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventDate.Before(out[j].EventDate)
	})
	return out, nil
}

func (m *memStore) EventsByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]LifeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LifeEvent
	for _, evs := range m.events {
		for _, ev := range evs {
			if ev.WorkOrderID != nil && *ev.WorkOrderID == workOrderID {
				out = append(out, ev)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventDate.Before(out[j].EventDate)
	})
	return out, nil
}

func (m *memStore) EventByID(ctx context.Context, id uuid.UUID) (*LifeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.eventsByID[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (m *memStore) AddCertification(ctx context.Context, doc CertificationDocument) (CertificationDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.CreatedAt = time.Now().UTC()
	m.certs[doc.LifeEventID] = append(m.certs[doc.LifeEventID], doc)
	return doc, nil
}

func (m *memStore) CertificationsByEvent(ctx context.Context, eventID uuid.UUID) ([]CertificationDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CertificationDocument(nil), m.certs[eventID]...), nil
}

func (m *memStore) CreateAlert(ctx context.Context, a Alert) (Alert, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.alertOrder {
		existing := m.alerts[id]
		if existing.IsActive &&
			existing.SerializedPartID == a.SerializedPartID &&
			existing.AlertType == a.AlertType {
			return existing, false, nil
		}
	}

	m.alerts[a.ID] = a
	m.alertOrder = append(m.alertOrder, a.ID)
	return a, true, nil
}

func (m *memStore) AlertByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memStore) SaveAlert(ctx context.Context, a Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		return notFoundErr("alert", a.ID)
	}
	m.alerts[a.ID] = a
	return nil
}

func (m *memStore) ListAlerts(ctx context.Context, f AlertFilter) ([]Alert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Alert
	for _, id := range m.alertOrder {
		a := m.alerts[id]
		if f.Severity != nil && a.Severity != *f.Severity {
			continue
		}
		if f.IsActive != nil && a.IsActive != *f.IsActive {
			continue
		}
		if f.SerializedPartID != nil && a.SerializedPartID != *f.SerializedPartID {
			continue
		}
		matched = append(matched, a)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].GeneratedAt.After(matched[j].GeneratedAt)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []Alert{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memStore) Statistics(ctx context.Context) (AlertStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := AlertStatistics{
		BySeverity: map[Severity]int64{},
		ByType:     map[AlertType]int64{},
	}
	now := time.Now().UTC()
	for _, a := range m.alerts {
		stats.BySeverity[a.Severity]++
		stats.ByType[a.AlertType]++
		if a.IsActive {
			stats.Active++
		} else {
			stats.Resolved++
		}
		if age := now.Sub(a.GeneratedAt); age <= 24*time.Hour {
			stats.Last24h++
		}
		if age := now.Sub(a.GeneratedAt); age <= 7*24*time.Hour {
			stats.Last7d++
		}
		if age := now.Sub(a.GeneratedAt); age <= 30*24*time.Hour {
			stats.Last30d++
		}
	}
	return stats, nil
}

func (m *memStore) UpsertThresholds(ctx context.Context, tc ThresholdConfig) (ThresholdConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc.SerializedPartID == nil {
		m.global = &tc
	} else {
		m.scoped[*tc.SerializedPartID] = tc
	}
	return tc, nil
}

func (m *memStore) ThresholdsFor(ctx context.Context, instanceID uuid.UUID) (*ThresholdConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc, ok := m.scoped[instanceID]; ok {
		return &tc, nil
	}
	if m.global != nil {
		tc := *m.global
		return &tc, nil
	}
	return nil, nil
}

// fixture helpers

func seedInstance(m *memStore, cfg PartTypeConfig) PartInstance {
	partID := cfg.PartID
	if partID == uuid.Nil {
		partID = uuid.New()
		cfg.PartID = partID
	}
	m.configs[partID] = cfg

	inst := PartInstance{
		ID:                uuid.New(),
		PartID:            partID,
		SerialNumber:      "SN-" + inst8(),
		Status:            PartActive,
		ManufacturingDate: time.Now().UTC().AddDate(-1, 0, 0),
	}
	m.instances[inst.ID] = inst
	return inst
}

func inst8() string {
	return uuid.NewString()[:8]
}

func i64(v int64) *int64 { return &v }

func cyclesOnlyConfig(limit int64) PartTypeConfig {
	return PartTypeConfig{
		IsLifeLimited:  true,
		Criticality:    CriticalityCritical,
		RetirementType: RetireCyclesOnly,
		CycleLimit:     i64(limit),
	}
}
