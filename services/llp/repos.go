package llp

import (
	"context"

	"github.com/google/uuid"
)

// PartConfigRepository persists per-part life-limit policy.
type PartConfigRepository interface {
	UpsertConfig(ctx context.Context, cfg PartTypeConfig) (PartTypeConfig, error)
	// ConfigByPartID returns nil, nil when no configuration exists for the part.
	ConfigByPartID(ctx context.Context, partID uuid.UUID) (*PartTypeConfig, error)
}

// PartInstanceRepository persists serialized part instances.
type PartInstanceRepository interface {
	CreateInstance(ctx context.Context, inst PartInstance) (PartInstance, error)
	// InstanceByID returns nil, nil when the instance does not exist.
	InstanceByID(ctx context.Context, id uuid.UUID) (*PartInstance, error)
	// RetireInstance appends a RETIREMENT event and flips the instance status to
	// RETIRED in a single transaction. Both effects happen or neither does.
	RetireInstance(ctx context.Context, id uuid.UUID, ev LifeEvent) (uuid.UUID, error)
}

// LifeEventRepository is the append-only ledger. Entries are never updated or
// deleted except by cascade with the owning instance.
type LifeEventRepository interface {
	AppendEvent(ctx context.Context, ev LifeEvent) (uuid.UUID, error)
	// EventsByInstance returns all events ordered by event_date ascending, ties
	// broken by insertion order.
	EventsByInstance(ctx context.Context, instanceID uuid.UUID) ([]LifeEvent, error)
	// EventByID returns nil, nil when the event does not exist.
	EventByID(ctx context.Context, id uuid.UUID) (*LifeEvent, error)
	// EventsByWorkOrder returns all events linked to a work order, ordered by
	// event_date ascending.
	EventsByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]LifeEvent, error)
}

// CertificationRepository stores certificate documents attached to life events.
type CertificationRepository interface {
	AddCertification(ctx context.Context, doc CertificationDocument) (CertificationDocument, error)
	CertificationsByEvent(ctx context.Context, eventID uuid.UUID) ([]CertificationDocument, error)
}

// AlertRepository persists alerts. Creation must be atomic with respect to the
// one-active-alert-per-(instance, type) invariant; a losing concurrent insert
// observes the winner instead of creating a duplicate.
type AlertRepository interface {
	// CreateAlert inserts a, or returns the already-active alert for the same
	// (serialized_part_id, alert_type) pair. The bool reports whether a new row
	// was created.
	CreateAlert(ctx context.Context, a Alert) (Alert, bool, error)
	// AlertByID returns nil, nil when the alert does not exist.
	AlertByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	SaveAlert(ctx context.Context, a Alert) error
	ListAlerts(ctx context.Context, f AlertFilter) ([]Alert, int64, error)
	Statistics(ctx context.Context) (AlertStatistics, error)
}

// ThresholdRepository persists threshold configurations.
type ThresholdRepository interface {
	UpsertThresholds(ctx context.Context, tc ThresholdConfig) (ThresholdConfig, error)
	// ThresholdsFor resolves the effective configuration for an instance:
	// instance-scoped first, then global, then nil, nil when none exist.
	ThresholdsFor(ctx context.Context, instanceID uuid.UUID) (*ThresholdConfig, error)
}
