package llp

import (
	"time"

	"github.com/google/uuid"
)

// CriticalityLevel classifies how safety-critical a part type is.
type CriticalityLevel string

const (
	CriticalityTracked    CriticalityLevel = "TRACKED"
	CriticalityControlled CriticalityLevel = "CONTROLLED"
	CriticalityCritical   CriticalityLevel = "CRITICAL"
)

// RetirementType is the basis on which a part's life limit is measured.
type RetirementType string

const (
	RetireCyclesOnly   RetirementType = "CYCLES_ONLY"
	RetireTimeOnly     RetirementType = "TIME_ONLY"
	RetireCyclesOrTime RetirementType = "CYCLES_OR_TIME"
)

// PartStatus is the lifecycle state of a serialized part instance.
type PartStatus string

const (
	PartActive  PartStatus = "ACTIVE"
	PartRetired PartStatus = "RETIRED"
)

// EventType identifies what happened to a part instance.
type EventType string

const (
	EventManufacturingComplete EventType = "MANUFACTURING_COMPLETE"
	EventQualityInspection     EventType = "QUALITY_INSPECTION"
	EventInstallation          EventType = "INSTALLATION"
	EventOperation             EventType = "OPERATION"
	EventMaintenance           EventType = "MAINTENANCE"
	EventRetirement            EventType = "RETIREMENT"
)

// LifeState is the derived life status of an instance.
type LifeState string

const (
	LifeActive         LifeState = "ACTIVE"
	LifeExceededLimits LifeState = "EXCEEDED_LIMITS"
	LifeRetired        LifeState = "RETIRED"
)

// Severity orders alert urgency from informational to mandatory-action.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
	SeverityUrgent   Severity = "URGENT"
)

// AlertType identifies the condition an alert reports.
type AlertType string

const (
	AlertLifeLimitApproaching AlertType = "LIFE_LIMIT_APPROACHING"
	AlertLifeLimitExceeded    AlertType = "LIFE_LIMIT_EXCEEDED"
	AlertInspectionDue        AlertType = "INSPECTION_DUE"
)

// PartTypeConfig holds the life-limit policy for a part number, not an instance.
type PartTypeConfig struct {
	PartID                uuid.UUID        `json:"part_id" db:"part_id"`
	IsLifeLimited         bool             `json:"is_life_limited" db:"is_life_limited"`
	Criticality           CriticalityLevel `json:"criticality" db:"criticality"`
	RetirementType        RetirementType   `json:"retirement_type" db:"retirement_type"`
	CycleLimit            *int64           `json:"cycle_limit,omitempty" db:"cycle_limit"`
	TimeLimit             *int64           `json:"time_limit,omitempty" db:"time_limit"`
	InspectionInterval    *int64           `json:"inspection_interval,omitempty" db:"inspection_interval"`
	RegulatoryReference   string           `json:"regulatory_reference,omitempty" db:"regulatory_reference"`
	CertificationRequired bool             `json:"certification_required" db:"certification_required"`
	Notes                 string           `json:"notes,omitempty" db:"notes"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// PartInstance is one physical serialized part owned by a part type.
type PartInstance struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	PartID            uuid.UUID  `json:"part_id" db:"part_id"`
	SerialNumber      string     `json:"serial_number" db:"serial_number"`
	Status            PartStatus `json:"status" db:"status"`
	ManufacturingDate time.Time  `json:"manufacturing_date" db:"manufacturing_date"`
	Location          string     `json:"location,omitempty" db:"location"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// LifeEvent is an immutable ledger entry for a part instance.
type LifeEvent struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	SerializedPartID   uuid.UUID      `json:"serialized_part_id" db:"serialized_part_id"`
	EventType          EventType      `json:"event_type" db:"event_type"`
	EventDate          time.Time      `json:"event_date" db:"event_date"`
	CyclesAtEvent      int64          `json:"cycles_at_event" db:"cycles_at_event"`
	HoursAtEvent       int64          `json:"hours_at_event" db:"hours_at_event"`
	ParentAssemblyID   *uuid.UUID     `json:"parent_assembly_id,omitempty" db:"parent_assembly_id"`
	ParentSerialNumber string         `json:"parent_serial_number,omitempty" db:"parent_serial_number"`
	WorkOrderID        *uuid.UUID     `json:"work_order_id,omitempty" db:"work_order_id"`
	PerformedBy        string         `json:"performed_by,omitempty" db:"performed_by"`
	Location           string         `json:"location,omitempty" db:"location"`
	Notes              string         `json:"notes,omitempty" db:"notes"`
	Metadata           map[string]any `json:"metadata,omitempty" db:"metadata"`
	InspectionResults  map[string]any `json:"inspection_results,omitempty" db:"inspection_results"`
	RepairDetails      map[string]any `json:"repair_details,omitempty" db:"repair_details"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
}

// LifeStatus is derived from the ledger; it is never stored.
type LifeStatus struct {
	SerializedPartID      uuid.UUID  `json:"serialized_part_id"`
	SerialNumber          string     `json:"serial_number"`
	CurrentCycles         int64      `json:"current_cycles"`
	CurrentHours          int64      `json:"current_hours"`
	OverallPercentageUsed float64    `json:"overall_percentage_used"`
	Status                LifeState  `json:"status"`
	AlertLevel            Severity   `json:"alert_level"`
	RetirementDue         *time.Time `json:"retirement_due,omitempty"`
	DaysUntilRetirement   *int       `json:"days_until_retirement,omitempty"`
	RetirementRequired    bool       `json:"retirement_required"`
	InspectionDue         bool       `json:"inspection_due"`
}

// Alert reports a life-limit or inspection condition on a part instance.
type Alert struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	SerializedPartID  uuid.UUID      `json:"serialized_part_id" db:"serialized_part_id"`
	AlertType         AlertType      `json:"alert_type" db:"alert_type"`
	Severity          Severity       `json:"severity" db:"severity"`
	Title             string         `json:"title" db:"title"`
	Message           string         `json:"message" db:"message"`
	CurrentCycles     int64          `json:"current_cycles" db:"current_cycles"`
	CurrentHours      int64          `json:"current_hours" db:"current_hours"`
	ThresholdPct      *float64       `json:"threshold_pct,omitempty" db:"threshold_pct"`
	IsActive          bool           `json:"is_active" db:"is_active"`
	IsAcknowledged    bool           `json:"is_acknowledged" db:"is_acknowledged"`
	AcknowledgedBy    string         `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt    *time.Time     `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	AcknowledgedNotes string         `json:"acknowledged_notes,omitempty" db:"acknowledged_notes"`
	ResolvedBy        string         `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	Resolution        string         `json:"resolution,omitempty" db:"resolution"`
	ResolutionNotes   string         `json:"resolution_notes,omitempty" db:"resolution_notes"`
	Metadata          map[string]any `json:"metadata,omitempty" db:"metadata"`
	GeneratedAt       time.Time      `json:"generated_at" db:"generated_at"`
}

// ThresholdConfig is a percentage threshold set with notification routing.
// A nil SerializedPartID scopes the configuration globally.
type ThresholdConfig struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SerializedPartID *uuid.UUID `json:"serialized_part_id,omitempty" db:"serialized_part_id"`
	Info             float64    `json:"info" db:"info"`
	Warning          float64    `json:"warning" db:"warning"`
	Critical         float64    `json:"critical" db:"critical"`
	Urgent           float64    `json:"urgent" db:"urgent"`
	NotifyEmail      bool       `json:"notify_email" db:"notify_email"`
	NotifySMS        bool       `json:"notify_sms" db:"notify_sms"`
	NotifyDashboard  bool       `json:"notify_dashboard" db:"notify_dashboard"`
	Recipients       []string   `json:"recipients,omitempty" db:"recipients"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// DefaultThresholds is the threshold policy applied when no configuration exists.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		Info:            50,
		Warning:         75,
		Critical:        90,
		Urgent:          100,
		NotifyDashboard: true,
	}
}

// CertificationDocument records an uploaded certificate tied to a life event.
type CertificationDocument struct {
	ID          uuid.UUID `json:"id" db:"id"`
	LifeEventID uuid.UUID `json:"life_event_id" db:"life_event_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	URL         string    `json:"url" db:"url"`
	SHA256      string    `json:"sha256,omitempty" db:"sha256"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// BackToBirthTrace partitions an instance's full history by event category.
type BackToBirthTrace struct {
	SerializedPartID uuid.UUID   `json:"serialized_part_id"`
	SerialNumber     string      `json:"serial_number"`
	Manufacturing    []LifeEvent `json:"manufacturing"`
	Quality          []LifeEvent `json:"quality"`
	Installation     []LifeEvent `json:"installation"`
	Maintenance      []LifeEvent `json:"maintenance"`
	Status           LifeStatus  `json:"status"`
}

// BatchItemSuccess is one accepted event in a batch submission.
type BatchItemSuccess struct {
	Index   int       `json:"index"`
	EventID uuid.UUID `json:"event_id"`
}

// BatchItemFailure is one rejected event in a batch submission.
type BatchItemFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchResult reports per-item outcomes of a batch submission. A failing item
// never aborts the rest of the batch.
type BatchResult struct {
	Successful     []BatchItemSuccess `json:"successful"`
	Failed         []BatchItemFailure `json:"failed"`
	TotalProcessed int                `json:"total_processed"`
}

// RetirementData carries the final usage readings for a retirement.
type RetirementData struct {
	RetirementCycles int64          `json:"retirement_cycles"`
	RetirementHours  int64          `json:"retirement_hours"`
	RetiredBy        string         `json:"retired_by"`
	Reason           string         `json:"reason,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// AlertFilter selects alerts for listing.
type AlertFilter struct {
	Severity         *Severity
	IsActive         *bool
	SerializedPartID *uuid.UUID
	Page             int
	Limit            int
}

// AlertPage is a stable newest-first page of alerts.
type AlertPage struct {
	Data        []Alert `json:"data"`
	Total       int64   `json:"total"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"total_pages"`
	HasNextPage bool    `json:"has_next_page"`
}

// AlertStatistics aggregates alert counts for dashboards.
type AlertStatistics struct {
	BySeverity map[Severity]int64  `json:"by_severity"`
	ByType     map[AlertType]int64 `json:"by_type"`
	Active     int64               `json:"active"`
	Resolved   int64               `json:"resolved"`
	Last24h    int64               `json:"last_24h"`
	Last7d     int64               `json:"last_7d"`
	Last30d    int64               `json:"last_30d"`
}

func validCriticality(c CriticalityLevel) bool {
	switch c {
	case CriticalityTracked, CriticalityControlled, CriticalityCritical:
		return true
	}
	return false
}

func validRetirementType(r RetirementType) bool {
	switch r {
	case RetireCyclesOnly, RetireTimeOnly, RetireCyclesOrTime:
		return true
	}
	return false
}

func validEventType(e EventType) bool {
	switch e {
	case EventManufacturingComplete, EventQualityInspection, EventInstallation,
		EventOperation, EventMaintenance, EventRetirement:
		return true
	}
	return false
}

func validSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical, SeverityUrgent:
		return true
	}
	return false
}

func validAlertType(t AlertType) bool {
	switch t {
	case AlertLifeLimitApproaching, AlertLifeLimitExceeded, AlertInspectionDue:
		return true
	}
	return false
}
