package llp

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type partConfigModel struct {
	PartID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsLifeLimited         bool      `gorm:"not null;default:false"`
	Criticality           string    `gorm:"type:text;not null"`
	RetirementType        string    `gorm:"type:text;not null"`
	CycleLimit            *int64    `gorm:"type:bigint"`
	TimeLimit             *int64    `gorm:"type:bigint"`
	InspectionInterval    *int64    `gorm:"type:bigint"`
	RegulatoryReference   string    `gorm:"type:text"`
	CertificationRequired bool      `gorm:"not null;default:false"`
	Notes                 string    `gorm:"type:text"`
	CreatedAt             time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt             time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (partConfigModel) TableName() string { return "part_type_configs" }

func (m partConfigModel) toAPI() PartTypeConfig {
	return PartTypeConfig{
		PartID:                m.PartID,
		IsLifeLimited:         m.IsLifeLimited,
		Criticality:           CriticalityLevel(m.Criticality),
		RetirementType:        RetirementType(m.RetirementType),
		CycleLimit:            m.CycleLimit,
		TimeLimit:             m.TimeLimit,
		InspectionInterval:    m.InspectionInterval,
		RegulatoryReference:   m.RegulatoryReference,
		CertificationRequired: m.CertificationRequired,
		Notes:                 m.Notes,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func partConfigFromAPI(c PartTypeConfig) partConfigModel {
	return partConfigModel{
		PartID:                c.PartID,
		IsLifeLimited:         c.IsLifeLimited,
		Criticality:           string(c.Criticality),
		RetirementType:        string(c.RetirementType),
		CycleLimit:            c.CycleLimit,
		TimeLimit:             c.TimeLimit,
		InspectionInterval:    c.InspectionInterval,
		RegulatoryReference:   c.RegulatoryReference,
		CertificationRequired: c.CertificationRequired,
		Notes:                 c.Notes,
	}
}

type partInstanceModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	PartID            uuid.UUID `gorm:"type:uuid;not null;index"`
	SerialNumber      string    `gorm:"type:text;uniqueIndex;not null"`
	Status            string    `gorm:"type:text;not null"`
	ManufacturingDate time.Time `gorm:"type:timestamptz;not null"`
	Location          string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt         time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (partInstanceModel) TableName() string { return "serialized_part_instances" }

func (m partInstanceModel) toAPI() PartInstance {
	return PartInstance{
		ID:                m.ID,
		PartID:            m.PartID,
		SerialNumber:      m.SerialNumber,
		Status:            PartStatus(m.Status),
		ManufacturingDate: m.ManufacturingDate,
		Location:          m.Location,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

type lifeEventModel struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SerializedPartID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_life_events_instance_date,priority:1"`
	EventType          string            `gorm:"type:text;not null"`
	EventDate          time.Time         `gorm:"type:timestamptz;not null;index:idx_life_events_instance_date,priority:2"`
	CyclesAtEvent      int64             `gorm:"type:bigint;not null"`
	HoursAtEvent       int64             `gorm:"type:bigint;not null"`
	ParentAssemblyID   *uuid.UUID        `gorm:"type:uuid"`
	ParentSerialNumber string            `gorm:"type:text"`
	WorkOrderID        *uuid.UUID        `gorm:"type:uuid;index"`
	PerformedBy        string            `gorm:"type:text"`
	Location           string            `gorm:"type:text"`
	Notes              string            `gorm:"type:text"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb"`
	InspectionResults  datatypes.JSONMap `gorm:"type:jsonb"`
	RepairDetails      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt          time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (lifeEventModel) TableName() string { return "life_events" }

func (m lifeEventModel) toAPI() LifeEvent {
	return LifeEvent{
		ID:                 m.ID,
		SerializedPartID:   m.SerializedPartID,
		EventType:          EventType(m.EventType),
		EventDate:          m.EventDate,
		CyclesAtEvent:      m.CyclesAtEvent,
		HoursAtEvent:       m.HoursAtEvent,
		ParentAssemblyID:   m.ParentAssemblyID,
		ParentSerialNumber: m.ParentSerialNumber,
		WorkOrderID:        m.WorkOrderID,
		PerformedBy:        m.PerformedBy,
		Location:           m.Location,
		Notes:              m.Notes,
		Metadata:           mapFromJSONMap(m.Metadata),
		InspectionResults:  mapFromJSONMap(m.InspectionResults),
		RepairDetails:      mapFromJSONMap(m.RepairDetails),
		CreatedAt:          m.CreatedAt,
	}
}

func lifeEventFromAPI(ev LifeEvent) lifeEventModel {
	return lifeEventModel{
		ID:                 ev.ID,
		SerializedPartID:   ev.SerializedPartID,
		EventType:          string(ev.EventType),
		EventDate:          ev.EventDate,
		CyclesAtEvent:      ev.CyclesAtEvent,
		HoursAtEvent:       ev.HoursAtEvent,
		ParentAssemblyID:   ev.ParentAssemblyID,
		ParentSerialNumber: ev.ParentSerialNumber,
		WorkOrderID:        ev.WorkOrderID,
		PerformedBy:        ev.PerformedBy,
		Location:           ev.Location,
		Notes:              ev.Notes,
		Metadata:           toJSONMap(ev.Metadata),
		InspectionResults:  toJSONMap(ev.InspectionResults),
		RepairDetails:      toJSONMap(ev.RepairDetails),
	}
}

type certificationModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	LifeEventID uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName    string    `gorm:"type:text;not null"`
	URL         string    `gorm:"type:text;not null"`
	SHA256      string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (certificationModel) TableName() string { return "certification_documents" }

func (m certificationModel) toAPI() CertificationDocument {
	return CertificationDocument{
		ID:          m.ID,
		LifeEventID: m.LifeEventID,
		FileName:    m.FileName,
		URL:         m.URL,
		SHA256:      m.SHA256,
		CreatedAt:   m.CreatedAt,
	}
}

type alertModel struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey"`
	SerializedPartID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	AlertType         string            `gorm:"type:text;not null"`
	Severity          string            `gorm:"type:text;not null"`
	Title             string            `gorm:"type:text;not null"`
	Message           string            `gorm:"type:text"`
	CurrentCycles     int64             `gorm:"type:bigint;not null"`
	CurrentHours      int64             `gorm:"type:bigint;not null"`
	ThresholdPct      *float64          `gorm:"type:double precision"`
	IsActive          bool              `gorm:"not null;default:true"`
	IsAcknowledged    bool              `gorm:"not null;default:false"`
	AcknowledgedBy    string            `gorm:"type:text"`
	AcknowledgedAt    *time.Time        `gorm:"type:timestamptz"`
	AcknowledgedNotes string            `gorm:"type:text"`
	ResolvedBy        string            `gorm:"type:text"`
	ResolvedAt        *time.Time        `gorm:"type:timestamptz"`
	Resolution        string            `gorm:"type:text"`
	ResolutionNotes   string            `gorm:"type:text"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`
	GeneratedAt       time.Time         `gorm:"type:timestamptz;not null;default:now()"`
}

func (alertModel) TableName() string { return "alerts" }

func (m alertModel) toAPI() Alert {
	return Alert{
		ID:                m.ID,
		SerializedPartID:  m.SerializedPartID,
		AlertType:         AlertType(m.AlertType),
		Severity:          Severity(m.Severity),
		Title:             m.Title,
		Message:           m.Message,
		CurrentCycles:     m.CurrentCycles,
		CurrentHours:      m.CurrentHours,
		ThresholdPct:      m.ThresholdPct,
		IsActive:          m.IsActive,
		IsAcknowledged:    m.IsAcknowledged,
		AcknowledgedBy:    m.AcknowledgedBy,
		AcknowledgedAt:    m.AcknowledgedAt,
		AcknowledgedNotes: m.AcknowledgedNotes,
		ResolvedBy:        m.ResolvedBy,
		ResolvedAt:        m.ResolvedAt,
		Resolution:        m.Resolution,
		ResolutionNotes:   m.ResolutionNotes,
		Metadata:          mapFromJSONMap(m.Metadata),
		GeneratedAt:       m.GeneratedAt,
	}
}

func alertFromAPI(a Alert) alertModel {
	return alertModel{
		ID:                a.ID,
		SerializedPartID:  a.SerializedPartID,
		AlertType:         string(a.AlertType),
		Severity:          string(a.Severity),
		Title:             a.Title,
		Message:           a.Message,
		CurrentCycles:     a.CurrentCycles,
		CurrentHours:      a.CurrentHours,
		ThresholdPct:      a.ThresholdPct,
		IsActive:          a.IsActive,
		IsAcknowledged:    a.IsAcknowledged,
		AcknowledgedBy:    a.AcknowledgedBy,
		AcknowledgedAt:    a.AcknowledgedAt,
		AcknowledgedNotes: a.AcknowledgedNotes,
		ResolvedBy:        a.ResolvedBy,
		ResolvedAt:        a.ResolvedAt,
		Resolution:        a.Resolution,
		ResolutionNotes:   a.ResolutionNotes,
		Metadata:          toJSONMap(a.Metadata),
		GeneratedAt:       a.GeneratedAt,
	}
}

type thresholdModel struct {
	ID               uuid.UUID                     `gorm:"type:uuid;primaryKey"`
	SerializedPartID *uuid.UUID                    `gorm:"type:uuid"`
	Info             float64                       `gorm:"type:double precision;not null"`
	Warning          float64                       `gorm:"type:double precision;not null"`
	Critical         float64                       `gorm:"type:double precision;not null"`
	Urgent           float64                       `gorm:"type:double precision;not null"`
	NotifyEmail      bool                          `gorm:"not null;default:false"`
	NotifySMS        bool                          `gorm:"not null;default:false"`
	NotifyDashboard  bool                          `gorm:"not null;default:true"`
	Recipients       datatypes.JSONSlice[string]   `gorm:"type:jsonb"`
	CreatedAt        time.Time                     `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt        time.Time                     `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (thresholdModel) TableName() string { return "alert_threshold_configs" }

func (m thresholdModel) toAPI() ThresholdConfig {
	return ThresholdConfig{
		ID:               m.ID,
		SerializedPartID: m.SerializedPartID,
		Info:             m.Info,
		Warning:          m.Warning,
		Critical:         m.Critical,
		Urgent:           m.Urgent,
		NotifyEmail:      m.NotifyEmail,
		NotifySMS:        m.NotifySMS,
		NotifyDashboard:  m.NotifyDashboard,
		Recipients:       []string(m.Recipients),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func thresholdFromAPI(tc ThresholdConfig) thresholdModel {
	return thresholdModel{
		ID:               tc.ID,
		SerializedPartID: tc.SerializedPartID,
		Info:             tc.Info,
		Warning:          tc.Warning,
		Critical:         tc.Critical,
		Urgent:           tc.Urgent,
		NotifyEmail:      tc.NotifyEmail,
		NotifySMS:        tc.NotifySMS,
		NotifyDashboard:  tc.NotifyDashboard,
		Recipients:       datatypes.NewJSONSlice(tc.Recipients),
	}
}

func mapFromJSONMap(src datatypes.JSONMap) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func toJSONMap(src map[string]any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	if src == nil {
		return out
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
