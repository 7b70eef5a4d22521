package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type PartTypeConfig struct {
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

func (PartTypeConfig) TableName() string { return "part_type_configs" }

type SerializedPartInstance struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	PartID            uuid.UUID `gorm:"type:uuid;not null;index"`
	SerialNumber      string    `gorm:"type:text;uniqueIndex;not null"`
	Status            string    `gorm:"type:text;not null"`
	ManufacturingDate time.Time `gorm:"type:timestamptz;not null"`
	Location          string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt         time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (SerializedPartInstance) TableName() string { return "serialized_part_instances" }

type LifeEvent struct {
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

func (LifeEvent) TableName() string { return "life_events" }

type CertificationDocument struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	LifeEventID uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName    string    `gorm:"type:text;not null"`
	URL         string    `gorm:"type:text;not null"`
	SHA256      string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	LifeEvent   LifeEvent `gorm:"foreignKey:LifeEventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CertificationDocument) TableName() string { return "certification_documents" }

type Alert struct {
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

func (Alert) TableName() string { return "alerts" }

type AlertThresholdConfig struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	SerializedPartID *uuid.UUID                  `gorm:"type:uuid"`
	Info             float64                     `gorm:"type:double precision;not null"`
	Warning          float64                     `gorm:"type:double precision;not null"`
	Critical         float64                     `gorm:"type:double precision;not null"`
	Urgent           float64                     `gorm:"type:double precision;not null"`
	NotifyEmail      bool                        `gorm:"not null;default:false"`
	NotifySMS        bool                        `gorm:"not null;default:false"`
	NotifyDashboard  bool                        `gorm:"not null;default:true"`
	Recipients       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt        time.Time                   `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (AlertThresholdConfig) TableName() string { return "alert_threshold_configs" }

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&PartTypeConfig{},
		&SerializedPartInstance{},
		&LifeEvent{},
		&CertificationDocument{},
		&Alert{},
		&AlertThresholdConfig{},
	); err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().CreateConstraint(&CertificationDocument{}, "LifeEvent"); err != nil {
		return err
	}

	// One active alert per (part, type); a resolved alert frees the slot.
	if err := gormDB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_active_dedup
		 ON alerts (serialized_part_id, alert_type) WHERE is_active`,
	).Error; err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_thresholds_instance
		 ON alert_threshold_configs (serialized_part_id) WHERE serialized_part_id IS NOT NULL`,
	).Error; err != nil {
		return err
	}

	// At most one global threshold row.
	if err := gormDB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_thresholds_global
		 ON alert_threshold_configs ((serialized_part_id IS NULL)) WHERE serialized_part_id IS NULL`,
	).Error; err != nil {
		return err
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Migrator().DropTable(
		&AlertThresholdConfig{},
		&Alert{},
		&CertificationDocument{},
		&LifeEvent{},
		&SerializedPartInstance{},
		&PartTypeConfig{},
	); err != nil {
		return err
	}

	return nil
}
