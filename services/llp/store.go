package llp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lifetrack/pkg/bus"
	"lifetrack/pkg/db"
	gos3 "lifetrack/pkg/s3"
)

const pgUniqueViolation = "23505"

// Store holds external dependencies required by the LLP service.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	S3  *gos3.Client
	Bus *bus.Bus
}

// gormStore implements every repository interface over the shared ORM handle.
// Statistics rollups go through the raw pgx pool instead; gorm is a poor fit
// for multi-way GROUP BY aggregation.
type gormStore struct {
	orm  *gorm.DB
	pool *pgxpool.Pool
}

func newGormStore(s *Store) *gormStore {
	return &gormStore{orm: s.ORM, pool: s.DB}
}

var (
	_ PartConfigRepository    = (*gormStore)(nil)
	_ PartInstanceRepository  = (*gormStore)(nil)
	_ LifeEventRepository     = (*gormStore)(nil)
	_ CertificationRepository = (*gormStore)(nil)
	_ AlertRepository         = (*gormStore)(nil)
	_ ThresholdRepository     = (*gormStore)(nil)
)

func (g *gormStore) UpsertConfig(ctx context.Context, cfg PartTypeConfig) (PartTypeConfig, error) {
	model := partConfigFromAPI(cfg)
	err := g.orm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "part_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if err != nil {
		return PartTypeConfig{}, fmt.Errorf("upsert part config: %w", err)
	}

	if err := g.orm.WithContext(ctx).First(&model, "part_id = ?", cfg.PartID).Error; err != nil {
		return PartTypeConfig{}, err
	}
	return model.toAPI(), nil
}

func (g *gormStore) ConfigByPartID(ctx context.Context, partID uuid.UUID) (*PartTypeConfig, error) {
	var model partConfigModel
	err := g.orm.WithContext(ctx).First(&model, "part_id = ?", partID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := model.toAPI()
	return &cfg, nil
}

func (g *gormStore) CreateInstance(ctx context.Context, inst PartInstance) (PartInstance, error) {
	model := partInstanceModel{
		ID:                inst.ID,
		PartID:            inst.PartID,
		SerialNumber:      inst.SerialNumber,
		Status:            string(inst.Status),
		ManufacturingDate: inst.ManufacturingDate,
		Location:          inst.Location,
	}
	if err := g.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return PartInstance{}, fmt.Errorf("create instance: %w", err)
	}
	return model.toAPI(), nil
}

func (g *gormStore) InstanceByID(ctx context.Context, id uuid.UUID) (*PartInstance, error) {
	var model partInstanceModel
	err := g.orm.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inst := model.toAPI()
	return &inst, nil
}

// RetireInstance runs the ledger append and the status flip in one
// transaction. The instance row is locked first so concurrent retirements
// serialize and the loser sees RETIRED.
func (g *gormStore) RetireInstance(ctx context.Context, id uuid.UUID, ev LifeEvent) (uuid.UUID, error) {
	var eventID uuid.UUID
	err := g.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inst partInstanceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inst, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("serialized part", id)
		}
		if err != nil {
			return err
		}
		if inst.Status == string(PartRetired) {
			return domainErr("serialized part %s is already retired", id)
		}

		model := lifeEventFromAPI(ev)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("append retirement event: %w", err)
		}
		eventID = model.ID

		updates := map[string]any{
			"status":     string(PartRetired),
			"updated_at": time.Now().UTC(),
		}
		if err := tx.Model(&inst).Updates(updates).Error; err != nil {
			return fmt.Errorf("mark instance retired: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return eventID, nil
}

func (g *gormStore) AppendEvent(ctx context.Context, ev LifeEvent) (uuid.UUID, error) {
	model := lifeEventFromAPI(ev)
	if err := g.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return uuid.Nil, fmt.Errorf("append life event: %w", err)
	}
	return model.ID, nil
}

func (g *gormStore) EventsByInstance(ctx context.Context, instanceID uuid.UUID) ([]LifeEvent, error) {
	var models []lifeEventModel
	err := g.orm.WithContext(ctx).
		Where("serialized_part_id = ?", instanceID).
		Order("event_date ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	events := make([]LifeEvent, 0, len(models))
	for _, m := range models {
		events = append(events, m.toAPI())
	}
	return events, nil
}

func (g *gormStore) EventsByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]LifeEvent, error) {
	var models []lifeEventModel
	err := g.orm.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("event_date ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	events := make([]LifeEvent, 0, len(models))
	for _, m := range models {
		events = append(events, m.toAPI())
	}
	return events, nil
}

func (g *gormStore) EventByID(ctx context.Context, id uuid.UUID) (*LifeEvent, error) {
	var model lifeEventModel
	err := g.orm.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev := model.toAPI()
	return &ev, nil
}

func (g *gormStore) AddCertification(ctx context.Context, doc CertificationDocument) (CertificationDocument, error) {
	model := certificationModel{
		ID:          doc.ID,
		LifeEventID: doc.LifeEventID,
		FileName:    doc.FileName,
		URL:         doc.URL,
		SHA256:      doc.SHA256,
	}
	if err := g.orm.WithContext(ctx).Create(&model).Error; err != nil {
		return CertificationDocument{}, fmt.Errorf("add certification: %w", err)
	}
	return model.toAPI(), nil
}

func (g *gormStore) CertificationsByEvent(ctx context.Context, eventID uuid.UUID) ([]CertificationDocument, error) {
	var models []certificationModel
	err := g.orm.WithContext(ctx).
		Where("life_event_id = ?", eventID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	docs := make([]CertificationDocument, 0, len(models))
	for _, m := range models {
		docs = append(docs, m.toAPI())
	}
	return docs, nil
}

// CreateAlert relies on the partial unique index on
// (serialized_part_id, alert_type) WHERE is_active to make the
// check-then-insert race-free: a concurrent duplicate insert surfaces as a
// unique violation and the existing active alert is returned instead.
func (g *gormStore) CreateAlert(ctx context.Context, a Alert) (Alert, bool, error) {
	if existing, err := g.activeAlert(ctx, a.SerializedPartID, a.AlertType); err != nil {
		return Alert{}, false, err
	} else if existing != nil {
		return *existing, false, nil
	}

	model := alertFromAPI(a)
	err := g.orm.WithContext(ctx).Create(&model).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			existing, lookupErr := g.activeAlert(ctx, a.SerializedPartID, a.AlertType)
			if lookupErr != nil {
				return Alert{}, false, lookupErr
			}
			if existing != nil {
				return *existing, false, nil
			}
		}
		return Alert{}, false, fmt.Errorf("create alert: %w", err)
	}
	return model.toAPI(), true, nil
}

func (g *gormStore) activeAlert(ctx context.Context, instanceID uuid.UUID, alertType AlertType) (*Alert, error) {
	var model alertModel
	err := g.orm.WithContext(ctx).
		Where("serialized_part_id = ? AND alert_type = ? AND is_active", instanceID, string(alertType)).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := model.toAPI()
	return &a, nil
}

func (g *gormStore) AlertByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	var model alertModel
	err := g.orm.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := model.toAPI()
	return &a, nil
}

func (g *gormStore) SaveAlert(ctx context.Context, a Alert) error {
	model := alertFromAPI(a)
	if err := g.orm.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

func (g *gormStore) ListAlerts(ctx context.Context, f AlertFilter) ([]Alert, int64, error) {
	q := g.orm.WithContext(ctx).Model(&alertModel{})
	if f.Severity != nil {
		q = q.Where("severity = ?", string(*f.Severity))
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.SerializedPartID != nil {
		q = q.Where("serialized_part_id = ?", *f.SerializedPartID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []alertModel
	err := q.Order("generated_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	alerts := make([]Alert, 0, len(models))
	for _, m := range models {
		alerts = append(alerts, m.toAPI())
	}
	return alerts, total, nil
}

// Statistics aggregates with raw SQL over the pgx pool; see pkg/db helpers.
func (g *gormStore) Statistics(ctx context.Context) (AlertStatistics, error) {
	stats := AlertStatistics{
		BySeverity: map[Severity]int64{},
		ByType:     map[AlertType]int64{},
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int64  `db:"count"`
	}

	var bySeverity []bucket
	if err := db.Select(ctx, g.pool, &bySeverity,
		`SELECT severity AS key, count(*) AS count FROM alerts GROUP BY severity`); err != nil {
		return AlertStatistics{}, fmt.Errorf("severity rollup: %w", err)
	}
	for _, b := range bySeverity {
		stats.BySeverity[Severity(b.Key)] = b.Count
	}

	var byType []bucket
	if err := db.Select(ctx, g.pool, &byType,
		`SELECT alert_type AS key, count(*) AS count FROM alerts GROUP BY alert_type`); err != nil {
		return AlertStatistics{}, fmt.Errorf("type rollup: %w", err)
	}
	for _, b := range byType {
		stats.ByType[AlertType(b.Key)] = b.Count
	}

	var totals struct {
		Active   int64 `db:"active"`
		Resolved int64 `db:"resolved"`
		Last24h  int64 `db:"last_24h"`
		Last7d   int64 `db:"last_7d"`
		Last30d  int64 `db:"last_30d"`
	}
	err := db.Get(ctx, g.pool, &totals, `
        SELECT
            count(*) FILTER (WHERE is_active)                                 AS active,
            count(*) FILTER (WHERE NOT is_active)                             AS resolved,
            count(*) FILTER (WHERE generated_at >= now() - interval '24 hours') AS last_24h,
            count(*) FILTER (WHERE generated_at >= now() - interval '7 days')   AS last_7d,
            count(*) FILTER (WHERE generated_at >= now() - interval '30 days')  AS last_30d
        FROM alerts`)
	if err != nil {
		return AlertStatistics{}, fmt.Errorf("totals rollup: %w", err)
	}
	stats.Active = totals.Active
	stats.Resolved = totals.Resolved
	stats.Last24h = totals.Last24h
	stats.Last7d = totals.Last7d
	stats.Last30d = totals.Last30d

	return stats, nil
}

func (g *gormStore) UpsertThresholds(ctx context.Context, tc ThresholdConfig) (ThresholdConfig, error) {
	model := thresholdFromAPI(tc)

	scope := g.orm.WithContext(ctx).Model(&thresholdModel{})
	if tc.SerializedPartID == nil {
		scope = scope.Where("serialized_part_id IS NULL")
	} else {
		scope = scope.Where("serialized_part_id = ?", *tc.SerializedPartID)
	}

	var existing thresholdModel
	err := scope.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := g.orm.WithContext(ctx).Create(&model).Error; err != nil {
			return ThresholdConfig{}, fmt.Errorf("create thresholds: %w", err)
		}
		return model.toAPI(), nil
	case err != nil:
		return ThresholdConfig{}, err
	default:
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		if err := g.orm.WithContext(ctx).Save(&model).Error; err != nil {
			return ThresholdConfig{}, fmt.Errorf("update thresholds: %w", err)
		}
		return model.toAPI(), nil
	}
}

func (g *gormStore) ThresholdsFor(ctx context.Context, instanceID uuid.UUID) (*ThresholdConfig, error) {
	var model thresholdModel
	err := g.orm.WithContext(ctx).
		Where("serialized_part_id = ?", instanceID).
		First(&model).Error
	if err == nil {
		tc := model.toAPI()
		return &tc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = g.orm.WithContext(ctx).
		Where("serialized_part_id IS NULL").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tc := model.toAPI()
	return &tc, nil
}
