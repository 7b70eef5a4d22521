package llp

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultPresignTTL = 15 * time.Minute

	eventsRecordedTopic  = "lifetrack.llp.events.recorded"
	partsRetiredTopic    = "lifetrack.llp.parts.retired"
	alertsGeneratedTopic = "lifetrack.llp.alerts.generated"
)

// Config controls runtime behaviour for the API handlers.
type Config struct {
	CertBucket string
	PresignTTL time.Duration
}

// API wires the configuration store, ledger, and alert engine behind HTTP
// handlers.
type API struct {
	store  *Store
	config Config

	configs *ConfigStore
	ledger  *Ledger
	alerts  *AlertEngine

	instances  PartInstanceRepository
	events     LifeEventRepository
	certs      CertificationRepository
	thresholds ThresholdRepository
}

// New initialises the API layer over the provided store.
func New(store *Store, cfg Config) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.ORM == nil {
		return nil, errors.New("store ORM is required")
	}
	if store.DB == nil {
		return nil, errors.New("store DB is required")
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = defaultPresignTTL
	}
	if cfg.CertBucket == "" {
		cfg.CertBucket = os.Getenv("S3_BUCKET")
	}

	repos := newGormStore(store)
	ledger := NewLedger(repos, repos, repos, repos)

	return &API{
		store:      store,
		config:     cfg,
		configs:    NewConfigStore(repos),
		ledger:     ledger,
		alerts:     NewAlertEngine(repos, repos, ledger),
		instances:  repos,
		events:     repos,
		certs:      repos,
		thresholds: repos,
	}, nil
}

// Routes constructs the chi router containing all LLP endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1/llp", func(r chi.Router) {
		r.Post("/configuration", a.handleConfigure)
		r.Get("/configuration/{partID}", a.handleGetConfiguration)

		r.Post("/parts", a.handleCreateInstance)
		r.Get("/parts/{instanceID}", a.handleGetInstance)

		r.Post("/life-events", a.handleRecordEvent)
		r.Get("/life-events", a.handleListEvents)
		r.Post("/batch/life-events", a.handleBatchRecordEvents)
		r.Post("/life-events/{eventID}/certifications", a.handleAttachCertification)
		r.Get("/life-events/{eventID}/certifications", a.handleListCertifications)

		r.Get("/life-status/{instanceID}", a.handleLifeStatus)
		r.Get("/back-to-birth/{instanceID}", a.handleBackToBirth)
		r.Get("/back-to-birth/{instanceID}/export", a.handleBackToBirthExport)

		r.Post("/retirement", a.handleRetire)

		r.Post("/alerts/configuration", a.handleConfigureThresholds)
		r.Get("/alerts", a.handleListAlerts)
		r.Get("/alerts/statistics", a.handleAlertStatistics)
		r.Post("/alerts/evaluate/{instanceID}", a.handleEvaluate)
		r.Post("/alerts/{alertID}/acknowledge", a.handleAcknowledgeAlert)
		r.Post("/alerts/{alertID}/resolve", a.handleResolveAlert)
	})

	return r, nil
}
