package llp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifetrack_life_events_recorded_total",
		Help: "Life events accepted into the ledger.",
	})

	alertsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifetrack_alerts_generated_total",
		Help: "New alerts created, labelled by severity.",
	}, []string{"severity"})

	alertsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifetrack_alerts_resolved_total",
		Help: "Alerts moved to the resolved state.",
	})

	partsRetired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifetrack_parts_retired_total",
		Help: "Serialized part instances retired.",
	})
)
