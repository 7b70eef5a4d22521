package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lifetrack/pkg/bus"
)

const (
	alertsSubject   = "lifetrack.llp.alerts.generated"
	durableConsumer = "notifier"
)

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lifetrack_notifier_deliveries_total",
	Help: "Notification deliveries attempted, labelled by channel and outcome.",
}, []string{"channel", "outcome"})

// alertPayload mirrors the bus message published when an alert is generated.
type alertPayload struct {
	AlertID          string    `json:"alert_id"`
	SerializedPartID string    `json:"serialized_part_id"`
	AlertType        string    `json:"alert_type"`
	Severity         string    `json:"severity"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	CurrentCycles    int64     `json:"current_cycles"`
	CurrentHours     int64     `json:"current_hours"`
	GeneratedAt      time.Time `json:"generated_at"`
	Routing          struct {
		Email      bool     `json:"email"`
		SMS        bool     `json:"sms"`
		Dashboard  bool     `json:"dashboard"`
		Recipients []string `json:"recipients"`
	} `json:"routing"`
}

// Notifier consumes alert events and fans them out to configured webhooks.
type Notifier struct {
	cfg    Config
	client *resty.Client
	logger *log.Logger
}

// New constructs a Notifier with a shared HTTP client.
func New(cfg Config, logger *log.Logger) *Notifier {
	return &Notifier{
		cfg: cfg,
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
		logger: logger,
	}
}

// Run subscribes to the alerts subject and blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, eventBus *bus.Bus) error {
	if eventBus == nil {
		return errors.New("nil bus")
	}

	sub, err := eventBus.Subscribe(ctx, alertsSubject, durableConsumer, n.Handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", alertsSubject, err)
	}
	defer closeQuietly(sub)

	n.logger.Printf("INFO consuming %s as %s", alertsSubject, durableConsumer)
	<-ctx.Done()
	return nil
}

// Handle processes a single alert message. A returned error triggers
// redelivery, so only transport failures are reported as errors; malformed
// payloads are dropped after logging.
func (n *Notifier) Handle(ctx context.Context, data []byte) error {
	var payload alertPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		n.logger.Printf("ERROR dropping malformed alert payload: %v", err)
		return nil
	}

	if n.cfg.MinSeverity != "" && severityRank(payload.Severity) < severityRank(n.cfg.MinSeverity) {
		return nil
	}

	var failed []string
	for _, target := range n.targets(payload) {
		if err := n.deliver(ctx, target.webhook, target.channel, payload); err != nil {
			deliveries.WithLabelValues(target.channel, "error").Inc()
			n.logger.Printf("ERROR deliver alert %s to %s: %v", payload.AlertID, target.channel, err)
			failed = append(failed, target.channel)
			continue
		}
		deliveries.WithLabelValues(target.channel, "ok").Inc()
	}

	if len(failed) > 0 {
		return fmt.Errorf("delivery failed for channels %v", failed)
	}
	return nil
}

type deliveryTarget struct {
	channel string
	webhook string
}

func (n *Notifier) targets(p alertPayload) []deliveryTarget {
	var out []deliveryTarget
	if p.Routing.Email && n.cfg.Channels.Email.Webhook != "" {
		out = append(out, deliveryTarget{"email", n.cfg.Channels.Email.Webhook})
	}
	if p.Routing.SMS && n.cfg.Channels.SMS.Webhook != "" {
		out = append(out, deliveryTarget{"sms", n.cfg.Channels.SMS.Webhook})
	}
	if p.Routing.Dashboard && n.cfg.Channels.Dashboard.Webhook != "" {
		out = append(out, deliveryTarget{"dashboard", n.cfg.Channels.Dashboard.Webhook})
	}
	return out
}

func (n *Notifier) deliver(ctx context.Context, webhook, channel string, p alertPayload) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"channel":            channel,
			"alert_id":           p.AlertID,
			"serialized_part_id": p.SerializedPartID,
			"alert_type":         p.AlertType,
			"severity":           p.Severity,
			"title":              p.Title,
			"message":            p.Message,
			"current_cycles":     p.CurrentCycles,
			"current_hours":      p.CurrentHours,
			"generated_at":       p.GeneratedAt,
			"recipients":         p.Routing.Recipients,
		}).
		Post(webhook)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}
	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
