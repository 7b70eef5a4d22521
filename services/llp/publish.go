package llp

import "context"

// publishJSON is best-effort: a missing bus or a failed publish never fails
// the originating write.
func (a *API) publishJSON(ctx context.Context, subject string, payload map[string]any) {
	if a.store.Bus == nil || subject == "" {
		return
	}
	_ = a.store.Bus.Publish(ctx, subject, payload)
}

// alertNotification resolves notification routing for an alert from the
// effective threshold configuration and shapes the bus payload consumed by
// the notifier service.
func (a *API) alertNotification(ctx context.Context, alert Alert) map[string]any {
	routing := map[string]any{
		"email":      false,
		"sms":        false,
		"dashboard":  true,
		"recipients": []string{},
	}
	if tc, err := a.thresholds.ThresholdsFor(ctx, alert.SerializedPartID); err == nil && tc != nil {
		routing["email"] = tc.NotifyEmail
		routing["sms"] = tc.NotifySMS
		routing["dashboard"] = tc.NotifyDashboard
		if tc.Recipients != nil {
			routing["recipients"] = tc.Recipients
		}
	}

	return map[string]any{
		"alert_id":           alert.ID,
		"serialized_part_id": alert.SerializedPartID,
		"alert_type":         alert.AlertType,
		"severity":           alert.Severity,
		"title":              alert.Title,
		"message":            alert.Message,
		"current_cycles":     alert.CurrentCycles,
		"current_hours":      alert.CurrentHours,
		"generated_at":       alert.GeneratedAt,
		"routing":            routing,
	}
}
