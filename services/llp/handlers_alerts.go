package llp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleConfigureThresholds(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SerializedPartID *uuid.UUID `json:"serialized_part_id"`
		Info             float64    `json:"info"`
		Warning          float64    `json:"warning"`
		Critical         float64    `json:"critical"`
		Urgent           float64    `json:"urgent"`
		NotifyEmail      bool       `json:"notify_email"`
		NotifySMS        bool       `json:"notify_sms"`
		NotifyDashboard  bool       `json:"notify_dashboard"`
		Recipients       []string   `json:"recipients"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	tc, err := a.alerts.ConfigureThresholds(ctx, ThresholdConfig{
		SerializedPartID: req.SerializedPartID,
		Info:             req.Info,
		Warning:          req.Warning,
		Critical:         req.Critical,
		Urgent:           req.Urgent,
		NotifyEmail:      req.NotifyEmail,
		NotifySMS:        req.NotifySMS,
		NotifyDashboard:  req.NotifyDashboard,
		Recipients:       req.Recipients,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"thresholds": tc})
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	var filter AlertFilter

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("severity")); v != "" {
		sev := Severity(v)
		filter.Severity = &sev
	}
	if v := strings.TrimSpace(q.Get("is_active")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("is_active must be a boolean"))
			return
		}
		filter.IsActive = &active
	}
	if v := strings.TrimSpace(q.Get("serialized_part_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("serialized_part_id must be a valid id"))
			return
		}
		filter.SerializedPartID = &id
	}
	if v := q.Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	page, err := a.alerts.ListAlerts(ctx, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (a *API) handleAlertStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	stats, err := a.alerts.Statistics(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (a *API) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "instanceID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid instance id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	generated, err := a.alerts.EvaluateForAlerts(ctx, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	a.publishNewAlerts(ctx, generated)

	respondJSON(w, http.StatusOK, map[string]any{"alerts": generated})
}

func (a *API) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "alertID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid alert id is required"))
		return
	}

	var req struct {
		UserID string `json:"user_id"`
		Notes  string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	alert, err := a.alerts.Acknowledge(ctx, alertID, strings.TrimSpace(req.UserID), req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"alert": alert})
}

func (a *API) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "alertID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid alert id is required"))
		return
	}

	var req struct {
		UserID     string `json:"user_id"`
		Resolution string `json:"resolution"`
		Notes      string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	alert, err := a.alerts.Resolve(ctx, alertID,
		strings.TrimSpace(req.UserID), strings.TrimSpace(req.Resolution), req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"alert": alert})
}
