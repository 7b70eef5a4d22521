package llp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type lifeEventRequest struct {
	SerializedPartID   uuid.UUID      `json:"serialized_part_id"`
	EventType          EventType      `json:"event_type"`
	EventDate          *time.Time     `json:"event_date"`
	CyclesAtEvent      int64          `json:"cycles_at_event"`
	HoursAtEvent       int64          `json:"hours_at_event"`
	ParentAssemblyID   *uuid.UUID     `json:"parent_assembly_id"`
	ParentSerialNumber string         `json:"parent_serial_number"`
	WorkOrderID        *uuid.UUID     `json:"work_order_id"`
	PerformedBy        string         `json:"performed_by"`
	Location           string         `json:"location"`
	Notes              string         `json:"notes"`
	Metadata           map[string]any `json:"metadata"`
	InspectionResults  map[string]any `json:"inspection_results"`
	RepairDetails      map[string]any `json:"repair_details"`
}

func (req lifeEventRequest) toEvent() LifeEvent {
	ev := LifeEvent{
		SerializedPartID:   req.SerializedPartID,
		EventType:          req.EventType,
		CyclesAtEvent:      req.CyclesAtEvent,
		HoursAtEvent:       req.HoursAtEvent,
		ParentAssemblyID:   req.ParentAssemblyID,
		ParentSerialNumber: req.ParentSerialNumber,
		WorkOrderID:        req.WorkOrderID,
		PerformedBy:        req.PerformedBy,
		Location:           req.Location,
		Notes:              req.Notes,
		Metadata:           req.Metadata,
		InspectionResults:  req.InspectionResults,
		RepairDetails:      req.RepairDetails,
	}
	if req.EventDate != nil {
		ev.EventDate = req.EventDate.UTC()
	}
	return ev
}

func (a *API) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var req lifeEventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	eventID, err := a.ledger.RecordEvent(ctx, req.toEvent())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	a.publishJSON(ctx, eventsRecordedTopic, map[string]any{
		"event_id":           eventID,
		"serialized_part_id": req.SerializedPartID,
		"event_type":         req.EventType,
	})

	// Evaluation runs synchronously after each write; alert generation is part
	// of the record path, not a background loop.
	generated, err := a.alerts.EvaluateForAlerts(ctx, req.SerializedPartID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	a.publishNewAlerts(ctx, generated)

	respondJSON(w, http.StatusCreated, map[string]any{
		"event_id": eventID,
		"alerts":   generated,
	})
}

func (a *API) handleBatchRecordEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Events []lifeEventRequest `json:"events"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Events) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("events must not be empty"))
		return
	}

	events := make([]LifeEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, e.toEvent())
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	result, err := a.ledger.BatchRecordEvents(ctx, events)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// One evaluation per touched instance, not per event.
	seen := map[uuid.UUID]struct{}{}
	for _, s := range result.Successful {
		instanceID := events[s.Index].SerializedPartID
		if _, ok := seen[instanceID]; ok {
			continue
		}
		seen[instanceID] = struct{}{}

		generated, err := a.alerts.EvaluateForAlerts(ctx, instanceID)
		if err != nil {
			continue
		}
		a.publishNewAlerts(ctx, generated)
	}

	respondJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (a *API) handleListEvents(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("work_order_id"))
	if raw == "" {
		respondError(w, http.StatusBadRequest, errors.New("work_order_id is required"))
		return
	}
	workOrderID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("work_order_id must be a valid uuid"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	events, err := a.events.EventsByWorkOrder(ctx, workOrderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []LifeEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (a *API) handleAttachCertification(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "eventID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid event id is required"))
		return
	}

	if a.store.S3 == nil {
		respondError(w, http.StatusFailedDependency, errors.New("s3 client not configured"))
		return
	}
	if a.config.CertBucket == "" {
		respondError(w, http.StatusFailedDependency, errors.New("certification bucket not configured"))
		return
	}

	var req struct {
		FileName string `json:"file_name"`
		SHA256   string `json:"sha256"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	req.FileName = strings.TrimSpace(req.FileName)
	if req.FileName == "" {
		respondError(w, http.StatusBadRequest, errors.New("file_name is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	ev, err := a.events.EventByID(ctx, eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if ev == nil {
		respondError(w, http.StatusNotFound, notFoundErr("life event", eventID))
		return
	}

	docID := uuid.New()
	key := fmt.Sprintf("certifications/%s/%s/%s", ev.SerializedPartID, docID, req.FileName)
	location := fmt.Sprintf("s3://%s/%s", a.config.CertBucket, key)

	doc, err := a.certs.AddCertification(ctx, CertificationDocument{
		ID:          docID,
		LifeEventID: eventID,
		FileName:    req.FileName,
		URL:         location,
		SHA256:      req.SHA256,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	uploadURL, err := a.store.S3.PresignPut(ctx, a.config.CertBucket, key, a.config.PresignTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Errorf("presign put: %w", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"certification": doc,
		"upload_url":    uploadURL,
	})
}

func (a *API) handleListCertifications(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "eventID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid event id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	ev, err := a.events.EventByID(ctx, eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if ev == nil {
		respondError(w, http.StatusNotFound, notFoundErr("life event", eventID))
		return
	}

	docs, err := a.certs.CertificationsByEvent(ctx, eventID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	type certWithURL struct {
		CertificationDocument
		DownloadURL string `json:"download_url,omitempty"`
	}

	out := make([]certWithURL, 0, len(docs))
	for _, doc := range docs {
		entry := certWithURL{CertificationDocument: doc}
		if a.store.S3 != nil && a.config.CertBucket != "" {
			if key, ok := strings.CutPrefix(doc.URL, "s3://"+a.config.CertBucket+"/"); ok {
				if u, err := a.store.S3.PresignGet(ctx, a.config.CertBucket, key, a.config.PresignTTL); err == nil {
					entry.DownloadURL = u
				}
			}
		}
		out = append(out, entry)
	}

	respondJSON(w, http.StatusOK, map[string]any{"certifications": out})
}

func (a *API) publishNewAlerts(ctx context.Context, generated []GeneratedAlert) {
	for _, g := range generated {
		if !g.Created {
			continue
		}
		a.publishJSON(ctx, alertsGeneratedTopic, a.alertNotification(ctx, g.Alert))
	}
}
