package llp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

func (a *API) handleLifeStatus(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "instanceID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid instance id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	status, err := a.ledger.ComputeStatus(ctx, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"life_status": status})
}

func (a *API) handleBackToBirth(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "instanceID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid instance id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	trace, err := a.ledger.BackToBirthTrace(ctx, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"trace": trace})
}

// handleBackToBirthExport streams the full trace as a zstd-compressed JSON
// document for archival exchange with regulators and customers.
func (a *API) handleBackToBirthExport(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "instanceID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid instance id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	trace, err := a.ledger.BackToBirthTrace(ctx, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="back-to-birth-%s.json.zst"`, trace.SerialNumber))
	w.WriteHeader(http.StatusOK)

	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return
	}
	defer encoder.Close()
	_ = json.NewEncoder(encoder).Encode(trace)
}

func (a *API) handleRetire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SerializedPartID uuid.UUID      `json:"serialized_part_id"`
		RetirementCycles int64          `json:"retirement_cycles"`
		RetirementHours  int64          `json:"retirement_hours"`
		RetiredBy        string         `json:"retired_by"`
		Reason           string         `json:"reason"`
		Notes            string         `json:"notes"`
		Metadata         map[string]any `json:"metadata"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.SerializedPartID == uuid.Nil {
		respondError(w, http.StatusBadRequest, errors.New("serialized_part_id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	eventID, err := a.ledger.Retire(ctx, req.SerializedPartID, RetirementData{
		RetirementCycles: req.RetirementCycles,
		RetirementHours:  req.RetirementHours,
		RetiredBy:        req.RetiredBy,
		Reason:           req.Reason,
		Notes:            req.Notes,
		Metadata:         req.Metadata,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	a.publishJSON(ctx, partsRetiredTopic, map[string]any{
		"serialized_part_id": req.SerializedPartID,
		"event_id":           eventID,
		"retired_by":         req.RetiredBy,
		"reason":             req.Reason,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"serialized_part_id": req.SerializedPartID,
		"event_id":           eventID,
		"status":             PartRetired,
	})
}
