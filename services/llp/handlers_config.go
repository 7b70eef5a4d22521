package llp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *API) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartID                uuid.UUID        `json:"part_id"`
		IsLifeLimited         bool             `json:"is_life_limited"`
		Criticality           CriticalityLevel `json:"criticality"`
		RetirementType        RetirementType   `json:"retirement_type"`
		CycleLimit            *int64           `json:"cycle_limit"`
		TimeLimit             *int64           `json:"time_limit"`
		InspectionInterval    *int64           `json:"inspection_interval"`
		RegulatoryReference   string           `json:"regulatory_reference"`
		CertificationRequired bool             `json:"certification_required"`
		Notes                 string           `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.PartID == uuid.Nil {
		respondError(w, http.StatusBadRequest, errors.New("part_id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	cfg, err := a.configs.Configure(ctx, req.PartID, PartTypeConfig{
		IsLifeLimited:         req.IsLifeLimited,
		Criticality:           req.Criticality,
		RetirementType:        req.RetirementType,
		CycleLimit:            req.CycleLimit,
		TimeLimit:             req.TimeLimit,
		InspectionInterval:    req.InspectionInterval,
		RegulatoryReference:   req.RegulatoryReference,
		CertificationRequired: req.CertificationRequired,
		Notes:                 req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"configuration": cfg})
}

func (a *API) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	partID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "partID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid part id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	cfg, err := a.configs.GetConfiguration(ctx, partID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// A part without life-limit configuration is a valid answer, not a 404.
	respondJSON(w, http.StatusOK, map[string]any{"configuration": cfg})
}

func (a *API) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartID            uuid.UUID  `json:"part_id"`
		SerialNumber      string     `json:"serial_number"`
		ManufacturingDate *time.Time `json:"manufacturing_date"`
		Location          string     `json:"location"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.PartID == uuid.Nil {
		respondError(w, http.StatusBadRequest, errors.New("part_id is required"))
		return
	}
	req.SerialNumber = strings.TrimSpace(req.SerialNumber)
	if req.SerialNumber == "" {
		respondError(w, http.StatusBadRequest, errors.New("serial_number is required"))
		return
	}

	manufactured := time.Now().UTC()
	if req.ManufacturingDate != nil {
		manufactured = req.ManufacturingDate.UTC()
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	inst, err := a.instances.CreateInstance(ctx, PartInstance{
		ID:                uuid.New(),
		PartID:            req.PartID,
		SerialNumber:      req.SerialNumber,
		Status:            PartActive,
		ManufacturingDate: manufactured,
		Location:          req.Location,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"part": inst})
}

func (a *API) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	instanceID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "instanceID")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid instance id is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	inst, err := a.instances.InstanceByID(ctx, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if inst == nil {
		respondError(w, http.StatusNotFound, notFoundErr("serialized part", instanceID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"part": inst})
}
