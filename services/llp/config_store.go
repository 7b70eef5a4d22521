package llp

import (
	"context"

	"github.com/google/uuid"
)

// ConfigStore validates and persists per-part life-limit policy.
type ConfigStore struct {
	configs PartConfigRepository
}

// NewConfigStore creates a ConfigStore bound to the provided repository.
func NewConfigStore(configs PartConfigRepository) *ConfigStore {
	return &ConfigStore{configs: configs}
}

// Configure validates cfg and upserts it for partID. Reconfiguration never
// touches life events already recorded against the part's instances.
func (s *ConfigStore) Configure(ctx context.Context, partID uuid.UUID, cfg PartTypeConfig) (PartTypeConfig, error) {
	if partID == uuid.Nil {
		return PartTypeConfig{}, validationErr("part_id", "is required")
	}
	if err := validateConfig(cfg); err != nil {
		return PartTypeConfig{}, err
	}

	cfg.PartID = partID
	return s.configs.UpsertConfig(ctx, cfg)
}

// GetConfiguration returns the configuration for partID, or nil when the part
// is not life-limited or unknown. A missing configuration is not an error.
func (s *ConfigStore) GetConfiguration(ctx context.Context, partID uuid.UUID) (*PartTypeConfig, error) {
	cfg, err := s.configs.ConfigByPartID(ctx, partID)
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.IsLifeLimited {
		return nil, nil
	}
	return cfg, nil
}

func validateConfig(cfg PartTypeConfig) error {
	if !validCriticality(cfg.Criticality) {
		return validationErr("criticality", "unrecognized value %q", cfg.Criticality)
	}
	if !validRetirementType(cfg.RetirementType) {
		return validationErr("retirement_type", "unrecognized value %q", cfg.RetirementType)
	}
	if cfg.CycleLimit != nil && *cfg.CycleLimit < 0 {
		return validationErr("cycle_limit", "must not be negative, got %d", *cfg.CycleLimit)
	}
	if cfg.TimeLimit != nil && *cfg.TimeLimit < 0 {
		return validationErr("time_limit", "must not be negative, got %d", *cfg.TimeLimit)
	}
	if cfg.InspectionInterval != nil && *cfg.InspectionInterval < 0 {
		return validationErr("inspection_interval", "must not be negative, got %d", *cfg.InspectionInterval)
	}

	needsCycles := cfg.RetirementType == RetireCyclesOnly || cfg.RetirementType == RetireCyclesOrTime
	needsTime := cfg.RetirementType == RetireTimeOnly || cfg.RetirementType == RetireCyclesOrTime

	if cfg.IsLifeLimited {
		if needsCycles && (cfg.CycleLimit == nil || *cfg.CycleLimit <= 0) {
			return validationErr("cycle_limit", "a positive cycle limit is required for retirement type %s", cfg.RetirementType)
		}
		if needsTime && (cfg.TimeLimit == nil || *cfg.TimeLimit <= 0) {
			return validationErr("time_limit", "a positive time limit is required for retirement type %s", cfg.RetirementType)
		}
	}
	return nil
}
