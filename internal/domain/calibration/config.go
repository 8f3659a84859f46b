package calibration

import (
	"encoding/json"
	"fmt"
	"os"
)

// Method names as written by the training export.
const (
	MethodPlatt    = "PLATT_SCALING"
	MethodIsotonic = "ISOTONIC"
	MethodNone     = "NONE"
)

// Config holds a calibration method and its parameters, as exported by the
// training pipeline: {"type": "...", "parameters": {...}}.
type Config struct {
	Type       string          `json:"type"`
	Parameters json.RawMessage `json:"parameters"`
}

type plattParams struct {
	A *float64 `json:"a"`
	B *float64 `json:"b"`
}

type isotonicParams struct {
	Thresholds []float64 `json:"thresholds"`
	Values     []float64 `json:"values"`
}

// LoadConfig reads a calibration parameters JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return &cfg, nil
}

// Calibrator constructs the calibrator this config describes. Required
// parameters that are absent or malformed fail construction; nothing is
// deferred to scoring time.
func (c *Config) Calibrator() (Calibrator, error) {
	switch c.Type {
	case MethodPlatt:
		var p plattParams
		if err := json.Unmarshal(c.Parameters, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		if p.A == nil || p.B == nil {
			return nil, fmt.Errorf("%w: platt scaling requires parameters a and b", ErrInvalidParams)
		}
		return NewPlatt(*p.A, *p.B), nil

	case MethodIsotonic:
		var p isotonicParams
		if err := json.Unmarshal(c.Parameters, &p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		return NewIsotonic(p.Thresholds, p.Values)

	case MethodNone:
		return Identity(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, c.Type)
	}
}
