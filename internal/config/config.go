// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"os"
	"path/filepath"
)

// Default artifact locations, relative to the user's home directory. These
// mirror the development layout used by the model export pipeline.
const (
	defaultModelFile       = "claim_denial_model.json"
	defaultMetadataFile    = "feature_metadata.json"
	defaultCalibrationFile = "calibration_params.json"
	defaultArtifactDir     = ".claimscore/models"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath points at the exported model artifact. A missing artifact is
	// not fatal: the service falls back to dummy predictions until one is
	// deployed.
	ModelPath string `koanf:"model_path"`

	// MetadataPath points at the feature metadata JSON. Required at startup.
	MetadataPath string `koanf:"metadata_path"`

	// CalibrationPath points at the calibration parameters JSON. Required at
	// startup.
	CalibrationPath string `koanf:"calibration_path"`

	// ModelTTLSeconds bounds how long a loaded model handle is served before
	// the cache reloads it.
	ModelTTLSeconds int `koanf:"model_ttl_seconds"`

	// MaxBatchSize caps the number of items accepted per prediction request.
	MaxBatchSize int `koanf:"max_batch_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, defaultArtifactDir)
	c := &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		ModelPath:       filepath.Join(dir, defaultModelFile),
		MetadataPath:    filepath.Join(dir, defaultMetadataFile),
		CalibrationPath: filepath.Join(dir, defaultCalibrationFile),
		ModelTTLSeconds: 300,
		MaxBatchSize:    256,
	}
	return c
}
