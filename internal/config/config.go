// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath points at the trained model artifact (JSON).
	ModelPath string `koanf:"model_path"`

	// ColumnsPath points at the feature-column registry artifact (JSON).
	ColumnsPath string `koanf:"columns_path"`

	// PipedriveAPIKey authenticates outbound deal updates.
	PipedriveAPIKey string `koanf:"pipedrive_api_key"`

	// PipedriveBaseURL is the CRM API root, e.g. "https://api.pipedrive.com/v1".
	PipedriveBaseURL string `koanf:"pipedrive_base_url"`

	// LeadScoreFieldKey is the custom deal field that receives the score.
	LeadScoreFieldKey string `koanf:"lead_score_field_key"`

	// WebhookUser and WebhookPassword guard POST /webhook/pipedrive.
	WebhookUser     string `koanf:"webhook_user"`
	WebhookPassword string `koanf:"webhook_password"`

	// TargetPipelineID selects the single CRM funnel in scope for scoring.
	TargetPipelineID int `koanf:"target_pipeline_id"`

	// ThresholdHigh and ThresholdMedium split probabilities into labels.
	ThresholdHigh   float64 `koanf:"threshold_high"`
	ThresholdMedium float64 `koanf:"threshold_medium"`

	// WritebackTimeoutMS bounds a single CRM write-back call.
	WritebackTimeoutMS int `koanf:"writeback_timeout_ms"`

	// WritebackQueueSize bounds the in-memory write-back job queue.
	WritebackQueueSize int `koanf:"writeback_queue_size"`

	// WritebackWorkers sets the number of write-back workers.
	WritebackWorkers int `koanf:"writeback_workers"`

	// DedupeSize sets the size of the webhook delivery dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		ModelPath:          "artifacts/lead_scorer_model.json",
		ColumnsPath:        "artifacts/model_columns.json",
		PipedriveBaseURL:   "https://api.pipedrive.com/v1",
		TargetPipelineID:   1,
		ThresholdHigh:      0.7,
		ThresholdMedium:    0.4,
		WritebackTimeoutMS: 5_000,
		WritebackQueueSize: 1_024,
		WritebackWorkers:   runtime.NumCPU() * 2,
		DedupeSize:         50_000,
	}
}
