package testleads

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/leadscore/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete lead scoring test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting lead scoring test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("leads", config.NumLeads),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate leads
	leads, err := generateLeads(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("lead generation failed: %w", err)
	}

	// Step 3: Score leads concurrently
	if err := submitLeads(ctx, config, leads, stats); err != nil {
		return fmt.Errorf("lead scoring failed: %w", err)
	}

	// Step 4: Summarize the label distribution
	displayLabelDistribution(stats)

	// Step 5: Save leads to file
	if err := saveLeadsToFile(ctx, config, leads); err != nil {
		logger.Get().Warn(ctx, "failed to save leads to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.ContractFailures > 0 {
		return fmt.Errorf("%d predictions violated the response contract", stats.ContractFailures)
	}

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveLeadsToFile saves the generated leads to a JSON file.
func saveLeadsToFile(ctx context.Context, config *Config, leads []Lead) error {
	if len(leads) == 0 {
		return fmt.Errorf("no leads to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_leads_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(leads); err != nil {
		return fmt.Errorf("failed to write leads: %w", err)
	}

	logger.Get().Info(ctx, "leads saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, leadsPerSecond float64

	if stats.LeadsSubmitted > 0 {
		successRate = float64(stats.LeadsSuccessful) / float64(stats.LeadsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		leadsPerSecond = float64(stats.LeadsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("leadsGenerated", stats.LeadsGenerated),
		logger.Int("leadsSubmitted", stats.LeadsSubmitted),
		logger.Int("leadsSuccessful", stats.LeadsSuccessful),
		logger.Int("leadsFailed", stats.LeadsFailed),
		logger.Int("contractFailures", stats.ContractFailures),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("leadsPerSecond", leadsPerSecond))
}
