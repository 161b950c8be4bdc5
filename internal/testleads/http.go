package testleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitLeads scores leads concurrently using a worker pool.
func submitLeads(ctx context.Context, config *Config, leads []Lead, stats *Stats) error {
	log.Printf("📤 Scoring %d leads with %d workers...", len(leads), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"

	// Counters for statistics
	var (
		successful       int64
		failed           int64
		contractFailures int64
		submitted        int64
	)

	labelCounts := make(map[string]int)
	var labelMu sync.Mutex

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	leadChan := make(chan Lead, config.Workers*2)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for lead := range leadChan {
				select {
				case <-ctx.Done():
					return
				default:
					prediction, err := scoreSingleLead(ctx, client, url, lead)

					atomic.AddInt64(&submitted, 1)
					var contractErr error
					if err == nil {
						contractErr = verifyPrediction(prediction)
					}
					switch {
					case err != nil:
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("❌ Lead %s failed: %v", lead.LeadID, err)
						}
					case contractErr != nil:
						atomic.AddInt64(&contractFailures, 1)
						log.Printf("⚠️  Lead %s contract violation: %v", lead.LeadID, contractErr)
					default:
						atomic.AddInt64(&successful, 1)
						labelMu.Lock()
						labelCounts[prediction.Label]++
						labelMu.Unlock()
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d scored (success: %d, failed: %d)",
								total, len(leads), succ, fail)
						} else {
							fmt.Printf("\r📤 Scored: %d/%d (success: %d, failed: %d)",
								total, len(leads), succ, fail)
						}
					}
				}
			}
		}()
	}

	// Send leads to workers
	go func() {
		defer close(leadChan)
		for _, lead := range leads {
			select {
			case <-ctx.Done():
				return
			case leadChan <- lead:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.LeadsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.LeadsSuccessful = int(atomic.LoadInt64(&successful))
	stats.LeadsFailed = int(atomic.LoadInt64(&failed))
	stats.ContractFailures = int(atomic.LoadInt64(&contractFailures))
	stats.LabelCounts = labelCounts

	log.Printf(`✅ Lead scoring completed:
   Successful: %d
   Failed: %d
   Contract failures: %d
`, stats.LeadsSuccessful, stats.LeadsFailed, stats.ContractFailures)

	return nil
}

// scoreSingleLead submits one lead and parses the prediction.
func scoreSingleLead(ctx context.Context, client *HTTPClient, url string, lead Lead) (Prediction, error) {
	resp, err := client.Post(ctx, url, lead)
	if err != nil {
		return Prediction{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Prediction{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var prediction Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return Prediction{}, fmt.Errorf("failed to parse prediction: %w", err)
	}

	return prediction, nil
}
