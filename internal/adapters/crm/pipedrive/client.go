// Package pipedrive implements the outbound deal-update call that writes a
// computed lead score back into the CRM.
package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	contentType    = "application/json"
	defaultBaseURL = "https://api.pipedrive.com/v1"
	defaultTimeout = 5 * time.Second

	// maxErrorBodyBytes caps how much of a rejection body is read for the
	// error message.
	maxErrorBodyBytes = 512
)

// Client updates deals over the Pipedrive REST API. Read-only after
// construction and safe for concurrent use.
type Client struct {
	baseURL    string
	apiToken   string
	fieldKey   string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client writing scores into the given custom field.
func NewClient(apiToken, fieldKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiToken:   apiToken,
		fieldKey:   fieldKey,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Percent converts a probability to the percentage written into the CRM,
// rounded to two decimals.
func Percent(probability float64) float64 {
	return math.Round(probability*100*100) / 100
}

// UpdateLeadScore PUTs the score percentage into the configured custom
// field of one deal. The call is bounded by the client timeout; the caller
// decides what a failure means (here: logged, never retried).
func (c *Client) UpdateLeadScore(ctx context.Context, dealID int, probability float64) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]float64{c.fieldKey: Percent(probability)})
	if err != nil {
		return fmt.Errorf("%w: encode payload: %w", ErrUpdateFailed, err)
	}

	url := fmt.Sprintf("%s/deals/%s?api_token=%s", c.baseURL, strconv.Itoa(dealID), c.apiToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUpdateFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%w: deal %d: status %s: %s",
			ErrUpdateRejected, dealID, resp.Status, bytes.TrimSpace(body))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
