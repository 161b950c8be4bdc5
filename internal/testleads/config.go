package testleads

import "time"

// Config holds configuration for the lead test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumLeads   int           // Number of leads to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for leads
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Lead represents a record to be scored
type Lead struct {
	LeadID      string  `json:"-"`
	Valor       float64 `json:"valor"`
	UTMCampaign string  `json:"utm_campaign,omitempty"`
	UTMContent  string  `json:"utm_content,omitempty"`
	UTMMedium   string  `json:"utm_medium,omitempty"`
	UTMSource   string  `json:"utm_source,omitempty"`
	UTMTerm     string  `json:"utm_term,omitempty"`
}

// Prediction represents the response from the scoring endpoint
type Prediction struct {
	Probability float64 `json:"lead_score_probability"`
	Label       string  `json:"prediction_label"`
}

// Stats holds test statistics
type Stats struct {
	LeadsGenerated   int
	LeadsSubmitted   int
	LeadsSuccessful  int
	LeadsFailed      int
	ContractFailures int
	LabelCounts      map[string]int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
