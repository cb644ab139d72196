package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// How a crawl ended
const (
	TerminationFrontierExhausted = "frontier_exhausted"
	TerminationMaxExpansions     = "max_expansions"
	TerminationCancelled         = "cancelled"
	TerminationError             = "error"
)

// RunSummary describes one crawl run. It is written next to the output file.
type RunSummary struct {
	SeedID     int64  `json:"seed_id"`
	OutputFile string `json:"output_file"`
	Resumed    bool   `json:"resumed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Expanded       int `json:"expanded"`
	SurvivorsTotal int `json:"survivors_total"`
	Reexpanded     int `json:"reexpanded"`
	RateLimitWaits int `json:"rate_limit_waits"`
	ProviderErrors int `json:"provider_errors"`
	SkippedChunks  int `json:"skipped_chunks"`
	FrontierLeft   int `json:"frontier_left"`

	Termination string `json:"termination"`
	Error       string `json:"error,omitempty"`
}

// SummaryPath returns where the summary for outputPath is stored
func SummaryPath(outputPath string) string {
	return outputPath + ".summary.json"
}

// Elapsed returns the wall time of the run
func (s *RunSummary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Save writes the summary as indented JSON, replacing any previous run's
func (s *RunSummary) Save(outputPath string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.WriteFile(SummaryPath(outputPath), data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// Load reads the summary stored for outputPath
func Load(outputPath string) (*RunSummary, error) {
	data, err := os.ReadFile(SummaryPath(outputPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}

	var s RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &s, nil
}
