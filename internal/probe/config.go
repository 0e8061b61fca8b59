// Package probe drives every backend endpoint through the gateway client and
// reports per-endpoint outcomes. It is the engine behind cmd/capio-probe.
package probe

import (
	"errors"
	"io"
	"time"
)

// Error constants
var (
	ErrInvalidConfig = errors.New("invalid probe config")
	ErrNoResults     = errors.New("probe produced no results")
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL       string        // Backend base URL, e.g. http://localhost:8000/api
	Rounds        int           // Times each endpoint is called
	Workers       int           // Concurrent callers
	Timeout       time.Duration // Per-request timeout
	UserID        string        // user_id for the model recommendations endpoint
	IncludeWrites bool          // Also call submitPurchase and submitSales
	OutputFile    string        // JSON report destination; empty skips saving
	Verbose       bool          // Log every call
	Progress      io.Writer     // Live progress line; nil logs progress instead
}

// Result is the outcome of a single call.
type Result struct {
	Endpoint  string  `json:"endpoint"`
	Method    string  `json:"method"`
	Round     int     `json:"round"`
	RequestID string  `json:"request_id,omitempty"`
	Status    int     `json:"status"`
	Kind      string  `json:"kind,omitempty"`
	LatencyMs float64 `json:"latency_ms"`
	Bytes     int     `json:"bytes"`
	Error     string  `json:"error,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Kind == "" }

// EndpointSummary aggregates the results of one endpoint.
type EndpointSummary struct {
	Endpoint     string         `json:"endpoint"`
	Calls        int            `json:"calls"`
	Succeeded    int            `json:"succeeded"`
	Failures     map[string]int `json:"failures,omitempty"`
	AvgLatencyMs float64        `json:"avg_latency_ms"`
	MaxLatencyMs float64        `json:"max_latency_ms"`
}

// Report holds the outcome of a probe run.
type Report struct {
	RunID     string            `json:"run_id"`
	BaseURL   string            `json:"base_url"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Duration  time.Duration     `json:"duration"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Endpoints []EndpointSummary `json:"endpoints"`
	Results   []Result          `json:"results"`
}
