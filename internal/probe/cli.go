package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/capio/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the global logger, writing to stdout and, when
// logFile is set, to that file as well. The returned function closes the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		if err := logger.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `CAPIO Backend Probe
===================

Calls every backend endpoint through the dashboard's API gateway and reports
status, latency and failure kind per endpoint.

Usage:
  go run ./cmd/capio-probe [options]

Options:
  -url string
        Backend base URL (default "http://localhost:8000/api")
  -rounds int
        Times each endpoint is called (default 1)
  -workers int
        Number of concurrent callers (default CPU cores * 2)
  -timeout duration
        Per-request timeout (default 10s)
  -user string
        user_id for getMachineLearningRecommendations (default "1")
  -writes
        Also call submitPurchase and submitSales
  -output string
        Write the JSON report to this file
  -log string
        Also write log lines to this file
  -verbose
        Log every call
  -help
        Show this help message

Examples:
  # Probe a local backend
  go run ./cmd/capio-probe

  # Hammer the read endpoints and keep the report
  go run ./cmd/capio-probe -rounds 20 -workers 16 -output report.json
`)
}
