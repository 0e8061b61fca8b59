package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/okian/capio/internal/probe"
)

// Default configuration constants.
const (
	defaultRounds       = 1
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultProbeTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000/api", "Backend base URL")
		rounds     = flag.Int("rounds", defaultRounds, "Times each endpoint is called")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent callers")
		timeout    = flag.Duration("timeout", defaultTimeout, "Per-request timeout")
		userID     = flag.String("user", "1", "user_id for getMachineLearningRecommendations")
		writes     = flag.Bool("writes", false, "Also call submitPurchase and submitSales")
		outputFile = flag.String("output", "", "Write the JSON report to this file")
		logFile    = flag.String("log", "", "Also write log lines to this file")
		verbose    = flag.Bool("verbose", false, "Log every call")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := probe.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = closeLog()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &probe.Config{
		BaseURL:       *baseURL,
		Rounds:        *rounds,
		Workers:       *workers,
		Timeout:       *timeout,
		UserID:        *userID,
		IncludeWrites: *writes,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}
	// live progress only when a person is watching
	if !*verbose && term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Progress = os.Stdout
	}

	report, err := probe.Run(ctx, cfg)
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if report.Failed > 0 {
		os.Exit(2)
	}
}
