package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/capio/internal/gateway"
	"github.com/okian/capio/pkg/logger"
)

// RunHeader tags every probe request with the run ID.
const RunHeader = "X-Probe-Run"

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerChannelMultiplier = 2
	progressInterval        = time.Second
)

type job struct {
	index    int
	endpoint gateway.Endpoint
	round    int
}

// Run executes the probe and returns its report. Call failures are part of
// the report; Run only fails on bad configuration or when nothing ran.
func Run(ctx context.Context, cfg *Config, opts ...gateway.Option) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	local := *cfg
	cfg = &local
	if cfg.Rounds < 1 {
		cfg.Rounds = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU() * defaultWorkerMultiplier
	}

	log := logger.Get().Named("probe")
	report := &Report{
		RunID:     uuid.NewString(),
		BaseURL:   cfg.BaseURL,
		StartTime: time.Now(),
	}

	runID := report.RunID
	client, err := gateway.New(gateway.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout},
		append([]gateway.Option{
			gateway.WithLogger(log.Named("gateway")),
			gateway.WithRequestInterceptor(func(_ context.Context, _ *gateway.Request, r *http.Request) error {
				r.Header.Set(RunHeader, runID)
				return nil
			}),
		}, opts...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	log.Info(ctx, "starting capio probe",
		logger.String("runID", report.RunID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("includeWrites", cfg.IncludeWrites),
	)

	jobs := plan(cfg)
	all := make([]Result, len(jobs))
	executed := execute(ctx, cfg, client, jobs, all, log)
	for i, ok := range executed {
		if ok {
			report.Results = append(report.Results, all[i])
		}
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	summarize(report)
	displayFinalStats(ctx, log, report)

	if len(report.Results) == 0 {
		return report, ErrNoResults
	}
	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		} else {
			log.Info(ctx, "report saved to file", logger.String("filename", cfg.OutputFile))
		}
	}
	return report, nil
}

// plan lists every call to make, round by round in endpoint order.
func plan(cfg *Config) []job {
	var jobs []job
	for round := 1; round <= cfg.Rounds; round++ {
		for _, ep := range gateway.Endpoints() {
			if writes[ep.Name] && !cfg.IncludeWrites {
				continue
			}
			jobs = append(jobs, job{index: len(jobs), endpoint: ep, round: round})
		}
	}
	return jobs
}

// execute runs jobs on a fixed pool of workers. results is indexed by job so
// workers never share a slot.
func execute(ctx context.Context, cfg *Config, client *gateway.Client, jobs []job, results []Result, log logger.Logger) []bool {
	executed := make([]bool, len(jobs))
	jobChan := make(chan job, cfg.Workers*workerChannelMultiplier)

	var (
		done       atomic.Int64
		failed     atomic.Int64
		lastReport atomic.Int64
		wg         sync.WaitGroup
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				if ctx.Err() != nil {
					continue
				}
				res := callOne(ctx, cfg, client, j)
				results[j.index] = res
				executed[j.index] = true

				n := done.Add(1)
				if !res.OK() {
					failed.Add(1)
				}
				if cfg.Verbose {
					log.Info(ctx, "call finished",
						logger.String("endpoint", res.Endpoint),
						logger.Int("round", res.Round),
						logger.Int("status", res.Status),
						logger.String("kind", res.Kind),
					)
				}
				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					if cfg.Progress != nil {
						_, _ = fmt.Fprintf(cfg.Progress, "\rprobed %d/%d (failed: %d)", n, len(jobs), failed.Load())
					} else {
						log.Info(ctx, "progress",
							logger.Int("done", int(n)),
							logger.Int("total", len(jobs)),
							logger.Int("failed", int(failed.Load())),
						)
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- j:
			}
		}
	}()

	wg.Wait()
	if cfg.Progress != nil {
		_, _ = fmt.Fprintf(cfg.Progress, "\rprobed %d/%d (failed: %d)\n", done.Load(), len(jobs), failed.Load())
	}
	return executed
}

func callOne(ctx context.Context, cfg *Config, client *gateway.Client, j job) Result {
	res := Result{Endpoint: j.endpoint.Name, Method: j.endpoint.Method, Round: j.round}
	fn, ok := calls[j.endpoint.Name]
	if !ok {
		res.Kind = "unknown"
		res.Error = "no call bound to endpoint"
		return res
	}

	start := time.Now()
	resp, err := fn(ctx, client, cfg)
	res.LatencyMs = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		res.Error = err.Error()
		res.Kind = "unknown"
		if ge, ok := gateway.AsError(err); ok {
			res.Kind = ge.Kind.String()
			res.Status = ge.Status
			if req := ge.Request(); req != nil {
				res.RequestID = req.ID
			}
		}
		return res
	}
	res.Status = resp.Status
	res.Bytes = len(resp.Data)
	if resp.Request != nil {
		res.RequestID = resp.Request.ID
	}
	return res
}

// summarize fills the totals and per-endpoint summaries in endpoint order.
func summarize(r *Report) {
	byName := map[string]*EndpointSummary{}
	order := map[string]int{}
	for i, ep := range gateway.Endpoints() {
		order[ep.Name] = i
	}

	r.Total, r.Succeeded, r.Failed = 0, 0, 0
	for _, res := range r.Results {
		s, ok := byName[res.Endpoint]
		if !ok {
			s = &EndpointSummary{Endpoint: res.Endpoint}
			byName[res.Endpoint] = s
		}
		s.Calls++
		s.AvgLatencyMs += res.LatencyMs
		if res.LatencyMs > s.MaxLatencyMs {
			s.MaxLatencyMs = res.LatencyMs
		}
		r.Total++
		if res.OK() {
			s.Succeeded++
			r.Succeeded++
			continue
		}
		r.Failed++
		if s.Failures == nil {
			s.Failures = map[string]int{}
		}
		s.Failures[res.Kind]++
	}

	r.Endpoints = make([]EndpointSummary, 0, len(byName))
	for _, s := range byName {
		s.AvgLatencyMs /= float64(s.Calls)
		r.Endpoints = append(r.Endpoints, *s)
	}
	sort.Slice(r.Endpoints, func(i, j int) bool {
		return order[r.Endpoints[i].Endpoint] < order[r.Endpoints[j].Endpoint]
	})
}

func displayFinalStats(ctx context.Context, log logger.Logger, r *Report) {
	for _, s := range r.Endpoints {
		log.Info(ctx, "endpoint summary",
			logger.String("endpoint", s.Endpoint),
			logger.Int("calls", s.Calls),
			logger.Int("succeeded", s.Succeeded),
			logger.Any("failures", s.Failures),
			logger.Any("avgLatencyMs", s.AvgLatencyMs),
			logger.Any("maxLatencyMs", s.MaxLatencyMs),
		)
	}
	log.Info(ctx, "final statistics",
		logger.String("runID", r.RunID),
		logger.Int("total", r.Total),
		logger.Int("succeeded", r.Succeeded),
		logger.Int("failed", r.Failed),
		logger.Duration("duration", r.Duration),
	)
}

func saveReport(filename string, r *Report) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
