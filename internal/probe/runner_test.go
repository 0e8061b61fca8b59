package probe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/capio/internal/gateway"
	"github.com/okian/capio/internal/probe"
	"github.com/okian/capio/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type hit struct {
	method string
	path   string
	query  string
	runID  string
}

// newBackend answers every path with {} except /api/sales/predict/, which
// fails with 500.
func newBackend() (*httptest.Server, func() []hit) {
	var mu sync.Mutex
	var hits []hit
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, hit{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get(probe.RunHeader)})
		mu.Unlock()
		if r.URL.Path == "/api/sales/predict/" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"model not trained"}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	return srv, func() []hit {
		mu.Lock()
		defer mu.Unlock()
		return append([]hit(nil), hits...)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a backend with one failing endpoint", t, func() {
		srv, hits := newBackend()
		defer srv.Close()
		quiet := gateway.WithLogger(logger.New(io.Discard))

		Convey("When probing read endpoints for two rounds", func() {
			report, err := probe.Run(context.Background(), &probe.Config{
				BaseURL: srv.URL + "/api",
				Rounds:  2,
				Workers: 4,
				Timeout: 5 * time.Second,
				UserID:  "user-42",
			}, quiet)
			So(err, ShouldBeNil)

			Convey("Then every read endpoint is called once per round", func() {
				So(report.Total, ShouldEqual, 16)
				So(hits(), ShouldHaveLength, 16)
				for _, h := range hits() {
					So(h.method, ShouldEqual, http.MethodGet)
				}
			})
			Convey("Then failures are attributed to their endpoint", func() {
				So(report.Failed, ShouldEqual, 2)
				So(report.Succeeded, ShouldEqual, 14)
				for _, s := range report.Endpoints {
					if s.Endpoint == gateway.EndpointGetSalesPrediction.Name {
						So(s.Failures["status"], ShouldEqual, 2)
					} else {
						So(s.Succeeded, ShouldEqual, 2)
					}
				}
			})
			Convey("Then summaries follow endpoint declaration order", func() {
				So(report.Endpoints, ShouldHaveLength, 8)
				So(report.Endpoints[0].Endpoint, ShouldEqual, "getProducts")
				So(report.Endpoints[7].Endpoint, ShouldEqual, "getMachineLearningRecommendations")
			})
			Convey("Then every request carries the run ID and the user ID reaches the backend", func() {
				So(report.RunID, ShouldNotBeEmpty)
				var sawUser bool
				for _, h := range hits() {
					So(h.runID, ShouldEqual, report.RunID)
					if h.path == "/api/prediction/products/" {
						So(h.query, ShouldEqual, "user_id=user-42")
						sawUser = true
					}
				}
				So(sawUser, ShouldBeTrue)
			})
		})

		Convey("When writes are included", func() {
			report, err := probe.Run(context.Background(), &probe.Config{
				BaseURL:       srv.URL + "/api",
				Workers:       2,
				IncludeWrites: true,
			}, quiet)
			So(err, ShouldBeNil)

			Convey("Then the submit endpoints are posted to", func() {
				So(report.Total, ShouldEqual, 10)
				var posts int
				for _, h := range hits() {
					if h.method == http.MethodPost {
						posts++
					}
				}
				So(posts, ShouldEqual, 2)
			})
		})

		Convey("When an output file is requested", func() {
			out := filepath.Join(t.TempDir(), "reports", "probe.json")
			report, err := probe.Run(context.Background(), &probe.Config{
				BaseURL:    srv.URL + "/api",
				Workers:    1,
				OutputFile: out,
			}, quiet)
			So(err, ShouldBeNil)

			Convey("Then the report is written as JSON", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved probe.Report
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved.RunID, ShouldEqual, report.RunID)
				So(saved.Results, ShouldHaveLength, report.Total)
			})
		})

		Convey("When rounds and workers are left unset", func() {
			cfg := &probe.Config{BaseURL: srv.URL + "/api"}
			report, err := probe.Run(context.Background(), cfg, quiet)
			So(err, ShouldBeNil)

			Convey("Then defaults apply without changing the caller's config", func() {
				So(report.Total, ShouldEqual, 8)
				So(cfg.Rounds, ShouldEqual, 0)
				So(cfg.Workers, ShouldEqual, 0)
			})
		})

		Convey("When a progress writer is set", func() {
			var progress bytes.Buffer
			_, err := probe.Run(context.Background(), &probe.Config{
				BaseURL:  srv.URL + "/api",
				Workers:  1,
				Progress: &progress,
			}, quiet)
			So(err, ShouldBeNil)

			Convey("Then the final progress line ends the output", func() {
				So(progress.String(), ShouldEndWith, "\rprobed 8/8 (failed: 1)\n")
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		Convey("When the base URL is relative", func() {
			_, err := probe.Run(context.Background(), &probe.Config{BaseURL: "/api"})
			So(errors.Is(err, probe.ErrInvalidConfig), ShouldBeTrue)
		})
		Convey("When the config is nil", func() {
			_, err := probe.Run(context.Background(), nil)
			So(errors.Is(err, probe.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		srv, _ := newBackend()
		defer srv.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := probe.Run(ctx, &probe.Config{BaseURL: srv.URL + "/api", Workers: 1})

		Convey("Then nothing runs", func() {
			So(errors.Is(err, probe.ErrNoResults), ShouldBeTrue)
		})
	})
}

func TestShowHelp(t *testing.T) {
	Convey("Given the help writer", t, func() {
		var buf bytes.Buffer
		probe.ShowHelp(&buf)
		So(buf.String(), ShouldContainSubstring, "-rounds")
		So(buf.String(), ShouldContainSubstring, "-writes")
	})
}
