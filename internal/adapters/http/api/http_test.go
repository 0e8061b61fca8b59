package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/capio/internal/adapters/http/api"
	"github.com/okian/capio/pkg/logger"
	"github.com/okian/capio/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestNewServer(t *testing.T) {
	Convey("Given backend URLs", t, func() {
		Convey("When the URL is relative", func() {
			_, err := api.NewServer("/api")
			Convey("Then the server is rejected", func() {
				So(errors.Is(err, api.ErrInvalidBackend), ShouldBeTrue)
			})
		})

		Convey("When the URL is absolute", func() {
			s, err := api.NewServer("http://localhost:8000/api")
			Convey("Then the server is built", func() {
				So(err, ShouldBeNil)
				So(s, ShouldNotBeNil)
			})
		})
	})
}

func TestServer_Register(t *testing.T) {
	Convey("Given an API server in front of a fake backend", t, func() {
		var gotPath, gotQuery, gotBody, gotForwarded string
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotForwarded = r.Header.Get("X-Forwarded-Host")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":1}`)
		}))
		defer backend.Close()

		server, err := api.NewServer(backend.URL + "/api")
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("When a browser call goes through /api/", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/sales/submit/?dry=1", strings.NewReader(`{"total_sales":5}`))
			req.Host = "shell.local"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it reaches the backend under its base path", func() {
				So(gotPath, ShouldEqual, "/api/sales/submit/")
				So(gotQuery, ShouldEqual, "dry=1")
				So(gotBody, ShouldEqual, `{"total_sales":5}`)
				So(gotForwarded, ShouldEqual, "shell.local")
			})
			Convey("Then the backend response is relayed unchanged", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Body.String(), ShouldEqual, `{"id":1}`)
			})
			Convey("Then the request is counted", func() {
				n, err := metrics.Count("capio_shell_http_requests_total", map[string]string{
					"handler": "api", "method": "POST", "status_code": "201",
				})
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When metrics are requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the Prometheus exposition is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "capio_shell")
			})
		})
	})

	Convey("Given an API server whose backend is down", t, func() {
		backend := httptest.NewServer(http.NotFoundHandler())
		url := backend.URL
		backend.Close()

		var buf bytes.Buffer
		server, err := api.NewServer(url, api.WithLogger(logger.New(&buf)))
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		Convey("Then the shell answers 502 with a JSON error", func() {
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			var body map[string]string
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["code"], ShouldEqual, "backend_unreachable")
		})
		Convey("Then the failure is logged", func() {
			So(buf.String(), ShouldContainSubstring, "backend unreachable")
		})
	})
}
