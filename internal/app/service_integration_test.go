package service_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/okian/capio/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeBackend serves canned bodies per path and records what it was asked.
func fakeBackend(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	bodies := map[string]string{
		"/api/products/":                 `[{"id":1,"name":"Rice","category":"Food","price":"45.50"}]`,
		"/api/products/history/":         `[{"id":1,"product":1,"product_name":"Rice","quantity":2,"date":"2024-05-01"}]`,
		"/api/products/recommendations/": `{"category_recommendations":{},"most_popular_products":[{"name":"Rice","total_sold":2}],"price_ranges":{}}`,
		"/api/sales/history/":            `[{"id":1,"date":"2024-05-01","total_sales":"91.00","holiday_season":false,"promo_active":true,"economic_indicator":1.2}]`,
		"/api/sales/predict/":            `{"monthly":95.5,"yearly":[{"year":2024,"month":6,"predicted_sales":"97.00"}]}`,
		"/api/sales/per-category/":       `{"Food":91}`,
		"/api/prediction/sales/":         `{"forecast":[1,2,3]}`,
	}
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service in front of a fake backend", t, func() {
		backend, requested := fakeBackend(t)
		defer backend.Close()

		svc := service.New(
			service.WithBaseURL(backend.URL+"/api"),
			service.WithRequestTimeout(5*time.Second),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		handler, err := svc.Handler()
		So(err, ShouldBeNil)
		shell := httptest.NewServer(handler)
		defer shell.Close()

		get := func(path string) (int, string) {
			resp, err := http.Get(shell.URL + path)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			b, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			return resp.StatusCode, string(b)
		}

		Convey("When the sales page is opened", func() {
			status, body := get("/sales")

			Convey("Then it renders from four backend calls", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "<title>Sales Management | CAPIO</title>")
				So(body, ShouldContainSubstring, "Sales per Category")
				So(body, ShouldContainSubstring, "forecast")
				So(requested(), ShouldHaveLength, 4)
			})
		})

		Convey("When the products page is opened", func() {
			status, body := get("/products")

			Convey("Then the catalogue is shown", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "<title>Product Management | CAPIO</title>")
				So(body, ShouldContainSubstring, "Rice")
			})
		})

		Convey("When an unknown page is opened", func() {
			status, body := get("/unknown-page")

			Convey("Then the shell answers 404 without touching the backend", func() {
				So(status, ShouldEqual, http.StatusNotFound)
				So(body, ShouldContainSubstring, "<title>Page Not Found | CAPIO</title>")
				So(requested(), ShouldBeEmpty)
			})
		})

		Convey("When the browser calls the backend through /api/", func() {
			status, body := get("/api/products/")

			Convey("Then the proxied body comes back unchanged", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body, ShouldStartWith, `[{"id":1,"name":"Rice"`)
				So(requested(), ShouldResemble, []string{"GET /api/products/"})
			})
		})

		Convey("When the gateway is used directly", func() {
			client, err := svc.Client()
			So(err, ShouldBeNil)
			_, err = client.GetMachineLearningRecommendations(ctx, "user-42")

			Convey("Then a backend 404 surfaces as a status error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "status 404")
			})
		})

		Convey("When metrics are scraped", func() {
			get("/")
			_, body := get("/healthz")

			Convey("Then gateway and page metrics are exposed", func() {
				So(body, ShouldContainSubstring, "capio_shell_gateway_requests_total")
				So(body, ShouldContainSubstring, "capio_shell_navigations_total")
				So(strings.Contains(body, `handler="page"`), ShouldBeTrue)
			})
		})
	})
}
