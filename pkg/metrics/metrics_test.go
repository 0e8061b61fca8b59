package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "capio")
			})

			Convey("Then latency buckets are in milliseconds", func() {
				So(manager.histogramBuckets, ShouldHaveLength, 14)
				So(manager.histogramBuckets[0], ShouldEqual, 1.0)
				So(manager.histogramBuckets[13], ShouldEqual, 8192.0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should apply", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
			})

			Convey("And recorded series carry the const labels", func() {
				manager.RecordNavigation("Dashboard")
				So(testutil.ToFloat64(manager.navigations.WithLabelValues("Dashboard")), ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording gateway traffic", func() {
			manager.RecordGatewayRequest("getProducts", "GET", "200", 12)
			manager.RecordGatewayRequest("getProducts", "GET", "200", 8)
			manager.RecordGatewayError("getProducts", "transport")

			Convey("Then counters reflect it", func() {
				So(testutil.ToFloat64(manager.gatewayRequests.WithLabelValues("getProducts", "GET", "200")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.gatewayErrors.WithLabelValues("getProducts", "transport")), ShouldEqual, 1)
			})

			Convey("Then both latencies fall below the 16ms bucket", func() {
				h := &dto.Metric{}
				observer := manager.gatewayRequestDuration.WithLabelValues("getProducts", "GET")
				So(observer.(prometheus.Metric).Write(h), ShouldBeNil)
				var le16 uint64
				for _, b := range h.GetHistogram().GetBucket() {
					if b.GetUpperBound() == 16 {
						le16 = b.GetCumulativeCount()
					}
				}
				So(le16, ShouldEqual, 2)
			})
		})

		Convey("When recording view loads", func() {
			manager.RecordViewLoad("Sales", true)
			manager.RecordViewLoad("Sales", false)

			Convey("Then results are split", func() {
				So(testutil.ToFloat64(manager.viewLoads.WithLabelValues("Sales", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.viewLoads.WithLabelValues("Sales", "error")), ShouldEqual, 1)
			})
		})

		Convey("When recording shell requests", func() {
			So(func() {
				manager.RecordHTTPRequest("page", "GET", "200", 3)
				manager.RecordHTTPRequest("page", "GET", "404", 1)
			}, ShouldNotPanic)
		})
	})

	Convey("Given a disabled manager", t, func() {
		manager := NewManager(
			WithPrometheusRegistry(prometheus.NewRegistry()),
			WithMetricsEnabled(false),
		)

		Convey("Then nothing is recorded", func() {
			manager.RecordNavigation("Products")
			So(testutil.ToFloat64(manager.navigations.WithLabelValues("Products")), ShouldEqual, 0)
		})
	})
}

func TestGlobalCount(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before, err := Count("capio_shell_navigations_total", map[string]string{"route": "CountProbe"})
		So(err, ShouldBeNil)

		Convey("When recording navigations", func() {
			RecordNavigation("CountProbe")
			RecordNavigation("CountProbe")

			Convey("Then Count sums the matching series", func() {
				after, err := Count("capio_shell_navigations_total", map[string]string{"route": "CountProbe"})
				So(err, ShouldBeNil)
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When asking for an unknown family", func() {
			n, err := Count("capio_shell_missing_total", nil)

			Convey("Then the count is zero", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})
}
