package config_test

import (
	"testing"
	"time"

	"github.com/okian/capio/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.AppName, convey.ShouldEqual, "CAPIO")
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://localhost:8000/api")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.Headers, convey.ShouldBeEmpty)
		})

		convey.Convey("And it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
