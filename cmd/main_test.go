package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/okian/capio/internal/config"
	"github.com/okian/capio/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given the shell entrypoint", t, func() {
		convey.Convey("When the configuration is valid", func() {
			t.Setenv("CAPIO_CONFIG", "")
			t.Setenv("CAPIO_ADDR", "127.0.0.1:0")
			t.Setenv("CAPIO_API_BASE_URL", "http://127.0.0.1:1/api")

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then it serves until the context ends and shuts down cleanly", func() {
				convey.So(run(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the backend URL is invalid", func() {
			t.Setenv("CAPIO_CONFIG", "")
			t.Setenv("CAPIO_API_BASE_URL", "not a url")

			convey.Convey("Then run fails before serving", func() {
				err := run(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the listen address is invalid", func() {
			t.Setenv("CAPIO_CONFIG", "")
			t.Setenv("CAPIO_ADDR", "127.0.0.1:-1")
			t.Setenv("CAPIO_API_BASE_URL", "http://127.0.0.1:1/api")

			convey.Convey("Then the server error is returned", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				convey.So(run(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewServer(t *testing.T) {
	convey.Convey("Given a configured address", t, func() {
		cfg := config.New()
		srv := newServer(cfg.Addr, http.NotFoundHandler())

		convey.Convey("Then the server carries the shell timeouts", func() {
			convey.So(srv.Addr, convey.ShouldEqual, ":8080")
			convey.So(srv.ReadTimeout, convey.ShouldEqual, readTimeout)
			convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
			convey.So(srv.IdleTimeout, convey.ShouldEqual, idleTimeout)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})
	})
}
