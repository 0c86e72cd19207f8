package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pbaille/coursework/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(filepath.Base(cfg.DBPath), convey.ShouldEqual, "coursework.db")
				convey.So(cfg.RequestTimeout(), convey.ShouldEqual, time.Duration(0))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("COURSEWORK_ADDR", "127.0.0.1:9000")
			_ = os.Setenv("COURSEWORK_DB_PATH", "/tmp/cw.db")
			_ = os.Setenv("COURSEWORK_REQUEST_TIMEOUT_MS", "1500")
			_ = os.Setenv("COURSEWORK_TIMEZONE", "UTC")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9000")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/cw.db")
				convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 1500*time.Millisecond)

				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc, convey.ShouldEqual, time.UTC)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := filepath.Join(t.TempDir(), "coursework.yaml")
			yamlContent := `
addr: ":7070"
log_level: debug
db_path: /var/lib/coursework.db
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("COURSEWORK_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/var/lib/coursework.db")
			})

			convey.Convey("And env vars should win over the file", func() {
				_ = os.Setenv("COURSEWORK_ADDR", ":6060")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("COURSEWORK_CONFIG", "/nonexistent/coursework.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values are invalid", func() {
			convey.Convey("A negative timeout is rejected", func() {
				_ = os.Setenv("COURSEWORK_REQUEST_TIMEOUT_MS", "-1")
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("An unknown timezone is rejected", func() {
				_ = os.Setenv("COURSEWORK_TIMEZONE", "Mars/Olympus")
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"COURSEWORK_CONFIG",
		"COURSEWORK_ADDR",
		"COURSEWORK_LOG_LEVEL",
		"COURSEWORK_DB_PATH",
		"COURSEWORK_REQUEST_TIMEOUT_MS",
		"COURSEWORK_TIMEZONE",
	} {
		_ = os.Unsetenv(name)
	}
}
