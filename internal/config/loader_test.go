package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/ayusman/airtrail/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:7420")
				convey.So(cfg.ReleaseFrames, convey.ShouldEqual, 15)
				convey.So(cfg.CloseThreshold, convey.ShouldEqual, 0.05)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("AIRTRAIL_ADDR", ":8080")
			_ = os.Setenv("AIRTRAIL_RELEASE_FRAMES", "10")
			_ = os.Setenv("AIRTRAIL_CLOSE_THRESHOLD", "0.04")
			_ = os.Setenv("AIRTRAIL_CAMERA_ID", "2")
			_ = os.Setenv("AIRTRAIL_HEADLESS", "true")
			_ = os.Setenv("AIRTRAIL_HOOK_TIMEOUT_MS", "250")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ReleaseFrames, convey.ShouldEqual, 10)
				convey.So(cfg.CloseThreshold, convey.ShouldEqual, 0.04)
				convey.So(cfg.CameraID, convey.ShouldEqual, 2)
				convey.So(cfg.HookTimeoutMs, convey.ShouldEqual, 250)
				convey.So(cfg.Headless, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
palm_frames: 20
far_threshold: 0.25
canvas_width: 1920
canvas_height: 1080
`)
			_ = os.Setenv("AIRTRAIL_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.PalmFrames, convey.ShouldEqual, 20)
				convey.So(cfg.FarThreshold, convey.ShouldEqual, 0.25)
				convey.So(cfg.CanvasWidth, convey.ShouldEqual, 1920)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, `
addr: ":9090"
fps: 24
`)
			_ = os.Setenv("AIRTRAIL_CONFIG", path)
			_ = os.Setenv("AIRTRAIL_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.FPS, convey.ShouldEqual, 24)       // From file
			})
		})

		convey.Convey("When a float setting arrives as NaN", func() {
			_ = os.Setenv("AIRTRAIL_FINGER_TOLERANCE", "NaN")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the config is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := writeConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("AIRTRAIL_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("AIRTRAIL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the merged values are inconsistent", func() {
			_ = os.Setenv("AIRTRAIL_CLOSE_THRESHOLD", "0.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects them", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airtrail.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"AIRTRAIL_CONFIG",
		"AIRTRAIL_ADDR",
		"AIRTRAIL_RELEASE_FRAMES",
		"AIRTRAIL_CLOSE_THRESHOLD",
		"AIRTRAIL_FINGER_TOLERANCE",
		"AIRTRAIL_CAMERA_ID",
		"AIRTRAIL_HEADLESS",
		"AIRTRAIL_HOOK_TIMEOUT_MS",
	} {
		_ = os.Unsetenv(k)
	}
}
