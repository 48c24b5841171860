package config_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/ayusman/airtrail/internal/config"
	"github.com/ayusman/airtrail/internal/detector"
	"github.com/ayusman/airtrail/internal/gesture"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:7420")
			convey.So(cfg.FPS, convey.ShouldEqual, 30)
			convey.So(cfg.ReleaseFrames, convey.ShouldEqual, 15)
			convey.So(cfg.PalmFrames, convey.ShouldEqual, 30)
			convey.So(cfg.PointEasing, convey.ShouldEqual, 1.0)
			convey.So(cfg.DrawEasing, convey.ShouldEqual, 0.5)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the camera and detector settings carry the defaults", func() {
			cam := cfg.Camera()
			convey.So(cam.Width, convey.ShouldEqual, 640)
			convey.So(cam.Height, convey.ShouldEqual, 480)
			convey.So(cam.FPS, convey.ShouldEqual, cfg.FPS)
			convey.So(cfg.Detector(), convey.ShouldResemble, detector.DefaultConfig())
		})

		convey.Convey("Then hooks live under the data dir", func() {
			convey.So(cfg.HookDir(), convey.ShouldEqual, filepath.Join(cfg.DataDir, "hooks"))
			convey.So(cfg.HookTimeout(), convey.ShouldEqual, 5*time.Second)

			cfg.HooksDir = "/srv/hooks"
			convey.So(cfg.HookDir(), convey.ShouldEqual, "/srv/hooks")
		})

		convey.Convey("Then its thresholds match the classifier defaults", func() {
			convey.So(cfg.Thresholds(), convey.ShouldResemble, gesture.DefaultThresholds())
		})

		convey.Convey("Then the scene settings carry the canvas and video size", func() {
			sc := cfg.Scene(640, 480)
			convey.So(sc.Viewport.Width, convey.ShouldEqual, 1280)
			convey.So(sc.Viewport.VideoHeight, convey.ShouldEqual, 480)
			convey.So(sc.Speed.Current, convey.ShouldEqual, 5)
			convey.So(sc.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		ctx := context.Background()

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero fps", func(c *config.Config) { c.FPS = 0 }},
			{"close beyond far", func(c *config.Config) { c.CloseThreshold = 0.3 }},
			{"zero release frames", func(c *config.Config) { c.ReleaseFrames = 0 }},
			{"point easing above one", func(c *config.Config) { c.PointEasing = 1.5 }},
			{"draw easing zero", func(c *config.Config) { c.DrawEasing = 0 }},
			{"speed bounds inverted", func(c *config.Config) { c.SpeedMin = 60 }},
			{"default outside bounds", func(c *config.Config) { c.SpeedDefault = 80 }},
			{"negative trail cap", func(c *config.Config) { c.MaxTrailPoints = -1 }},
			{"empty canvas", func(c *config.Config) { c.CanvasHeight = 0 }},
			{"zero hook timeout", func(c *config.Config) { c.HookTimeoutMs = 0 }},
			{"zero camera width", func(c *config.Config) { c.CameraWidth = 0 }},
			{"three hands", func(c *config.Config) { c.NumHands = 3 }},
			{"confidence above one", func(c *config.Config) { c.MinDetectionConfidence = 1.5 }},
			{"NaN close threshold", func(c *config.Config) { c.CloseThreshold = math.NaN() }},
			{"NaN finger tolerance", func(c *config.Config) { c.FingerTolerance = math.NaN() }},
			{"infinite far threshold", func(c *config.Config) { c.FarThreshold = math.Inf(1) }},
			{"infinite palm area ratio", func(c *config.Config) { c.PalmAreaRatio = math.Inf(1) }},
			{"NaN speed default", func(c *config.Config) { c.SpeedDefault = math.NaN() }},
			{"infinite speed max", func(c *config.Config) { c.SpeedMax = math.Inf(1) }},
		}

		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New(ctx)
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
