package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/airtrail/internal/app"
	"github.com/ayusman/airtrail/internal/capture"
	"github.com/ayusman/airtrail/internal/config"
	"github.com/ayusman/airtrail/internal/hook"
	"github.com/ayusman/airtrail/internal/server"
	"github.com/ayusman/airtrail/internal/store"
	"github.com/ayusman/airtrail/internal/tray"
	"github.com/ayusman/airtrail/pkg/logger"
	"github.com/ayusman/airtrail/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "airtrail: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(); err != nil {
		return err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Named("main")

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info(ctx, "store opened", logger.String("path", cfg.DBPath()))

	hooks := hook.NewManager(cfg.HookDir())
	if err := hooks.Discover(); err != nil {
		log.Warn(ctx, "hook discovery failed", logger.String("dir", cfg.HookDir()), logger.Error(err))
	}
	dispatcher := hook.NewDispatcher(hooks, hook.NewExecutor(cfg.HookTimeout()))
	defer dispatcher.Close()

	camera := capture.NewCamera(cfg.Camera())
	width, height := camera.Resolution()
	pipeline, err := app.New(app.Config{
		Camera:     camera,
		Detector:   app.SelectDetector(cfg.Detector()),
		Store:      st,
		Metrics:    metrics.Default(),
		Hooks:      dispatcher,
		Thresholds: cfg.Thresholds(),
		Scene:      cfg.Scene(width, height),
		FPS:        cfg.FPS,
	})
	if err != nil {
		return err
	}
	pipeline.SetEnabled(true)
	if err := pipeline.Start(ctx); err != nil {
		return err
	}
	defer pipeline.Stop()

	webDir := findWebDir(cfg.WebDir())
	if webDir != "" {
		log.Info(ctx, "serving static files", logger.String("dir", webDir))
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Engine:    pipeline,
		Hooks:     hooks,
		Metrics:   metrics.Default(),
	})

	srvDone := make(chan error, 1)
	go func() {
		srvDone <- srv.ListenAndServe(ctx, cfg.Addr)
		stop()
	}()

	if cfg.Headless {
		<-ctx.Done()
	} else {
		runTray(ctx, stop, pipeline, "http://"+cfg.Addr)
	}

	stop()
	return <-srvDone
}

// runTray blocks until the tray quits or ctx is cancelled.
func runTray(ctx context.Context, stop context.CancelFunc, pipeline *app.App, url string) {
	t := tray.New(pipeline.IsEnabled())
	t.OnToggle(pipeline.SetEnabled)
	t.OnClear(pipeline.ClearTrail)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			logger.Named("main").Warn(ctx, "failed to open browser", logger.String("url", url), logger.Error(err))
		}
	})
	t.OnQuit(stop)

	unsubscribe := pipeline.Subscribe(t.Update)
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir returns the first existing renderer directory: "web" or
// "../web" relative to the working directory, then the one in the data
// directory. Empty if none exists.
func findWebDir(dataWebDir string) string {
	for _, p := range []string{"web", "../web", dataWebDir} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
