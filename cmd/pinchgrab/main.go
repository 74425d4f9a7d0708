package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/pinchgrab/internal/app"
	"github.com/ayusman/pinchgrab/internal/assets"
	"github.com/ayusman/pinchgrab/internal/capture"
	"github.com/ayusman/pinchgrab/internal/config"
	"github.com/ayusman/pinchgrab/internal/detector"
	"github.com/ayusman/pinchgrab/internal/handcontrols"
	"github.com/ayusman/pinchgrab/internal/panel"
	"github.com/ayusman/pinchgrab/internal/scene"
	"github.com/ayusman/pinchgrab/internal/server"
	"github.com/ayusman/pinchgrab/internal/store"
	"github.com/ayusman/pinchgrab/internal/tracking"
	"github.com/ayusman/pinchgrab/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	source := flag.String("camera", "", "camera device index or video file (overrides config)")
	mock := flag.Bool("mock", false, "use the mock detector instead of MediaPipe")
	landmarks := flag.Bool("landmarks", false, "show hand landmarks on start")
	showPanel := flag.Bool("panel", false, "show the terminal settings panel")
	noTray := flag.Bool("no-tray", false, "disable the system tray menu")
	flag.Parse()

	fmt.Println("pinchgrab - pinch and drag with your hand")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *source != "" {
		cfg.Camera.Source = *source
	}
	if *mock {
		cfg.Detector.Mock = true
	}
	if *landmarks {
		cfg.ShowLandmarks = true
	}
	if *showPanel {
		cfg.Panel = true
	}
	if *noTray {
		cfg.Tray = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	camera := capture.NewCamera(capture.Options{
		Source: cfg.Camera.Source,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		Mirror: cfg.Camera.Mirror,
	})
	det := newDetector(cfg.Detector)
	defer det.Close()

	tracker := tracking.New(tracking.Config{
		IdleFPS:     cfg.Camera.IdleFPS,
		ActiveFPS:   cfg.Camera.ActiveFPS,
		IdleTimeout: cfg.Camera.IdleTimeout.D(),
		MotionGate:  cfg.Camera.MotionGate,
	}, camera, capture.NewMotionDetector(cfg.Camera.MotionThreshold), det, nil)

	hub := server.NewLandmarkHub()
	tracker.OnFrame(hub.Publish)

	var models fs.FS
	if cfg.ModelDir != "" {
		models = os.DirFS(cfg.ModelDir)
	}

	orchestrator := app.New(appConfig(cfg), app.Deps{
		Tracker: tracker,
		Assets:  models,
		Store:   st,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orchestrator.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize scene: %v", err)
	}

	if models == nil {
		models = assets.FS()
	}
	webDir := cfg.WebDir
	if webDir == "" || !isDir(webDir) {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		ModelFS:   models,
		Store:     st,
		Camera:    camera,
		App:       orchestrator,
		Hub:       hub,
	})
	go func() {
		if err := srv.Run(ctx, cfg.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Panel {
		go func() {
			if err := panel.Run(ctx, orchestrator, tracker); err != nil {
				log.Printf("Panel failed: %v", err)
			}
			stop()
		}()
	}

	runErr := make(chan error, 1)
	go func() {
		err := orchestrator.Run(ctx)
		stop()
		runErr <- err
	}()

	if cfg.Tray {
		// systray must own the main goroutine on macOS.
		t := newTray(ctx, orchestrator, tracker, "http://"+cfg.Addr)
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	}

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Render loop stopped: %v", err)
	}

	stats := tracker.Stats()
	log.Printf("Stopped after %d detection cycles (%d errors)", stats.Cycles, stats.Errors)
}

// newDetector returns the MediaPipe detector, or the mock when it is
// requested or MediaPipe is not installed.
func newDetector(cfg config.DetectorConfig) detector.Detector {
	if cfg.Mock {
		log.Println("Using mock detector")
		return detector.NewMockDetector()
	}

	d, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.MaxHands,
		MinConfidence:   cfg.MinConfidence,
		MinTrackingConf: cfg.MinTrackingConfidence,
		IdleShutdown:    cfg.IdleShutdown.D(),
	})
	if err != nil {
		log.Printf("MediaPipe unavailable (%v), falling back to mock detector", err)
		return detector.NewMockDetector()
	}
	return d
}

// appConfig maps file configuration onto the orchestrator's.
func appConfig(cfg config.Config) app.Config {
	sc := scene.DefaultConfig()
	sc.Width, sc.Height = cfg.Scene.Width, cfg.Scene.Height
	if cfg.Scene.FPS > 0 {
		sc.FPS = cfg.Scene.FPS
	}

	mapping := handcontrols.DefaultMapping()
	// Frames the camera already mirrored must not be flipped again.
	mapping.Mirror = !cfg.Camera.Mirror
	if cfg.Controls.ReferenceScale > 0 {
		mapping.ReferenceScale = cfg.Controls.ReferenceScale
	}
	if cfg.Controls.BaseDistance > 0 {
		mapping.BaseDistance = cfg.Controls.BaseDistance
	}

	out := app.DefaultConfig()
	out.Scene = sc
	out.Targets = cfg.Scene.Targets
	out.Seed = cfg.Scene.Seed
	out.Controls = app.ControlsConfig{
		Mapping:         mapping,
		Smoothing:       cfg.Controls.Smoothing,
		CollisionMargin: cfg.Controls.CollisionMargin,
		CloseThreshold:  cfg.Controls.CloseThreshold,
		OpenThreshold:   cfg.Controls.OpenThreshold,
	}
	out.Session = app.SessionConfig{ShowLandmarks: cfg.ShowLandmarks}
	return out
}

// newTray wires the tray toggles to the orchestrator and tracker and keeps
// its status line current until ctx is done.
func newTray(ctx context.Context, a *app.App, tracker *tracking.Service, viewerURL string) *tray.Tray {
	t := tray.New(a.SessionConfig().ShowLandmarks)
	t.OnTracking(tracker.SetEnabled)
	t.OnLandmarks(func(show bool) {
		if err := a.SetShowLandmarks(show); err != nil {
			log.Printf("Failed to save landmark setting: %v", err)
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(viewerURL); err != nil {
			log.Printf("Failed to open viewer: %v", err)
		}
	})

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := a.Stats()
				if stats.DragTarget != "" {
					t.SetStatus("Dragging " + stats.DragTarget)
				} else {
					t.SetStatus("")
				}
				t.SetLandmarks(a.SessionConfig().ShowLandmarks)
			}
		}
	}()
	return t
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

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.pinchgrab/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if isDir(p) {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if p := filepath.Join(homeDir, ".pinchgrab", "web"); isDir(p) {
		return p
	}
	return ""
}
