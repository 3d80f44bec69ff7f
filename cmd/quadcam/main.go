package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ironsheep/quadcam/internal/detection"
	"github.com/ironsheep/quadcam/internal/imaging"
	"github.com/ironsheep/quadcam/internal/pipeline"
	"github.com/ironsheep/quadcam/internal/server"
	"github.com/ironsheep/quadcam/internal/source"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// camera is what main needs from a frame source.
type camera interface {
	Start(ctx context.Context) error
	Stop() error
	Stats() source.Stats
}

func main() {
	imagePath := flag.String("image", "", "Serve this still image instead of the synthetic camera")
	width := flag.Int("width", 640, "Synthetic camera width")
	height := flag.Int("height", 480, "Synthetic camera height")
	fps := flag.Int("fps", 30, "Camera frame rate")
	orientation := flag.Int("orientation", -1, "Mounting rotation in degrees (0, 90, 180, 270); -1 picks the platform default")
	bottomUp := flag.Bool("bottom-up", false, "Camera buffers start at the bottom row")
	captureDir := flag.String("capture-dir", ".", "Directory for captured frames")
	previewDir := flag.String("preview-dir", "", "Write a preview image into this directory")
	previewEvery := flag.Int("preview-every", 15, "Write every Nth published frame to the preview")
	previewScale := flag.Float64("preview-scale", 0.5, "Scale factor for the preview image")
	backend := flag.String("backend", detection.BackendGo, "Detector backend (go, opencv)")

	// Handle --version and --help before flag parsing; the flags are
	// defined first so the help text can list them
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("quadcam %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("quadcam - live camera quadrilateral detector")
			fmt.Println()
			fmt.Println("Usage: quadcam [options]")
			fmt.Println()
			fmt.Println("Options:")
			flag.CommandLine.SetOutput(os.Stdout)
			flag.PrintDefaults()
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  QUADCAM_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println()
			fmt.Println("The MCP control server communicates over stdin/stdout.")
			return
		}
	}

	flag.Parse()

	// stdout carries MCP, so all logging goes to stderr
	level := slog.LevelInfo
	if os.Getenv("QUADCAM_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	pipeline.SetLogger(logger)

	logger.Debug("quadcam starting", "version", Version, "build_time", BuildTime, "commit", GitCommit)

	rot := imaging.PlatformOrientation(runtime.GOOS)
	if *orientation >= 0 {
		var err error
		if rot, err = imaging.ParseOrientation(*orientation); err != nil {
			logger.Error("invalid orientation", "error", err)
			os.Exit(2)
		}
	}

	origin := imaging.TopLeft
	if *bottomUp {
		origin = imaging.BottomLeft
	}

	mailbox := pipeline.NewMailbox()

	var cam camera
	var err error
	if *imagePath != "" {
		cam, err = source.OpenStillCamera(*imagePath, *fps, origin, imaging.NewImageCache(), mailbox)
	} else {
		cam, err = source.NewMockCamera(*width, *height, *fps, origin, mailbox)
	}
	if err != nil {
		logger.Error("failed to open camera", "error", err)
		os.Exit(1)
	}

	detector, err := detection.NewBackend(*backend)
	if err != nil {
		logger.Error("failed to create detector", "backend", *backend, "error", err)
		os.Exit(1)
	}

	cfg := pipeline.Config{
		Source:      mailbox,
		Detector:    detector,
		Orientation: rot,
	}
	if *previewDir != "" {
		cfg.Preview = pipeline.NewScaledPreview(*previewDir, *previewEvery, *previewScale)
	}

	loop, err := pipeline.NewLoop(cfg)
	if err != nil {
		logger.Error("failed to create frame loop", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := cam.Start(ctx); err != nil {
		logger.Error("failed to start camera", "error", err)
		os.Exit(1)
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	srvDone := make(chan error, 1)
	srv := server.New(loop, cam, *captureDir)
	go func() { srvDone <- srv.Run() }()

	loopStopped := false
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-srvDone:
		// The MCP client closing stdin ends the session.
		if err != nil {
			logger.Error("server error", "error", err)
		}
	case err := <-loopDone:
		loopStopped = true
		logger.Error("frame loop exited", "error", err)
	}

	cancel()
	if err := cam.Stop(); err != nil {
		logger.Error("failed to stop camera", "error", err)
	}

	if !loopStopped {
		select {
		case err := <-loopDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("frame loop error", "error", err)
			}
		case <-time.After(2 * time.Second):
			logger.Warn("frame loop did not stop in time")
		}
	}

	stats := loop.Stats()
	logger.Info("quadcam stopped",
		"published", stats.Published,
		"detections", stats.Detections,
		"failures", stats.Failures,
	)
}
