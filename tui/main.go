package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-optics-engine/pkg/config"
	"github.com/df07/go-optics-engine/pkg/logging"
	"github.com/df07/go-optics-engine/pkg/recording"
	"github.com/df07/go-optics-engine/pkg/scene"
	"github.com/df07/go-optics-engine/tui/viewer"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a YAML config file")
	sceneName := flag.String("scene", "default", "Builtin scene name, scene file path, or scene file ID")
	scenesDir := flag.String("scenes-dir", "scenes", "Directory scanned for YAML scene files")
	logPath := flag.String("log", "optics-tui.log", "File the viewer logs to")
	record := flag.Bool("record", false, "Record edits and frames of the session")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the viewer, so logs go to a file
	logger, err := logging.NewWithOutput(cfg.Logging.Level, cfg.Logging.Encoding, *logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	selected, err := scene.Resolve(*sceneName, *scenesDir, cfg.Bounds.Width, cfg.Bounds.Height)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	v := viewer.New(screen, selected, cfg.MarcherConfig(), logging.Printer(logger.Named("tui"), zapcore.InfoLevel))

	if *record {
		dir := cfg.Recording.Dir
		if dir == "" {
			dir = "recordings"
		}
		w, err := recording.NewWriter(dir, selected, nil)
		if err != nil {
			logger.Error("failed to start recording", zap.Error(err))
		} else {
			defer w.Close()
			v.SetRecorder(w)
			logger.Info("recording session", zap.String("dir", w.Directory()))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("viewer started", zap.String("scene", selected.Name))
	if err := v.Run(ctx); err != nil {
		logger.Error("viewer stopped", zap.Error(err))
	}
}
