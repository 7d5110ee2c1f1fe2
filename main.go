package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-optics-engine/pkg/config"
	"github.com/df07/go-optics-engine/pkg/logging"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/recording"
	"github.com/df07/go-optics-engine/pkg/render"
	"github.com/df07/go-optics-engine/pkg/scene"
)

// options are the command line settings of a single render
type options struct {
	SceneName string
	ScenesDir string
	OutputDir string
	Debug     bool
	Record    bool
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a YAML config file")
	sceneName := flag.String("scene", "default", "Builtin scene name, scene file path, or scene file ID")
	scenesDir := flag.String("scenes-dir", "scenes", "Directory scanned for YAML scene files")
	outputDir := flag.String("output", "output", "Directory renders are written to")
	debug := flag.Bool("debug", false, "Draw the march step overlay")
	record := flag.Bool("record", false, "Write a session recording next to the render")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		printHelp(*scenesDir)
		return
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	filename, err := run(context.Background(), cfg, options{
		SceneName: *sceneName,
		ScenesDir: *scenesDir,
		OutputDir: *outputDir,
		Debug:     *debug,
		Record:    *record,
	}, logger)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("render saved", zap.String("file", filename))
}

func printHelp(scenesDir string) {
	fmt.Println("Optics Engine")
	fmt.Println("Usage: optics [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	scenes, err := scene.ListScenes(scenesDir)
	if err != nil {
		fmt.Printf("  (failed to list scenes: %v)\n", err)
	}
	for _, info := range scenes {
		fmt.Printf("  %-12s %s\n", info.ID, info.Description)
	}
	fmt.Println()
	fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
}

// run marches one frame of the chosen scene and writes it as a PNG, returning the file name
func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) (string, error) {
	selected, err := scene.Resolve(opts.SceneName, opts.ScenesDir, cfg.Bounds.Width, cfg.Bounds.Height)
	if err != nil {
		return "", err
	}
	logger.Info("using scene", zap.String("scene", selected.Name), zap.Int("rays", selected.RayCount()))

	marchConfig := cfg.MarcherConfig()
	marchConfig.RecordSteps = marchConfig.RecordSteps || opts.Debug
	m := marcher.NewMarcher(marchConfig, logging.Printer(logger.Named("march"), zapcore.DebugLevel))

	startTime := time.Now()
	frame, err := m.MarchScene(ctx, selected)
	if err != nil {
		return "", err
	}
	logger.Info("march completed",
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("segments", frame.Stats.Segments),
		zap.Float64("avgIterations", frame.Stats.AverageIterations()),
		zap.Int("capped", frame.Stats.Capped),
		zap.Int("penetrated", frame.Stats.Penetrated))

	// Create output directory for this scene
	outputDir := filepath.Join(opts.OutputDir, selected.Name)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Create timestamped filename
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	renderOpts := render.DefaultOptions()
	renderOpts.Debug = opts.Debug
	renderOpts.Handles = false
	if err := render.WritePNG(file, int(cfg.Bounds.Width), int(cfg.Bounds.Height), selected, frame, renderOpts); err != nil {
		return "", err
	}

	if opts.Record {
		dir := cfg.Recording.Dir
		if dir == "" {
			dir = filepath.Join(opts.OutputDir, "recordings")
		}
		if err := recordFrame(dir, selected, frame); err != nil {
			return "", err
		}
	}

	return filename, nil
}

// recordFrame writes a one-frame recording of the scene
func recordFrame(dir string, s *scene.Scene, frame *marcher.Frame) error {
	w, err := recording.NewWriter(dir, s, nil)
	if err != nil {
		return err
	}
	if _, err := w.RecordFrame(s.Fingerprint(), frame); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
