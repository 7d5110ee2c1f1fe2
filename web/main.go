package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/df07/go-optics-engine/pkg/config"
	"github.com/df07/go-optics-engine/pkg/logging"
	"github.com/df07/go-optics-engine/web/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to a YAML config file")
	sceneName := flag.String("scene", "default", "Builtin scene name, scene file path, or scene file ID")
	scenesDir := flag.String("scenes-dir", "scenes", "Directory scanned for YAML scene files")
	port := flag.Int("port", 0, "Port to serve on (overrides config)")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	webServer, err := server.NewServer(cfg, *scenesDir, *sceneName, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("optics engine web server", zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)))
	if err := webServer.Start(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
