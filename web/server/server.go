package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-optics-engine/pkg/config"
	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/logging"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/recording"
	"github.com/df07/go-optics-engine/pkg/scene"
)

// Server hosts one live scene that browsers view and edit over HTTP and websockets
type Server struct {
	config    *config.Config
	scenesDir string
	logger    *zap.Logger

	mu       sync.Mutex // Serializes edits and marches
	scene    *scene.Scene
	selector *scene.Selector
	plain    *marcher.Marcher
	debug    *marcher.Marcher
	cache    map[bool]cachedFrame
	recorder *recording.Writer
}

// cachedFrame is the last frame marched for a scene fingerprint
type cachedFrame struct {
	fingerprint uint64
	frame       *marcher.Frame
}

// NewServer creates a server showing the named scene
func NewServer(cfg *config.Config, scenesDir, sceneName string, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := scene.Resolve(sceneName, scenesDir, cfg.Bounds.Width, cfg.Bounds.Height)
	if err != nil {
		return nil, err
	}

	marchLogger := logging.Printer(logger.Named("march"), zapcore.DebugLevel)
	plainConfig := cfg.MarcherConfig()
	plainConfig.RecordSteps = false
	debugConfig := cfg.MarcherConfig()
	debugConfig.RecordSteps = true

	srv := &Server{
		config:    cfg,
		scenesDir: scenesDir,
		logger:    logger,
		scene:     s,
		selector:  scene.NewSelector(),
		plain:     marcher.NewMarcher(plainConfig, marchLogger),
		debug:     marcher.NewMarcher(debugConfig, marchLogger),
		cache:     make(map[bool]cachedFrame),
	}
	if err := srv.startRecording(); err != nil {
		return nil, err
	}
	return srv, nil
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// JSON and YAML responses are gzip compressed when the client accepts it
	api := http.NewServeMux()
	api.HandleFunc("/api/health", s.handleHealth)
	api.HandleFunc("/api/scenes", s.handleScenes)
	api.HandleFunc("/api/scene", s.handleScene)
	api.HandleFunc("/api/scene/select", s.handleSelectScene)
	api.HandleFunc("/api/march", s.handleMarch)
	api.HandleFunc("/api/handles", s.handleHandles)
	api.HandleFunc("/api/drag", s.handleDrag)
	mux.Handle("/api/", gzhttp.GzipHandler(api))

	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/ws", s.handleStream)
	return mux
}

// Start listens on the configured port until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.Close()
	}
}

// Close finishes the active recording, if any
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder == nil {
		return nil
	}
	err := s.recorder.Close()
	s.recorder = nil
	return err
}

// startRecording opens a recording for the current scene when a directory is configured.
// Callers must not hold the mutex.
func (s *Server) startRecording() error {
	if s.config.Recording.Dir == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.logger.Warn("failed to close recording", zap.Error(err))
		}
	}
	w, err := recording.NewWriter(s.config.Recording.Dir, s.scene, nil)
	if err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	s.recorder = w
	s.logger.Info("recording session", zap.String("dir", w.Directory()), zap.String("id", w.Manifest().ID))
	return nil
}

// frameLocked returns the frame for the current scene, marching only when the scene changed.
// Callers must hold the mutex.
func (s *Server) frameLocked(ctx context.Context, debug bool) (*marcher.Frame, uint64, error) {
	fingerprint := s.scene.Fingerprint()
	if cached, ok := s.cache[debug]; ok && cached.fingerprint == fingerprint {
		return cached.frame, fingerprint, nil
	}

	m := s.plain
	if debug {
		m = s.debug
	}
	frame, err := m.MarchScene(ctx, s.scene)
	if err != nil {
		return nil, 0, err
	}
	s.cache[debug] = cachedFrame{fingerprint: fingerprint, frame: frame}

	if s.recorder != nil {
		if _, err := s.recorder.RecordFrame(fingerprint, frame); err != nil {
			s.logger.Warn("failed to record frame", zap.Error(err))
		}
	}
	return frame, fingerprint, nil
}

// pointerLocked feeds a pointer update to the selector and records the edit.
// Callers must hold the mutex.
func (s *Server) pointerLocked(sel *scene.Selector, p core.Vec2, pressed bool) (scene.Handle, bool, error) {
	if err := sel.Update(s.scene, p, pressed); err != nil {
		return scene.Handle{}, false, err
	}
	h, active := sel.Active()
	if active && s.recorder != nil {
		if err := s.recorder.RecordEdit(h, p); err != nil {
			s.logger.Warn("failed to record edit", zap.Error(err))
		}
	}
	return h, active, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
