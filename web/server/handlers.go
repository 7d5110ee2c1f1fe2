package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/render"
	"github.com/df07/go-optics-engine/pkg/scene"
)

// maxSceneBytes bounds uploaded scene documents
const maxSceneBytes = 1 << 20

// MarchResponse is the JSON form of a marched frame
type MarchResponse struct {
	Scene       string             `json:"scene"`
	Fingerprint string             `json:"fingerprint"`
	Stats       marcher.FrameStats `json:"stats"`
	Paths       []marcher.RayPath  `json:"paths"`
}

// HandleInfo is a control point with its current position
type HandleInfo struct {
	scene.Handle
	Position core.Vec2 `json:"position"`
}

// DragRequest is a pointer update from the client
type DragRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Pressed bool    `json:"pressed"`
}

// DragResponse reports the handle being dragged, if any
type DragResponse struct {
	Active bool          `json:"active"`
	Handle *scene.Handle `json:"handle,omitempty"`
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists builtin and file scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleScene returns the live scene as YAML, or replaces it from a YAML body
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		data, err := scene.MarshalYAML(s.scene)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(data)

	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSceneBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next, doc, err := scene.LoadYAML(bytes.NewReader(body))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if doc.Name == "" {
			next.Name = "upload"
		}
		if err := s.replaceScene(next); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"scene": next.Name})

	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

// handleSelectScene switches the live scene to a builtin or file scene
func (s *Server) handleSelectScene(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	name := r.URL.Query().Get("scene")
	next, err := scene.Resolve(name, s.scenesDir, s.config.Bounds.Width, s.config.Bounds.Height)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scene.ErrUnknownScene) || errors.Is(err, scene.ErrInvalidScene) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	if err := s.replaceScene(next); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"scene": next.Name})
}

func (s *Server) replaceScene(next *scene.Scene) error {
	s.mu.Lock()
	s.scene = next
	s.selector = scene.NewSelector()
	s.mu.Unlock()

	s.logger.Info("scene replaced", zap.String("scene", next.Name))
	return s.startRecording()
}

// handleMarch marches the live scene and returns every ray path
func (s *Server) handleMarch(w http.ResponseWriter, r *http.Request) {
	debug, err := parseBoolParam(r.URL.Query(), "debug", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	frame, fingerprint, err := s.frameLocked(r.Context(), debug)
	name := s.scene.Name
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, MarchResponse{
		Scene:       name,
		Fingerprint: fmt.Sprintf("%016x", fingerprint),
		Stats:       frame.Stats,
		Paths:       frame.Paths,
	})
}

// handleRender returns the live scene as a PNG image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	debug, err := parseBoolParam(query, "debug", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	handles, err := parseBoolParam(query, "handles", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	width, err := parseIntParam(query, "width", int(s.config.Bounds.Width), 16, 4096)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := parseIntParam(query, "height", int(s.config.Bounds.Height), 16, 4096)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := render.DefaultOptions()
	opts.Debug = debug
	opts.Handles = handles

	var buf bytes.Buffer
	s.mu.Lock()
	frame, _, err := s.frameLocked(r.Context(), debug)
	if err == nil {
		err = render.WritePNG(&buf, width, height, s.scene, frame, opts)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// handleHandles lists the editable control points of the live scene
func (s *Server) handleHandles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handles := s.scene.Handles()
	infos := make([]HandleInfo, 0, len(handles))
	for _, h := range handles {
		pos, err := s.scene.HandlePosition(h)
		if err != nil {
			continue
		}
		infos = append(infos, HandleInfo{Handle: h, Position: pos})
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleDrag applies a pointer update to the shared selector
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	var req DragRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSceneBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid drag request: %w", err))
		return
	}

	s.mu.Lock()
	h, active, err := s.pointerLocked(s.selector, core.NewVec2(req.X, req.Y), req.Pressed)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	resp := DragResponse{Active: active}
	if active {
		resp.Handle = &h
	}
	writeJSON(w, http.StatusOK, resp)
}
