package recording

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/scene"
)

const (
	manifestFile = "manifest.json"
	sceneFile    = "scene.yaml"
	eventsFile   = "events.jsonl.sz"
	framesFile   = "frames.jsonl.zst"

	// EventEdit records a control point moved to a new position
	EventEdit = "edit"
)

var nameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Manifest describes the recording layout so tooling can locate artefacts
type Manifest struct {
	Version    int    `json:"version"`
	ID         string `json:"id"`
	Scene      string `json:"scene"`
	CreatedAt  string `json:"created_at"`
	ScenePath  string `json:"scene_path"`
	EventsPath string `json:"events_path"`
	FramesPath string `json:"frames_path"`
}

// Event is one edit applied to the scene during a session
type Event struct {
	Seq        uint64       `json:"seq"`
	CapturedAt time.Time    `json:"captured_at"`
	Type       string       `json:"type"`
	Handle     scene.Handle `json:"handle"`
	Position   core.Vec2    `json:"position"`
}

// FrameRecord is one marched frame as stored on disk
type FrameRecord struct {
	Seq         uint64             `json:"seq"`
	CapturedAt  time.Time          `json:"captured_at"`
	Fingerprint uint64             `json:"fingerprint"`
	Stats       marcher.FrameStats `json:"stats"`
	Segments    []core.Segment     `json:"segments"`
}

// Writer streams a session to disk: the starting scene, a snappy-compressed
// event log and a zstd-compressed frame log.
type Writer struct {
	mu          sync.Mutex
	dir         string
	manifest    Manifest
	now         func() time.Time
	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	eventSeq    uint64
	frameSeq    uint64
	lastPrint   uint64
	hasFrame    bool
}

// NewWriter creates a recording directory under root seeded with the current scene state
func NewWriter(root string, s *scene.Scene, clock func() time.Time) (w *Writer, err error) {
	if root == "" {
		return nil, fmt.Errorf("recording root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	sceneData, err := scene.MarshalYAML(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode starting scene: %w", err)
	}

	id := uuid.New()
	name := nameCleaner.ReplaceAllString(s.Name, "")
	if name == "" {
		name = "scene"
	}
	created := clock().UTC()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s-%s", name, created.Format("20060102T150405Z"), id.String()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}
	// No partial recordings are left behind
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, sceneFile), sceneData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write starting scene: %w", err)
	}

	manifest := Manifest{
		Version:    1,
		ID:         id.String(),
		Scene:      s.Name,
		CreatedAt:  created.Format(time.RFC3339Nano),
		ScenePath:  sceneFile,
		EventsPath: eventsFile,
		FramesPath: framesFile,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	eventFile, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}
	frameFile, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		eventFile.Close()
		return nil, fmt.Errorf("failed to create frame log: %w", err)
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventFile.Close()
		frameFile.Close()
		return nil, fmt.Errorf("failed to start frame compressor: %w", err)
	}

	return &Writer{
		dir:         dir,
		manifest:    manifest,
		now:         clock,
		eventFile:   eventFile,
		eventStream: snappy.NewBufferedWriter(eventFile),
		frameFile:   frameFile,
		frameStream: frameStream,
	}, nil
}

// Directory returns the directory backing the recording
func (w *Writer) Directory() string {
	return w.dir
}

// Manifest returns the manifest written for this recording
func (w *Writer) Manifest() Manifest {
	return w.manifest
}

// RecordEdit appends a control point edit to the event log
func (w *Writer) RecordEdit(h scene.Handle, p core.Vec2) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.eventSeq++
	line, err := json.Marshal(Event{
		Seq:        w.eventSeq,
		CapturedAt: w.now().UTC(),
		Type:       EventEdit,
		Handle:     h,
		Position:   p,
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if _, err := w.eventStream.Write(line); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return w.eventStream.Flush()
}

// RecordFrame appends a marched frame. Consecutive frames with the same
// scene fingerprint are stored once. Reports whether the frame was written.
func (w *Writer) RecordFrame(fingerprint uint64, frame *marcher.Frame) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hasFrame && fingerprint == w.lastPrint {
		return false, nil
	}

	w.frameSeq++
	line, err := json.Marshal(FrameRecord{
		Seq:         w.frameSeq,
		CapturedAt:  w.now().UTC(),
		Fingerprint: fingerprint,
		Stats:       frame.Stats,
		Segments:    frame.Segments(),
	})
	if err != nil {
		return false, err
	}
	line = append(line, '\n')
	if _, err := w.frameStream.Write(line); err != nil {
		return false, fmt.Errorf("failed to write frame: %w", err)
	}

	w.hasFrame = true
	w.lastPrint = fingerprint
	return true, nil
}

// Close flushes all buffers and releases file handles, returning the first failure
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(w.eventStream.Close())
	keep(w.eventFile.Close())
	keep(w.frameStream.Close())
	keep(w.frameFile.Close())
	return firstErr
}
