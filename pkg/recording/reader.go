package recording

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-optics-engine/pkg/scene"
)

// Recording is a session loaded back from disk
type Recording struct {
	Manifest Manifest
	Scene    *scene.Scene // Starting state of the session
	Events   []Event
	Frames   []FrameRecord
}

// Open loads a recording directory written by Writer
func Open(dir string) (*Recording, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	rec := &Recording{}
	if err := json.Unmarshal(data, &rec.Manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	rec.Scene, err = scene.LoadFile(filepath.Join(dir, rec.Manifest.ScenePath))
	if err != nil {
		return nil, err
	}
	rec.Scene.Name = rec.Manifest.Scene

	eventFile, err := os.Open(filepath.Join(dir, rec.Manifest.EventsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer eventFile.Close()
	if err := decodeLines(snappy.NewReader(eventFile), func(dec *json.Decoder) error {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			return err
		}
		rec.Events = append(rec.Events, ev)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	frameFile, err := os.Open(filepath.Join(dir, rec.Manifest.FramesPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open frame log: %w", err)
	}
	defer frameFile.Close()
	frameStream, err := zstd.NewReader(frameFile)
	if err != nil {
		return nil, fmt.Errorf("failed to start frame decompressor: %w", err)
	}
	defer frameStream.Close()
	if err := decodeLines(frameStream, func(dec *json.Decoder) error {
		var fr FrameRecord
		if err := dec.Decode(&fr); err != nil {
			return err
		}
		rec.Frames = append(rec.Frames, fr)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to read frame log: %w", err)
	}

	return rec, nil
}

func decodeLines(r io.Reader, next func(*json.Decoder) error) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	for {
		if err := next(dec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Replay applies every recorded edit to a copy of the starting scene and returns it
func (r *Recording) Replay() (*scene.Scene, error) {
	doc, err := scene.ToDocument(r.Scene)
	if err != nil {
		return nil, err
	}
	s, err := doc.Build()
	if err != nil {
		return nil, err
	}
	for _, ev := range r.Events {
		if ev.Type != EventEdit {
			continue
		}
		if err := s.ApplyHandle(ev.Handle, ev.Position); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
	}
	return s, nil
}
