package viewer

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/recording"
	"github.com/df07/go-optics-engine/pkg/render"
	"github.com/df07/go-optics-engine/pkg/scene"
)

const (
	frameInterval   = 33 * time.Millisecond // ~30 FPS
	timingLogFrames = 30
)

// Viewer shows a scene in the terminal and edits it with the mouse
type Viewer struct {
	screen   tcell.Screen
	canvas   *TermCanvas
	scene    *scene.Scene
	marcher  *marcher.Marcher
	selector *scene.Selector
	logger   core.Logger
	recorder *recording.Writer

	debug       bool
	frames      int
	marchTotal  time.Duration
	fingerprint uint64
	lastFrame   *marcher.Frame
}

// New creates a viewer on an initialized screen
func New(screen tcell.Screen, s *scene.Scene, config marcher.Config, logger core.Logger) *Viewer {
	config.RecordSteps = true
	screen.EnableMouse()
	return &Viewer{
		screen:   screen,
		canvas:   NewTermCanvas(screen, config.Width, config.Height),
		scene:    s,
		marcher:  marcher.NewMarcher(config, nil),
		selector: scene.NewSelector(),
		logger:   logger,
	}
}

// SetRecorder records edits and frames of the session
func (v *Viewer) SetRecorder(w *recording.Writer) {
	v.recorder = w
}

// Debug reports whether the step overlay is shown
func (v *Viewer) Debug() bool {
	return v.debug
}

// Scene returns the scene being edited
func (v *Viewer) Scene() *scene.Scene {
	return v.scene
}

// HandleEvent applies one terminal event. It returns false when the viewer should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
		if ev.Key() == tcell.KeyTab {
			v.debug = !v.debug
			v.logger.Printf("Debug overlay enabled: %t\n", v.debug)
		}

	case *tcell.EventMouse:
		col, row := ev.Position()
		pressed := ev.Buttons()&tcell.Button1 != 0
		pointer := v.canvas.ToWorld(col, row)
		if err := v.selector.Update(v.scene, pointer, pressed); err != nil {
			v.logger.Printf("Edit rejected: %v\n", err)
			break
		}
		if h, active := v.selector.Active(); active && v.recorder != nil {
			if err := v.recorder.RecordEdit(h, pointer); err != nil {
				v.logger.Printf("Failed to record edit: %v\n", err)
			}
		}

	case *tcell.EventResize:
		v.screen.Sync()
		v.canvas.Resize()
	}
	return true
}

// Step marches the scene if it changed and redraws the screen
func (v *Viewer) Step(ctx context.Context) error {
	fingerprint := v.scene.Fingerprint()
	if v.lastFrame == nil || fingerprint != v.fingerprint {
		frame, err := v.marcher.MarchScene(ctx, v.scene)
		if err != nil {
			return err
		}
		v.lastFrame, v.fingerprint = frame, fingerprint

		if v.recorder != nil {
			if _, err := v.recorder.RecordFrame(fingerprint, frame); err != nil {
				v.logger.Printf("Failed to record frame: %v\n", err)
			}
		}

		v.frames++
		v.marchTotal += frame.Stats.Duration
		if v.frames%timingLogFrames == 0 {
			v.logger.Printf("Marched %d frames, average %v per frame\n", timingLogFrames, v.marchTotal/timingLogFrames)
			v.marchTotal = 0
		}
	}

	_, dragging := v.selector.Active()
	v.screen.Clear()
	render.DrawFrame(v.canvas, v.scene, v.lastFrame, render.Options{
		Debug:        v.debug,
		Handles:      !dragging,
		MarkerRadius: 1,
	})
	v.screen.Show()
	return nil
}

// Run polls terminal events and redraws on a fixed tick until quit or cancellation
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go v.pollEvents(ctx, eventChan)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-eventChan:
			if !ok || !v.HandleEvent(ev) {
				return nil
			}

		case <-ticker.C:
			if err := v.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or ctx ends
func (v *Viewer) pollEvents(ctx context.Context, out chan<- tcell.Event) {
	defer close(out)
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			// Screen finalized
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
