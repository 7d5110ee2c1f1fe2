package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/logging"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/scene"
)

const (
	pingInterval     = 30 * time.Second
	writeTimeout     = 10 * time.Second
	maxMessageBytes  = 64 << 10
	timingLogFrames  = 30
	consoleQueueSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientMessage is sent by browsers over the stream
type ClientMessage struct {
	Type    string  `json:"type"` // "pointer" or "debug"
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Pressed bool    `json:"pressed"`
	Enabled bool    `json:"enabled"`
}

// StreamMessage is sent to browsers over the stream
type StreamMessage struct {
	Type        string              `json:"type"` // "hello", "frame", "console" or "error"
	Session     string              `json:"session"`
	Seq         uint64              `json:"seq,omitempty"`
	Scene       string              `json:"scene,omitempty"`
	Fingerprint string              `json:"fingerprint,omitempty"`
	Segments    []core.Segment      `json:"segments,omitempty"`
	Steps       []marcher.Step      `json:"steps,omitempty"`
	Handles     []HandleInfo        `json:"handles,omitempty"`
	Stats       *marcher.FrameStats `json:"stats,omitempty"`
	Console     *ConsoleMessage     `json:"console,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// session is one connected stream client with its own selection state
type session struct {
	id       string
	conn     *websocket.Conn
	selector *scene.Selector
	debug    atomic.Bool
	logger   core.Logger
	console  chan ConsoleMessage
}

// handleStream upgrades to a websocket and streams frames whenever the scene changes
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	id := uuid.NewString()
	console := make(chan ConsoleMessage, consoleQueueSize)
	sess := &session{
		id:       id,
		conn:     conn,
		selector: scene.NewSelector(),
		console:  console,
		logger:   NewWebLogger(id, console, logging.Printer(s.logger.With(zap.String("session", id)), zapcore.InfoLevel)),
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.logger.Info("stream connected", zap.String("session", id), zap.String("remote", r.RemoteAddr))
	defer s.logger.Info("stream closed", zap.String("session", id))

	if err := sess.write(StreamMessage{Type: "hello", Session: id}); err != nil {
		return
	}

	go func() {
		defer cancel()
		s.readLoop(ctx, sess)
	}()

	s.writeLoop(ctx, sess)
}

// readLoop applies client messages until the connection fails
func (s *Server) readLoop(ctx context.Context, sess *session) {
	for {
		var msg ClientMessage
		if err := sess.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "pointer":
			s.mu.Lock()
			_, _, err := s.pointerLocked(sess.selector, core.NewVec2(msg.X, msg.Y), msg.Pressed)
			s.mu.Unlock()
			if err != nil {
				sess.logger.Printf("Edit rejected: %v\n", err)
			}
		case "debug":
			sess.debug.Store(msg.Enabled)
			sess.logger.Printf("Debug overlay enabled: %t\n", msg.Enabled)
		default:
			sess.logger.Printf("Unknown message type %q\n", msg.Type)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// writeLoop pushes frames at the stream rate, console lines as they arrive and keepalive pings
func (s *Server) writeLoop(ctx context.Context, sess *session) {
	interval := time.Duration(float64(time.Second) / s.config.Server.StreamHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	var (
		seq         uint64
		last        frameState
		sent        bool
		marchTotal  time.Duration
		timedFrames int
	)

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-sess.console:
			if err := sess.write(StreamMessage{Type: "console", Session: sess.id, Console: &msg}); err != nil {
				return
			}

		case <-ping.C:
			sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ticker.C:
			msg, state, duration, err := s.frameMessage(ctx, sess, sess.debug.Load())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if err := sess.write(StreamMessage{Type: "error", Session: sess.id, Error: err.Error()}); err != nil {
					return
				}
				continue
			}
			if sent && state == last {
				continue
			}

			seq++
			msg.Seq = seq
			if err := sess.write(msg); err != nil {
				return
			}
			sent, last = true, state

			marchTotal += duration
			timedFrames++
			if timedFrames == timingLogFrames {
				sess.logger.Printf("Sent %d frames, average march %v\n", timedFrames, marchTotal/time.Duration(timedFrames))
				marchTotal, timedFrames = 0, 0
			}
		}
	}
}

// frameState identifies what a frame message shows
type frameState struct {
	fingerprint uint64
	debug       bool
	dragging    bool
}

// frameMessage builds a frame message for the live scene
func (s *Server) frameMessage(ctx context.Context, sess *session, debug bool) (StreamMessage, frameState, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame, fingerprint, err := s.frameLocked(ctx, debug)
	if err != nil {
		return StreamMessage{}, frameState{}, 0, err
	}
	// A scene swapped in since the last pointer update voids the session's grab
	sess.selector.Bind(s.scene)
	_, dragging := sess.selector.Active()

	msg := StreamMessage{
		Type:        "frame",
		Session:     sess.id,
		Scene:       s.scene.Name,
		Fingerprint: fmt.Sprintf("%016x", fingerprint),
		Segments:    frame.Segments(),
		Stats:       &frame.Stats,
	}
	if debug {
		for _, p := range frame.Paths {
			msg.Steps = append(msg.Steps, p.Steps...)
		}
	}
	// Markers are hidden while dragging
	if !dragging {
		for _, h := range s.scene.Handles() {
			if pos, err := s.scene.HandlePosition(h); err == nil {
				msg.Handles = append(msg.Handles, HandleInfo{Handle: h, Position: pos})
			}
		}
	}
	return msg, frameState{fingerprint: fingerprint, debug: debug, dragging: dragging}, frame.Stats.Duration, nil
}

func (sess *session) write(msg StreamMessage) error {
	sess.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return sess.conn.WriteJSON(msg)
}
