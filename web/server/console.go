package server

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/df07/go-optics-engine/pkg/core"
)

// ConsoleMessage is one line shown in a stream client's console
type ConsoleMessage struct {
	Seq       uint64    `json:"seq"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`             // "info", "warning", "error"
	Dropped   uint64    `json:"dropped,omitempty"` // Lines lost since the previous delivered one
}

// WebLogger implements core.Logger for one stream session. Lines go to the
// session's console queue and are mirrored into the server log.
type WebLogger struct {
	sessionID   string
	consoleChan chan<- ConsoleMessage
	server      core.Logger
	seq         atomic.Uint64
	dropped     atomic.Uint64
}

// NewWebLogger creates the console logger of a stream session
func NewWebLogger(sessionID string, consoleChan chan<- ConsoleMessage, server core.Logger) *WebLogger {
	return &WebLogger{
		sessionID:   sessionID,
		consoleChan: consoleChan,
		server:      server,
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")

	if wl.server != nil {
		wl.server.Printf("%s", message)
	}
	if wl.consoleChan == nil {
		return
	}

	// Claim the pending loss count; it goes back if this line is lost too
	dropped := wl.dropped.Swap(0)
	msg := ConsoleMessage{
		Seq:       wl.seq.Add(1),
		Message:   message,
		Timestamp: time.Now(),
		Level:     "info",
		Dropped:   dropped,
	}
	// A slow client loses lines instead of stalling the session
	select {
	case wl.consoleChan <- msg:
	default:
		wl.dropped.Add(dropped + 1)
	}
}

// Dropped returns how many lines are waiting to be reported as lost
func (wl *WebLogger) Dropped() uint64 {
	return wl.dropped.Load()
}
