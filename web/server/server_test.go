package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-optics-engine/pkg/config"
	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
	"github.com/df07/go-optics-engine/pkg/marcher"
	"github.com/df07/go-optics-engine/pkg/recording"
	"github.com/df07/go-optics-engine/pkg/scene"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	srv, err := NewServer(cfg, t.TempDir(), "default", nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func postDrag(t *testing.T, url string, req DragRequest) DragResponse {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/drag", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out DragResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNewServerUnknownScene(t *testing.T) {
	_, err := NewServer(config.Default(), "", "nope", nil)
	assert.ErrorIs(t, err, scene.ErrUnknownScene)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)
	var body map[string]string
	resp := getJSON(t, ts.URL+"/api/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestScenes(t *testing.T) {
	_, ts := newTestServer(t, nil)
	var scenes []scene.SceneInfo
	getJSON(t, ts.URL+"/api/scenes", &scenes)
	assert.Len(t, scenes, len(scene.BuiltinNames()))
}

func TestMarch(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var body MarchResponse
	resp := getJSON(t, ts.URL+"/api/march", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "default", body.Scene)
	assert.Len(t, body.Fingerprint, 16)
	require.Len(t, body.Paths, 1)
	assert.Equal(t, marcher.Escaped, body.Paths[0].Termination)
	assert.Empty(t, body.Paths[0].Steps)

	getJSON(t, ts.URL+"/api/march?debug=true", &body)
	assert.NotEmpty(t, body.Paths[0].Steps)

	resp = getJSON(t, ts.URL+"/api/march?debug=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMarchIsGzipped(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/api/scene/select?scene=fan", "", nil)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/march?debug=true", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err = http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestRender(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/render?width=320&height=180&debug=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 180, img.Bounds().Dy())

	bad, err := http.Get(ts.URL + "/api/render?width=1")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestSceneGetAndPut(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/scene")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "name: default")

	upload := "name: uploaded\nemitters:\n  - position: {x: 10, y: 10}\n    direction: {x: 1, y: 0}\n"
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/scene", strings.NewReader(upload))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	srv.mu.Lock()
	assert.Equal(t, "uploaded", srv.scene.Name)
	assert.Empty(t, srv.scene.Objects)
	srv.mu.Unlock()

	req, err = http.NewRequest(http.MethodPut, ts.URL+"/api/scene", strings.NewReader("objects:\n  - {}\n"))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPut, ts.URL+"/api/scene", strings.NewReader("emitters:\n  - ray_count: 2000000000\n"))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	srv.mu.Lock()
	assert.Equal(t, "uploaded", srv.scene.Name)
	srv.mu.Unlock()
}

func TestSelectScene(t *testing.T) {
	srv, ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/scene/select?scene=fan", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body MarchResponse
	getJSON(t, ts.URL+"/api/march", &body)
	assert.Equal(t, "fan", body.Scene)
	assert.Len(t, body.Paths, 25)

	resp, err = http.Post(ts.URL+"/api/scene/select?scene=nope", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	srv.mu.Lock()
	assert.Equal(t, "fan", srv.scene.Name)
	srv.mu.Unlock()
}

func TestHandlesAndDrag(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var handles []HandleInfo
	getJSON(t, ts.URL+"/api/handles", &handles)
	require.Len(t, handles, 6)
	assert.Equal(t, scene.EmitterTarget, handles[0].Target)
	assert.Equal(t, 640.0, handles[0].Position.X)

	var before MarchResponse
	getJSON(t, ts.URL+"/api/march", &before)

	out := postDrag(t, ts.URL, DragRequest{X: 642, Y: 360, Pressed: true})
	require.True(t, out.Active)
	assert.Equal(t, scene.EmitterTarget, out.Handle.Target)
	postDrag(t, ts.URL, DragRequest{X: 600, Y: 300, Pressed: true})
	out = postDrag(t, ts.URL, DragRequest{X: 600, Y: 300, Pressed: false})
	assert.False(t, out.Active)

	var after MarchResponse
	getJSON(t, ts.URL+"/api/march", &after)
	assert.NotEqual(t, before.Fingerprint, after.Fingerprint)
	assert.Equal(t, 600.0, after.Paths[0].Segments[0].From.X)
}

func TestDragRejectsBadBody(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/api/drag", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordingSession(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Dir = t.TempDir()
	srv, ts := newTestServer(t, cfg)

	getJSON(t, ts.URL+"/api/march", nil)
	postDrag(t, ts.URL, DragRequest{X: 1040, Y: 360, Pressed: true})
	postDrag(t, ts.URL, DragRequest{X: 1000, Y: 400, Pressed: true})
	postDrag(t, ts.URL, DragRequest{X: 1000, Y: 400, Pressed: false})
	getJSON(t, ts.URL+"/api/march", nil)

	srv.mu.Lock()
	dir := srv.recorder.Directory()
	live := srv.scene.Fingerprint()
	srv.mu.Unlock()
	require.NoError(t, srv.Close())

	rec, err := recording.Open(dir)
	require.NoError(t, err)
	assert.Len(t, rec.Events, 2)
	assert.Len(t, rec.Frames, 2)

	replayed, err := rec.Replay()
	require.NoError(t, err)
	assert.Equal(t, live, replayed.Fingerprint())

	entries, err := os.ReadDir(cfg.Recording.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "default-"))
}

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads stream messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestStream(t *testing.T) {
	cfg := config.Default()
	cfg.Server.StreamHz = 100
	_, ts := newTestServer(t, cfg)
	conn := dialStream(t, ts)

	hello := readUntil(t, conn, "hello")
	assert.NotEmpty(t, hello.Session)

	first := readUntil(t, conn, "frame")
	assert.Equal(t, hello.Session, first.Session)
	assert.Equal(t, "default", first.Scene)
	assert.Len(t, first.Segments, 2)
	assert.Len(t, first.Handles, 6)
	assert.Empty(t, first.Steps)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointer", X: 640, Y: 360, Pressed: true}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointer", X: 500, Y: 200, Pressed: true}))

	var moved StreamMessage
	for {
		moved = readUntil(t, conn, "frame")
		if moved.Fingerprint != first.Fingerprint && moved.Segments[0].From.X == 500 {
			break
		}
	}
	assert.Empty(t, moved.Handles, "markers hidden while dragging")
	assert.Greater(t, moved.Seq, first.Seq)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "debug", Enabled: true}))
	console := readUntil(t, conn, "console")
	assert.Contains(t, console.Console.Message, "Debug overlay enabled: true")
	for {
		msg := readUntil(t, conn, "frame")
		if len(msg.Steps) > 0 {
			break
		}
	}
}

// waitConsole reads stream messages until a console line containing text arrives
func waitConsole(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	for {
		msg := readUntil(t, conn, "console")
		if strings.Contains(msg.Console.Message, text) {
			return
		}
	}
}

func TestStreamSceneSwapReleasesDrag(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dialStream(t, ts)
	readUntil(t, conn, "hello")

	// Grab the default scene's circle (object 0) and hold the button
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointer", X: 1040, Y: 360, Pressed: true}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointer", X: 1000, Y: 360, Pressed: true}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "debug", Enabled: true}))
	waitConsole(t, conn, "Debug overlay enabled: true")

	srv.mu.Lock()
	assert.Equal(t, core.NewVec2(1000, 360), srv.scene.Objects[0].Hitbox.(*geometry.Circle).Center)
	srv.mu.Unlock()

	// Object 0 of the uploaded scene is static
	upload := `name: swapped
emitters:
  - position: {x: 100, y: 100}
    direction: {x: 1, y: 0}
    ray_count: 1
objects:
  - static: true
    circle:
      center: {x: 900, y: 300}
      radius: 50
`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/scene", strings.NewReader(upload))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Keep dragging with the button still down
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointer", X: 300, Y: 300, Pressed: true}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointer", X: 110, Y: 100, Pressed: true}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "debug", Enabled: false}))
	waitConsole(t, conn, "Debug overlay enabled: false")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "swapped", srv.scene.Name)
	assert.Equal(t, core.NewVec2(900, 300), srv.scene.Objects[0].Hitbox.(*geometry.Circle).Center)
	assert.Equal(t, core.NewVec2(100, 100), srv.scene.Emitters[0].Position)
}
