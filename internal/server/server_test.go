package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeide/forge/internal/agent"
	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/preview"
	"github.com/forgeide/forge/internal/workspace"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelError, Output: io.Discard})
}

func newTestServer(t *testing.T) (*Server, *preview.Pipeline, *workspace.Workspace) {
	t.Helper()
	log := testLogger()
	ws := workspace.Open(workspace.NewStore(t.TempDir()), log)
	cfg := config.Default()
	tr := preview.NewTransformer(cfg.Preview.Externals, log)
	pipe := preview.NewPipeline(ws.Tree, tr, 10*time.Millisecond, log)
	return New(cfg, ws, pipe, log), pipe, ws
}

func TestPreviewServesCurrentDocument(t *testing.T) {
	srv, pipe, ws := newTestServer(t)
	_, err := ws.Tree.EnsurePath("src/main.tsx", "export default function App() { return null }")
	require.NoError(t, err)
	pipe.Rebuild()

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "./src/main.tsx")
}

func TestPreviewBuildsOnDemand(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview", nil))

	// Nothing was built yet; the handler must still produce a page.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
}

func TestIndexServesHostPage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="preview"`)
	assert.Contains(t, rec.Body.String(), "/ws")

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToolsEndpoint(t *testing.T) {
	srv, _, ws := newTestServer(t)

	body, err := json.Marshal(agent.Request{Tool: agent.ToolWriteFile, Path: "src/new.ts", Content: "export {}"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tools", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var res agent.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.OK)

	_, ok := ws.Tree.Resolve("/src/new.ts")
	assert.True(t, ok)
}

func TestToolsEndpointFailures(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tools", strings.NewReader("{broken")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, err := json.Marshal(agent.Request{Tool: agent.ToolReadFile, Path: "missing.ts"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tools", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWebSocketEventsReachConsole(t *testing.T) {
	srv, pipe, _ := newTestServer(t)
	res := pipe.Rebuild()

	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	line := 3
	frames := []SandboxEvent{
		{Kind: EventLog, Message: "hello", Generation: res.Generation},
		{Kind: EventError, Message: "boom", Line: &line, Generation: res.Generation},
		{Kind: EventLog, Message: "stale", Generation: res.Generation + 100},
	}
	for _, ev := range frames {
		frame, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, conn.Write(ctx, websocket.MessageText, frame))
	}

	require.Eventually(t, func() bool {
		return len(srv.Console().Entries()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	entries := srv.Console().Entries()
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, EventError, entries[1].Kind)
	require.NotNil(t, entries[1].Line)
	assert.Equal(t, 3, *entries[1].Line)
}

func TestReloadNoticeBroadcast(t *testing.T) {
	srv, pipe, ws := newTestServer(t)
	pipe.Rebuild()

	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The relay goroutine normally started by Start.
	results := pipe.Subscribe()
	go func() {
		for res := range results {
			srv.notifyReload(res)
		}
	}()

	// Wait for the hub to register the connection before rebuilding.
	require.Eventually(t, func() bool { return srv.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = ws.Tree.EnsurePath("index.js", "console.log('hi')")
	require.NoError(t, err)
	pipe.Rebuild()

	_, frame, err := conn.Read(ctx)
	require.NoError(t, err)

	var notice reloadNotice
	require.NoError(t, json.Unmarshal(frame, &notice))
	assert.Equal(t, "reload", notice.Type)
	assert.NotZero(t, notice.Generation)
}

func TestConsoleEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.Console().Append(SandboxEvent{Kind: EventLog, Message: "buffered", Generation: 1})

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/console", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []ConsoleEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "buffered", entries[0].Message)

	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/console", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, srv.Console().Entries())
}

func TestConsoleRingEviction(t *testing.T) {
	var c Console
	for i := 0; i < consoleCapacity+25; i++ {
		c.Append(SandboxEvent{Kind: EventLog, Message: "m", Generation: 1})
	}
	assert.Len(t, c.Entries(), consoleCapacity)
}

func TestPreviewFollowsEntryChanges(t *testing.T) {
	srv, pipe, ws := newTestServer(t)
	res := pipe.Rebuild()
	require.Equal(t, preview.EntryPlaceholder, res.Entry.Kind)

	_, err := ws.Tree.EnsurePath("index.html", "<html><body>static page</body></html>")
	require.NoError(t, err)
	res = pipe.Rebuild()
	require.Equal(t, preview.EntryDocument, res.Entry.Kind)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview", nil))
	assert.Contains(t, rec.Body.String(), "static page")
}
