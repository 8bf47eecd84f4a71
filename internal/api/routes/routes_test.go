package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/relay"
	"chat-relay/internal/ws"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := relay.NewHub(relay.Options{
		JoinTimeout:     time.Second,
		TypingQuiet:     time.Second,
		MaxMessageBytes: 4096,
	}, log)
	handler := ws.NewHandler(hub, ws.Config{SendBufferSize: 32, MaxMessageBytes: 8192, RateLimit: 10, RateBurst: 10}, log)
	r := NewRouter(hub, handler, log)
	r.SetupRoutes()
	return r
}

func TestRootRoute(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	r.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chat Server Running", w.Body.String())
}

func TestHealthzRoute(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/healthz", nil)
	require.NoError(t, err)
	r.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","online":0}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodOptions, "/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	r.GetEngine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
