package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokistudios/thinker/internal/observability"
	"github.com/kokistudios/thinker/internal/session"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *session.Registry) {
	t.Helper()
	reg := session.NewRegistry()
	metrics := observability.NewMetrics("thinker")
	metrics.TrackSessions("thinker", reg)
	mcpStub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, r.URL.Path)
	})
	srv := New(mcpStub, reg, metrics, "v1.2.3")
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts, reg
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func TestHealthz(t *testing.T) {
	_, ts, _ := newTestServer(t)

	code, body := getJSON(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "v1.2.3", body["version"])
}

func TestReadyz_ReportsSessionsUntilDraining(t *testing.T) {
	srv, ts, reg := newTestServer(t)
	_, err := reg.Create(session.KindScamper)
	require.NoError(t, err)

	code, body := getJSON(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 1.0, body["sessions"])

	srv.Drain()
	code, body = getJSON(t, ts.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "draining", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, reg := newTestServer(t)
	_, err := reg.Create(session.KindFiveWhy)
	require.NoError(t, err)

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `thinker_sessions{kind="five_why",status="active"} 1`)
}

func TestMCPRouted(t *testing.T) {
	_, ts, _ := newTestServer(t)

	for _, path := range []string{"/mcp", "/mcp/session"} {
		res, err := http.Post(ts.URL+path, "application/json", nil)
		require.NoError(t, err)
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		assert.Equal(t, http.StatusTeapot, res.StatusCode, path)
		assert.Equal(t, path, string(body))
	}
}

func TestUnknownRoute(t *testing.T) {
	_, ts, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
