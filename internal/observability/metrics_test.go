package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokistudios/thinker/internal/session"
)

func TestObserveTool(t *testing.T) {
	m := NewMetrics("thinker")
	m.ObserveTool("thought_append", "ok", 2*time.Millisecond)
	m.ObserveTool("thought_append", "ok", time.Millisecond)
	m.ObserveTool("thought_append", "duplicate_sequence", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("thought_append", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("thought_append", "duplicate_sequence")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ToolLatency))
}

func TestObserveThought(t *testing.T) {
	m := NewMetrics("thinker")
	m.ObserveThought(false, false)
	m.ObserveThought(true, true)
	m.ObserveThought(true, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Thoughts.WithLabelValues("main", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Thoughts.WithLabelValues("branch", "true")))
}

func TestTrackSessions(t *testing.T) {
	m := NewMetrics("thinker")
	reg := session.NewRegistry()
	m.TrackSessions("thinker", reg)

	_, err := reg.Create(session.KindFiveWhy)
	require.NoError(t, err)
	_, err = reg.Create(session.KindFiveWhy, session.WithStatus(session.StatusCompleted))
	require.NoError(t, err)

	expected := `
# HELP thinker_sessions Live sessions by kind and status.
# TYPE thinker_sessions gauge
thinker_sessions{kind="dialectical",status="active"} 0
thinker_sessions{kind="dialectical",status="completed"} 0
thinker_sessions{kind="five_why",status="active"} 1
thinker_sessions{kind="five_why",status="completed"} 1
thinker_sessions{kind="scamper",status="active"} 0
thinker_sessions{kind="scamper",status="completed"} 0
thinker_sessions{kind="stepwise",status="active"} 0
thinker_sessions{kind="stepwise",status="completed"} 0
thinker_sessions{kind="thought_graph",status="active"} 0
thinker_sessions{kind="thought_graph",status="completed"} 0
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "thinker_sessions"))
}

func TestHandler(t *testing.T) {
	m := NewMetrics("thinker")
	m.SessionsCreated.WithLabelValues("stepwise").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `thinker_sessions_created_total{kind="stepwise"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
