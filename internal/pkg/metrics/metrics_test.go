package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(Run{
		Mode:       ModeCommit,
		State:      "partially_succeeded",
		Backtracks: 4,
		Duration:   150 * time.Millisecond,
		Unassigned: map[string]int{"classroom_conflict": 2, "timed out": 1},
	})
	m.ObserveRun(Run{Mode: ModePreview, State: "succeeded", Backtracks: 1})
	m.ObserveLockContention()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ModeCommit, "partially_succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(ModePreview, "succeeded")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.backtracks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unassigned.WithLabelValues("classroom_conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockBusy))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun(Run{Mode: ModePreview, State: "succeeded"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scheduler_runs_total{mode="preview",state="succeeded"} 1`)
}
