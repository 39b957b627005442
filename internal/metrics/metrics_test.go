package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Arrival(ArrivalAccepted)
	m.Arrival(ArrivalAccepted)
	m.Arrival(ArrivalSuppressed)
	m.Playback(nil)
	m.Playback(errors.New("boom"))
	m.Restore(RestoreFallback)
	m.QueueDepth(3)
	m.DBQuery("query", "devices", time.Millisecond, nil)
	m.DBQuery("create", "", time.Millisecond, errors.New("locked"))

	if got := testutil.ToFloat64(m.arrivals.WithLabelValues(ArrivalAccepted)); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.playbacks.WithLabelValues("error")); got != 1 {
		t.Errorf("playback errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.restores.WithLabelValues(RestoreFallback)); got != 1 {
		t.Errorf("fallback restores = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 3 {
		t.Errorf("queue depth = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.dbErrors.WithLabelValues("create")); got != 1 {
		t.Errorf("db errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.dbQueries); got != 2 {
		t.Errorf("db query series = %d, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Arrival(ArrivalUnknown)
	m.Playback(nil)
	m.Restore(RestoreSkipped)
	m.QueueDepth(1)
	m.DBQuery("query", "songs", time.Second, nil)
}

func TestHandler(t *testing.T) {
	m := New()
	m.Arrival(ArrivalNoMatch)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `entrance_arrivals_total{result="no_match"} 1`) {
		t.Errorf("metrics output missing arrival counter:\n%s", body)
	}
}
