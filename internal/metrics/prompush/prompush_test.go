package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcetl/internal/metrics"
)

// readCounterValue reads the current value of a counter for assertions.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	require.NotNil(t, m.GetCounter())
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()
	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	require.True(t, ok)
	require.NoError(t, metric.Write(m))
	require.NotNil(t, m.GetSummary())
	return m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "job", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "cdcetl"},
		{name: "explicit job name is preserved", jobName: "nightly-cases", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly-cases"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, b)
			assert.Equal(t, tt.wantJobName, b.jobName)
			assert.Equal(t, tt.gatewayURL, b.gatewayURL)
		})
	}
}

func TestIncCounterRoutesByName(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("test", "http://pushgateway:9091")
	require.NoError(t, err)

	b.IncCounter("cdcetl_step_total", 1, metrics.Labels{"step": "fetch", "status": "success"})
	b.IncCounter("cdcetl_rows_total", 40, metrics.Labels{"kind": "loaded"})
	b.IncCounter("cdcetl_chunks_total", 1, metrics.Labels{"status": "ok"})
	b.IncCounter("some_unknown_metric", 99, nil)

	assert.Equal(t, float64(1),
		readCounterValue(t, b.stepCounter.WithLabelValues("fetch", "success")))
	assert.Equal(t, float64(40),
		readCounterValue(t, b.rowCounter.WithLabelValues("loaded")))
	assert.Equal(t, float64(1),
		readCounterValue(t, b.chunkCounter.WithLabelValues("ok")))
}

func TestObserveDuration(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("test", "http://pushgateway:9091")
	require.NoError(t, err)

	b.ObserveDuration("cdcetl_step_duration_seconds", 0.25, metrics.Labels{"step": "load", "status": "success"})
	b.ObserveDuration("cdcetl_step_duration_seconds", 0.75, metrics.Labels{"step": "load", "status": "success"})
	b.ObserveDuration("not_a_known_summary", 99, metrics.Labels{"step": "load", "status": "success"})

	count, sum := readSummaryCountSum(t, b.stepDuration, "load", "success")
	assert.Equal(t, uint64(2), count)
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var pushed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed = true
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("test", srv.URL)
	require.NoError(t, err)

	b.IncCounter("cdcetl_rows_total", 10, metrics.Labels{"kind": "fetched"})
	require.NoError(t, b.Flush())
	assert.True(t, pushed)
}
