package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBackendCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBackendCall("me", OutcomeSuccess, 10*time.Millisecond)
	m.ObserveBackendCall("me", OutcomeUnauthorized, 5*time.Millisecond)
	m.ObserveBackendCall("me", OutcomeUnauthorized, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("me", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("me", OutcomeUnauthorized)))

	count, err := testutil.GatherAndCount(reg, "myapp_backend_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetActiveSessions(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetActiveSessions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))

	m.SetActiveSessions(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeSessions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackendCall("login", OutcomeError, time.Second)
		m.SetActiveSessions(1)
	})
}
