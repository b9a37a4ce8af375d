package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAndCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRefresh(TriggerUnauthorized, ResultOK)
	m.ObserveRefresh(TriggerUnauthorized, ResultOK)
	m.ObserveRefresh(TriggerProactive, ResultError)
	m.ObserveTeardown()
	m.ObserveRetry(RetryAfterTeardown)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Refresh.WithLabelValues(TriggerUnauthorized, ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Refresh.WithLabelValues(TriggerProactive, ResultError)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Teardown))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retry.WithLabelValues(RetryAfterTeardown)))

	n, err := testutil.GatherAndCount(reg, "taskboard_session_refresh_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_ = New(reg)
	require.Panics(t, func() { _ = New(reg) })
}

func TestNop_Usable(t *testing.T) {
	t.Parallel()

	m := Nop()
	require.NotPanics(t, func() {
		m.ObserveRefresh(TriggerExplicit, ResultOK)
		m.ObserveTeardown()
		m.ObserveRetry(RetryAfterError)
	})
}
