package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	require.NoError(t, err)

	collector.Observe("get", "users", 3*time.Millisecond, nil)
	collector.Observe("get", "users", 5*time.Millisecond, errors.New("boom"))
	collector.Observe("scan", "orders", time.Millisecond, nil)

	require.Equal(t, 1.0, testutil.ToFloat64(collector.errors.WithLabelValues("get", "users")))
	require.Equal(t, 0.0, testutil.ToFloat64(collector.errors.WithLabelValues("scan", "orders")))
	require.Equal(t, 2, testutil.CollectAndCount(collector.latency))

	_, err = NewCollector(reg)
	require.Error(t, err)
}

func TestCollectorUnregistered(t *testing.T) {
	first, err := NewCollector(nil)
	require.NoError(t, err)
	second, err := NewCollector(nil)
	require.NoError(t, err)
	first.Observe("put", "users", time.Millisecond, nil)
	second.Observe("put", "users", time.Millisecond, nil)
}
