package engine

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractmock/pkg/metrics"
)

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry()
	srv := NewServer(newTestHandler(t), 0, WithServerMetrics(reg))
	require.NoError(t, srv.Start())
	assert.True(t, srv.IsRunning())
	assert.NotZero(t, srv.Port())
	assert.Error(t, srv.Start(), "second start should fail")

	resp, err := http.Get(srv.Addr() + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"pong":true}`, string(body))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("GET", "200")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.False(t, srv.IsRunning())
	assert.NoError(t, srv.Stop(ctx), "stop is idempotent")
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	srv := NewServer(newTestHandler(t), 0, WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(srv.Addr() + "/__contractmock/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestServer_PortInUse(t *testing.T) {
	t.Parallel()

	first := NewServer(newTestHandler(t), 0)
	require.NoError(t, first.Start())
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	second := NewServer(newTestHandler(t), first.Port())
	assert.Error(t, second.Start())
}
