package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Record(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveOutcome("passed")
	r.ObserveOutcome("passed")
	r.ObserveOutcome("authentication_missing")
	r.RecordMatchHit("create-application")
	r.RecordMatchMiss()
	r.SetStubsLoaded(7)
	r.ObserveRequest("POST", 201, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Outcomes.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Outcomes.WithLabelValues("authentication_missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MatchHits.WithLabelValues("create-application")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.MatchMisses))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.StubsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RequestsTotal.WithLabelValues("POST", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RequestDuration))
}

func TestRegistry_Isolated(t *testing.T) {
	t.Parallel()

	a := NewRegistry()
	b := NewRegistry()
	a.ObserveOutcome("passed")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Outcomes.WithLabelValues("passed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Outcomes.WithLabelValues("passed")))
}

func TestRegistry_Nil(t *testing.T) {
	t.Parallel()

	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveOutcome("passed")
		r.ObserveRequest("GET", 200, time.Second)
		r.RecordMatchHit("x")
		r.RecordMatchMiss()
		r.SetStubsLoaded(1)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ObserveOutcome("request_contract_violation")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `contractmock_exchange_outcomes_total{outcome="request_contract_violation"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
