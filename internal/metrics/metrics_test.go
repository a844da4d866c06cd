package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.ObserveUpstream("list_orders", "ok", 20*time.Millisecond)
	r.Degraded()
	r.ProgressWrite("ok")
	r.Completed()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	assert.Contains(t, out, `woocommerce_requests_total{op="list_orders",outcome="ok"} 1`)
	assert.Contains(t, out, "orders_metadata_degraded_total 1")
	assert.Contains(t, out, `progress_writes_total{outcome="ok"} 1`)
	assert.Contains(t, out, "orders_completed_total 1")
	for _, name := range []string{
		"woocommerce_requests_total",
		"woocommerce_request_seconds",
		"orders_metadata_degraded_total",
		"progress_writes_total",
		"orders_completed_total",
	} {
		assert.Regexp(t, `# HELP `+name+` \S`, out)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveUpstream("get_order", "unavailable", time.Second)
		r.Degraded()
		r.ProgressWrite("error")
		r.Completed()
	})
}
