package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddleware_CountsByStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, scrape(t), `fintrack_http_requests_total{method="GET",status="418"}`)
}

func TestCollectorsAreExposed(t *testing.T) {
	Operation("seed_catalog", "ok")
	CacheResult("miss")
	BreakerState("redis", 2)

	body := scrape(t)
	assert.Contains(t, body, `fintrack_ledger_operations_total{op="seed_catalog",outcome="ok"}`)
	assert.Contains(t, body, `fintrack_cache_requests_total{result="miss"}`)
	assert.Contains(t, body, `fintrack_cache_circuit_state{layer="redis"} 2`)
}
