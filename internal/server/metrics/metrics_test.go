package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFundingAndPurchaseCounters(t *testing.T) {
	m := New()

	m.FundingOutcome(FundingCredited)
	m.FundingOutcome(FundingCredited)
	m.FundingOutcome(FundingDuplicate)
	m.Purchase(KindData, OutcomeInsufficient)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fundingEvents.WithLabelValues(FundingCredited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fundingEvents.WithLabelValues(FundingDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchases.WithLabelValues(KindData, OutcomeInsufficient)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.FundingOutcome(FundingCredited)
	m.Purchase(KindAirtime, OutcomeSuccess)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/fund/callback", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}).Methods(http.MethodGet)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fund/callback?reference=R"+string(rune('0'+i)), nil))
		require.Equal(t, http.StatusSeeOther, rr.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/fund/callback", http.MethodGet, "303")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.FundingOutcome(FundingInitiated)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `wallet_funding_outcomes_total{outcome="initiated"} 1`), body)
}
