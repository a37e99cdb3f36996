package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentsRegisterEverySpecOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "", "")

	counters, histograms := Instruments(r, observability.CounterSpecs, observability.HistogramSpecs)
	require.Len(t, counters, len(observability.CounterSpecs))
	require.Len(t, histograms, len(observability.HistogramSpecs))

	// A second lookup must reuse the registered vector instead of panicking on duplicate registration.
	again := r.Counter(string(observability.MPaymentDecisions), "dup")
	again.Add(1, observability.L("method", "bank_transfer"), observability.L("outcome", "verified"), observability.L("reason", "OK"))
	counters[observability.MPaymentDecisions].Bind(
		observability.L("method", "bank_transfer"), observability.L("outcome", "verified"), observability.L("reason", "OK"),
	).Add(1)

	v, _ := r.(*registry).counters.Load(string(observability.MPaymentDecisions))
	require.InDelta(t, 2, testutil.ToFloat64(v.(*prometheus.CounterVec).WithLabelValues("bank_transfer", "verified", "OK")), 0.0001)
}
