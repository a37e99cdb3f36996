package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MPaymentDecisions        MetricKey = "payment_decisions_total"
	MDeliveryResolutions     MetricKey = "delivery_resolutions_total"
	MAuditEvents             MetricKey = "audit_events_total"
)

// MetricSpec describes how a metric key is registered with the backing registry.
type MetricSpec struct {
	Key     MetricKey
	Help    string
	Labels  []string
	Buckets []float64
}

// CounterSpecs lists every counter the service emits.
var CounterSpecs = []MetricSpec{
	{Key: MUsecaseRequests, Help: "Total number of use case invocations.", Labels: []string{"use_case", "outcome"}},
	{Key: MHTTPRequests, Help: "Total number of HTTP requests.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequests, Help: "Calls to collaborators outside the process.", Labels: []string{"peer", "endpoint", "outcome"}},
	{Key: MPaymentDecisions, Help: "Verification decisions by method and reason.", Labels: []string{"method", "outcome", "reason"}},
	{Key: MDeliveryResolutions, Help: "Delivery token resolutions by outcome.", Labels: []string{"outcome"}},
	{Key: MAuditEvents, Help: "Audit events persisted by type.", Labels: []string{"event", "outcome"}},
}

// HistogramSpecs lists every histogram the service emits. Nil buckets mean prometheus.DefBuckets.
var HistogramSpecs = []MetricSpec{
	{Key: MUsecaseDuration, Help: "Duration of use case execution in seconds.", Labels: []string{"use_case"}},
	{Key: MHTTPRequestDuration, Help: "Duration of HTTP requests in seconds.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequestDuration, Help: "Duration of collaborator calls in seconds.", Labels: []string{"peer", "endpoint"}},
}
