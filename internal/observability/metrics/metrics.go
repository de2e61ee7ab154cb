package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Voter authentication attempts by method and result.",
		},
		[]string{"method", "result"},
	)

	OTPIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "One-time passcode issuance requests by result.",
		},
		[]string{"result"},
	)

	BallotsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ballots_submitted_total",
			Help: "Ballot submissions by result.",
		},
		[]string{"result"},
	)

	BallotReconciliationRequired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ballot_reconciliation_required_total",
			Help: "Ballot commits whose outcome could not be determined after the voter was marked as voted.",
		},
	)
)

// MustRegister registers every collector with the default registry, adding
// a constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		AuthAttemptsTotal,
		OTPIssuedTotal,
		BallotsSubmittedTotal,
		BallotReconciliationRequired,
	)
}
