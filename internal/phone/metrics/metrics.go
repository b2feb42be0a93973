package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the phone verification module.
// Counts issuances, resends, and verification outcomes, and times the
// verification critical path.
type Metrics struct {
	CodesIssued         prometheus.Counter
	CodesResent         prometheus.Counter
	CodesVerified       prometheus.Counter
	VerificationsFailed *prometheus.CounterVec
	DispatchFailures    prometheus.Counter
	VerifyDuration      prometheus.Histogram
	IssueDuration       prometheus.Histogram
}

// New creates a new Metrics instance with all phone module metrics registered.
func New() *Metrics {
	return &Metrics{
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afridio_otp_codes_issued_total",
			Help: "Total number of security codes issued",
		}),
		CodesResent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afridio_otp_codes_resent_total",
			Help: "Total number of security codes re-dispatched",
		}),
		CodesVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afridio_otp_codes_verified_total",
			Help: "Total number of successful verifications",
		}),
		VerificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afridio_otp_verifications_failed_total",
			Help: "Failed verification attempts by reason",
		}, []string{"reason"}),
		DispatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afridio_otp_dispatch_failures_total",
			Help: "Total number of SMS dispatch failures",
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "afridio_otp_verify_duration_seconds",
			Help:    "Duration of verify operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		IssueDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "afridio_otp_issue_duration_seconds",
			Help:    "Duration of issue operations including SMS dispatch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementIssued records a successful issuance.
func (m *Metrics) IncrementIssued() {
	m.CodesIssued.Inc()
}

// IncrementResent records a re-dispatch of an existing code.
func (m *Metrics) IncrementResent() {
	m.CodesResent.Inc()
}

// IncrementVerified records a successful verification.
func (m *Metrics) IncrementVerified() {
	m.CodesVerified.Inc()
}

// IncrementVerificationFailed records a failed verification attempt.
func (m *Metrics) IncrementVerificationFailed(reason string) {
	m.VerificationsFailed.WithLabelValues(reason).Inc()
}

// IncrementDispatchFailure records a failed SMS dispatch.
func (m *Metrics) IncrementDispatchFailure() {
	m.DispatchFailures.Inc()
}

// ObserveVerify records the duration of a verify operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}

// ObserveIssue records the duration of an issue operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveIssue(start time.Time) {
	m.IssueDuration.Observe(time.Since(start).Seconds())
}
