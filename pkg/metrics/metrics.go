package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for scheduled jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewJobMetrics registers the cron job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamerent_job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerent_job_success_total",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerent_job_failure_total",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveRun records a completed run for the named job.
func (j *JobMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if j == nil || j.duration == nil {
		return
	}
	label := normalizeLabel(job)
	j.duration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		j.failure.WithLabelValues(label).Inc()
		return
	}
	j.success.WithLabelValues(label).Inc()
}

// BookingMetrics counts booking lifecycle events that cross service
// boundaries and are worth alerting on.
type BookingMetrics struct {
	expired   prometheus.Counter
	paid      prometheus.Counter
	checkouts prometheus.Counter
}

// NewBookingMetrics registers the booking lifecycle counters.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gamerent_bookings_expired_total",
		Help: "Approved bookings cancelled because the payment window closed.",
	})
	paid := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gamerent_bookings_paid_total",
		Help: "Bookings transitioned to paid.",
	})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gamerent_checkout_sessions_total",
		Help: "Checkout sessions created against the payment gateway.",
	})
	reg.MustRegister(expired, paid, checkouts)
	return &BookingMetrics{expired: expired, paid: paid, checkouts: checkouts}
}

// IncExpired counts a booking cancelled by the expiration rule.
func (b *BookingMetrics) IncExpired() {
	if b == nil || b.expired == nil {
		return
	}
	b.expired.Inc()
}

// IncPaid counts a successful payment confirmation.
func (b *BookingMetrics) IncPaid() {
	if b == nil || b.paid == nil {
		return
	}
	b.paid.Inc()
}

// IncCheckoutSession counts a checkout session handed to the gateway.
func (b *BookingMetrics) IncCheckoutSession() {
	if b == nil || b.checkouts == nil {
		return
	}
	b.checkouts.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
