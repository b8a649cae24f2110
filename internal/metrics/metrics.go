package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_signups_total",
			Help: "Total number of signup requests by outcome",
		},
		[]string{"outcome"}, // "created", "resent"
	)

	ReviewsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yamdb_reviews_created_total",
			Help: "Total number of reviews created",
		},
	)

	Conflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_conflicts_total",
			Help: "Total number of writes rejected by a uniqueness rule",
		},
		[]string{"resource"},
	)

	MailFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yamdb_mail_failures_total",
			Help: "Total number of confirmation mails that could not be delivered",
		},
	)
)

// RecordHTTPRequest records a served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordSignup(resent bool) {
	if resent {
		Signups.WithLabelValues("resent").Inc()
		return
	}
	Signups.WithLabelValues("created").Inc()
}

func RecordConflict(resource string) {
	Conflicts.WithLabelValues(resource).Inc()
}

func RecordReviewCreated() {
	ReviewsCreated.Inc()
}

func RecordMailFailure() {
	MailFailures.Inc()
}
