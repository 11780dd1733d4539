package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutor_connect",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutor_connect",
			Name:      "booking_transitions_total",
			Help:      "Applied booking state transitions.",
		},
		[]string{"event", "to"},
	)

	domainErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutor_connect",
			Name:      "domain_errors_total",
			Help:      "Errors returned to clients by kind.",
		},
		[]string{"kind"},
	)

	directoryCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutor_connect",
			Name:      "directory_cache_total",
			Help:      "Tutor directory cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers the collectors with the default registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, domainErrors, directoryCache)
	})
}

func IncHTTP(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func IncTransition(event, to string) {
	bookingTransitions.WithLabelValues(event, to).Inc()
}

func IncError(kind string) {
	domainErrors.WithLabelValues(kind).Inc()
}

func IncCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	directoryCache.WithLabelValues(result).Inc()
}
