// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkfro"

var (
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	RoleResolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_resolutions_total",
		Help:      "Resolved caller roles.",
	}, []string{"role"})

	IdentityLookupFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_lookup_failures_total",
		Help:      "Identity provider lookups that failed and degraded to least privilege.",
	})

	ListingTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_transitions_total",
		Help:      "Website listing status transitions by event and resulting status.",
	}, []string{"event", "status"})

	ConflictResolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflict_resolutions_total",
		Help:      "Price conflict resolutions by outcome.",
	}, []string{"outcome"})

	PurchaseTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_transitions_total",
		Help:      "Purchase status changes by resulting status.",
	}, []string{"status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
