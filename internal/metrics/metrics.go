// Package metrics exposes Prometheus metrics for the storefront.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var Registry = prometheus.NewRegistry()

var (
	// SeatHoldsTotal counts hold attempts by result: placed|conflict|error.
	SeatHoldsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_holds_total",
			Help:      "Total number of seat hold attempts",
		},
		[]string{"result"},
	)

	SeatsReleasedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seats_released_total",
			Help:      "Total number of seats returned to available",
		},
		[]string{"reason"}, // reason: expired|released|reset
	)

	AdminActionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_actions_total",
			Help:      "Total number of completed admin actions",
		},
		[]string{"action"},
	)

	NewsletterSubscriptionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newsletter_subscriptions_total",
			Help:      "Total number of newsletter subscription attempts",
		},
		[]string{"result"}, // result: subscribed|duplicate|invalid|error
	)

	KafkaMessagesConsumed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_consumed_total",
			Help:      "Total number of consumed Kafka messages",
		},
		[]string{"topic", "result"},
	)
)

// Init registers the Go runtime and process collectors.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
