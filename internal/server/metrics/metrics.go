// Package metrics defines the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulehub_logins_total",
		Help: "Total number of login attempts",
	}, []string{"status"})

	TokensMinted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulehub_tokens_minted_total",
		Help: "Total number of opaque tokens minted",
	}, []string{"kind"})

	TokenValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulehub_token_validations_total",
		Help: "Total number of token validation attempts",
	}, []string{"kind", "status"})

	TokenCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulehub_token_cache_events_total",
		Help: "Access-token cache hits, misses and purges",
	}, []string{"event"})
)
