// Package metrics registra las métricas Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal cuenta intentos de login por resultado ("ok" | "denied").
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "janus",
		Name:      "logins_total",
		Help:      "Intentos de login por resultado.",
	}, []string{"result"})

	// TokensIssuedTotal cuenta tokens emitidos por tipo ("access" | "refresh").
	TokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "janus",
		Name:      "tokens_issued_total",
		Help:      "Tokens emitidos por tipo.",
	}, []string{"type"})

	// RevocationsTotal cuenta revocaciones nuevas escritas al denylist.
	RevocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "janus",
		Name:      "revocations_total",
		Help:      "Revocaciones nuevas escritas al denylist.",
	})

	// AccessDeniedTotal cuenta checks de permisos que terminaron en Forbidden.
	AccessDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "janus",
		Name:      "access_denied_total",
		Help:      "Checks de permisos rechazados.",
	})

	// HTTPRequestDuration observa latencia por ruta y status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "janus",
		Name:      "http_request_duration_seconds",
		Help:      "Duración de requests HTTP.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
