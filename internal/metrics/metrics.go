// Package metrics содержит Prometheus-метрики приложения.
// Счетчики регистрируются в DefaultRegisterer и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionCycles количество циклов принятия решений по результату
	DecisionCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aitrade_decision_cycles_total",
		Help: "Total decision cycles executed, labeled by result (ok/error).",
	}, []string{"result"})

	// OrdersExecuted количество исполненных ордеров по режиму
	OrdersExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aitrade_orders_executed_total",
		Help: "Total orders executed, labeled by mode (simulated/live).",
	}, []string{"mode"})

	// OrdersFailed количество ордеров, завершившихся ошибкой биржи
	OrdersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aitrade_orders_failed_total",
		Help: "Total live orders that failed at the exchange.",
	})

	// OrdersRejected количество ордеров, отклоненных оценкой рисков
	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aitrade_orders_rejected_total",
		Help: "Total orders rejected by risk evaluation.",
	})

	// PendingCreated количество решений, поставленных в очередь на подтверждение
	PendingCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aitrade_pending_decisions_total",
		Help: "Total decisions queued for manual approval.",
	})

	// IncidentsTotal количество инцидентов по серьезности
	IncidentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aitrade_incidents_total",
		Help: "Total incidents recorded, labeled by severity.",
	}, []string{"severity"})

	// AIRequestDuration длительность запросов к AI-провайдерам
	AIRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aitrade_ai_request_duration_seconds",
		Help:    "Latency of AI decision requests.",
		Buckets: prometheus.DefBuckets,
	})
)
