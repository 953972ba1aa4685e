package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus. Экспортируются на /metrics во время run.
var (
	// CacheHits — попадания в content cache по виду операции.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_cache_hits_total",
		Help: "Total content cache hits by operation",
	}, []string{"operation"})

	// CacheMisses — промахи content cache по виду операции.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_cache_misses_total",
		Help: "Total content cache misses by operation",
	}, []string{"operation"})

	// LLMCalls — внешние LLM-вызовы по виду операции.
	// При корректной работе кэша повторные вызовы для того же
	// содержимого этот счётчик не увеличивают.
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_llm_calls_total",
		Help: "Total external LLM calls by operation",
	}, []string{"operation"})

	// NodeDuration — длительность выполнения узлов workflow.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conveyor_node_duration_seconds",
		Help:    "Workflow node execution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"node"})

	// RunsTotal — завершённые runs по терминальному статусу.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_runs_total",
		Help: "Total workflow runs by terminal status",
	}, []string{"status"})

	// DocumentsProcessed — обработанные документы по статусу.
	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_documents_processed_total",
		Help: "Total documents processed by final status",
	}, []string{"status"})
)
