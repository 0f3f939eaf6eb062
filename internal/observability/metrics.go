package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
	"github.com/yungbote/resourcehub-backend/internal/platform/envutil"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	aggregateOps  *CounterVec
	aggregateDur  *HistogramVec
	aggregateConf *CounterVec
	aggregateRetr *CounterVec
	llmRequests   *CounterVec
	llmLatency    *HistogramVec
	vectorOps     *CounterVec
	storeOps      *CounterVec
	storeDur      *HistogramVec
	storeActive   *GaugeVec
	outboxTasks   *CounterVec
	outboxDepth   *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Enabled reports METRICS_ENABLED.
func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry. It returns nil when metrics are off;
// every method is nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// NewMetrics returns an unregistered registry.
func NewMetrics() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests:   NewCounterVec("rh_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:    NewHistogramVec("rh_api_request_duration_seconds", "API latency by method/route.", []string{"method", "route"}, latency),
		apiInflight:   NewGauge("rh_api_inflight_requests", "In-flight API requests."),
		aggregateOps:  NewCounterVec("rh_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"op", "status"}),
		aggregateDur:  NewHistogramVec("rh_aggregate_operation_duration_seconds", "Aggregate write latency.", []string{"op"}, latency),
		aggregateConf: NewCounterVec("rh_aggregate_conflicts_total", "Aggregate writes ending in conflict.", []string{"op"}),
		aggregateRetr: NewCounterVec("rh_aggregate_retryable_total", "Aggregate writes ending retryable.", []string{"op"}),
		llmRequests:   NewCounterVec("rh_llm_requests_total", "Model calls by operation/status.", []string{"op", "status"}),
		llmLatency:    NewHistogramVec("rh_llm_request_duration_seconds", "Model call latency.", []string{"op"}, latency),
		vectorOps:     NewCounterVec("rh_vector_operations_total", "Vector index calls by op/status.", []string{"op", "status"}),
		storeOps:      NewCounterVec("rh_vector_store_operations_total", "Vector store calls by provider/op/status.", []string{"provider", "op", "status"}),
		storeDur:      NewHistogramVec("rh_vector_store_operation_duration_seconds", "Vector store latency by provider/op.", []string{"provider", "op"}, latency),
		storeActive:   NewGaugeVec("rh_vector_store_provider_active", "1 for the selected vector store provider.", []string{"provider"}),
		outboxTasks:   NewCounterVec("rh_vector_outbox_tasks_total", "Processed outbox tasks by op/outcome.", []string{"op", "outcome"}),
		outboxDepth:   NewGaugeVec("rh_vector_outbox_depth", "Outbox rows by status.", []string{"status"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateDur, m.aggregateConf, m.aggregateRetr,
		m.llmRequests, m.llmLatency, m.vectorOps,
		m.storeOps, m.storeDur, m.storeActive,
		m.outboxTasks, m.outboxDepth,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateDur.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConf.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetr.Inc(op)
}

func (m *Metrics) ObserveLLM(op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(op, statusOf(err))
	m.llmLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) ObserveVector(op string, err error) {
	if m == nil {
		return
	}
	m.vectorOps.Inc(op, statusOf(err))
}

func (m *Metrics) ObserveVectorStore(provider, op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.Inc(provider, op, statusOf(err))
	m.storeDur.Observe(dur.Seconds(), provider, op)
}

func (m *Metrics) SetVectorStoreProvider(provider string) {
	if m == nil {
		return
	}
	for _, p := range []string{"pinecone", "sqvect", "disabled"} {
		m.storeActive.Set(0, p)
	}
	m.storeActive.Set(1, provider)
}

// ObserveOutboxTask records one processed task; outcome is done, retry or dead.
func (m *Metrics) ObserveOutboxTask(op, outcome string) {
	if m == nil {
		return
	}
	m.outboxTasks.Inc(op, outcome)
}

// StartOutboxCollector samples outbox depth per status every interval.
func (m *Metrics) StartOutboxCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	statuses := []string{jobs.VectorSyncStatusPending, jobs.VectorSyncStatusRunning, jobs.VectorSyncStatusDone, jobs.VectorSyncStatusDead}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var rows []struct {
					Status string
					Count  int64
				}
				if err := db.WithContext(ctx).
					Model(&jobs.VectorSyncTask{}).
					Select("status, count(*) as count").
					Group("status").
					Scan(&rows).Error; err != nil {
					if log != nil {
						log.Warn("metrics: outbox depth query failed", "error", err)
					}
					continue
				}
				for _, s := range statuses {
					m.outboxDepth.Set(0, s)
				}
				for _, row := range rows {
					m.outboxDepth.Set(float64(row.Count), strings.TrimSpace(row.Status))
				}
			}
		}
	}()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
