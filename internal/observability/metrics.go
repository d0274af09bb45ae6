package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/neurobridge-assessment/internal/platform/envutil"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

// Metrics is the process-wide metric registry, rendered in Prometheus text format.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *Counter

	storeOps         *CounterVec
	storeLatency     *HistogramVec
	storeConflicts   *CounterVec
	storeUnavailable *CounterVec

	sessionsStarted *Counter
	questionsIssued *CounterVec
	answers         *CounterVec
	completions     *CounterVec
	persistRetries  *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
	mongoUp   *Gauge
	mongoPing *Gauge

	all []collector
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry once. It returns nil when METRICS_ENABLED is off;
// every method on a nil *Metrics is a no-op.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered Metrics value. Tests use it directly.
func New() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("nba_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"nba_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("nba_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("nba_api_requests_error_total", "API requests answered with a 5xx status."),

		storeOps:         NewCounterVec("nba_store_operations_total", "Session store operations by op/status.", []string{"op", "status"}),
		storeLatency:     NewHistogramVec("nba_store_operation_duration_seconds", "Session store latency in seconds by op.", []string{"op"}, nil),
		storeConflicts:   NewCounterVec("nba_store_conflicts_total", "Optimistic concurrency conflicts by op.", []string{"op"}),
		storeUnavailable: NewCounterVec("nba_store_unavailable_total", "Store unavailability errors by op.", []string{"op"}),

		sessionsStarted: NewCounter("nba_sessions_started_total", "Assessment sessions started."),
		questionsIssued: NewCounterVec("nba_questions_issued_total", "Questions issued by policy action.", []string{"action"}),
		answers:         NewCounterVec("nba_answers_total", "Answers graded by correctness.", []string{"correct"}),
		completions:     NewCounterVec("nba_sessions_completed_total", "Completed sessions by completion kind.", []string{"kind"}),
		persistRetries:  NewCounterVec("nba_persist_retries_total", "Session mutations retried after a retryable store error.", []string{"op"}),

		dbStats:   NewGaugeVec("nba_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("nba_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("nba_redis_ping_seconds", "Redis ping latency in seconds."),
		mongoUp:   NewGauge("nba_mongo_up", "MongoDB reachability (1 up, 0 down)."),
		mongoPing: NewGauge("nba_mongo_ping_seconds", "MongoDB ping latency in seconds."),
	}
	m.all = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.storeOps, m.storeLatency, m.storeConflicts, m.storeUnavailable,
		m.sessionsStarted, m.questionsIssued, m.answers, m.completions, m.persistRetries,
		m.dbStats, m.redisUp, m.redisPing, m.mongoUp, m.mongoPing,
	}
	return m
}

func scrapeInterval() time.Duration {
	n := envutil.Int("METRICS_SCRAPE_INTERVAL_SECONDS", 10)
	if n <= 0 {
		n = 10
	}
	return time.Duration(n) * time.Second
}

// StartServer serves the registry on its own listener until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
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
	for _, c := range m.all {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
	if strings.HasPrefix(status, "5") {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStoreOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.Inc(op, status)
	m.storeLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncStoreConflict(op string) {
	if m == nil {
		return
	}
	m.storeConflicts.Inc(op)
}

func (m *Metrics) IncStoreUnavailable(op string) {
	if m == nil {
		return
	}
	m.storeUnavailable.Inc(op)
}

func (m *Metrics) IncSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) IncQuestionIssued(action string) {
	if m == nil {
		return
	}
	m.questionsIssued.Inc(strings.ToLower(strings.TrimSpace(action)))
}

func (m *Metrics) IncAnswer(correct bool) {
	if m == nil {
		return
	}
	m.answers.Inc(strconv.FormatBool(correct))
}

func (m *Metrics) IncCompletion(kind string) {
	if m == nil {
		return
	}
	m.completions.Inc(kind)
}

func (m *Metrics) IncPersistRetry(op string) {
	if m == nil {
		return
	}
	m.persistRetries.Inc(op)
}
