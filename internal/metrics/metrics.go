package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage run outcomes recorded in StageRuns.
const (
	OutcomeOK       = "ok"
	OutcomeLockSkip = "lock_skip"
	OutcomeStale    = "stale"
	OutcomeDataGap  = "data_gap"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the pipeline workers.
type Metrics struct {
	StageRuns    *prometheus.CounterVec // labels: stage, outcome
	StageRunDur  *prometheus.HistogramVec
	LockAcquires *prometheus.CounterVec // labels: result=acquired|contended

	IndicatorComputeDur prometheus.Histogram
	IndicatorsComputed  prometheus.Counter

	SignalsPersisted prometheus.Counter
	PlansCreated     prometheus.Counter
	PlansDuplicate   prometheus.Counter
	PlansDiscarded   prometheus.Counter
	PlansPlaced      prometheus.Counter

	QueuePolls    *prometheus.CounterVec // labels: result=message|empty|error
	PublishErrors prometheus.Counter
	SweepTicks    prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_runs_total",
			Help: "Stage invocations by stage and outcome",
		}, []string{"stage", "outcome"}),
		StageRunDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_run_duration_seconds",
			Help:    "Stage handler latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		LockAcquires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_lock_acquires_total",
			Help: "Lock acquisition attempts by result",
		}, []string{"result"}),

		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_indicator_compute_duration_seconds",
			Help:    "Full indicator battery latency per symbol x interval",
			Buckets: prometheus.DefBuckets,
		}),
		IndicatorsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_indicators_computed_total",
			Help: "Indicator tuples written to the cache record",
		}),

		SignalsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_signals_persisted_total",
			Help: "Strategy signal rows inserted",
		}),
		PlansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_plans_created_total",
			Help: "Plans inserted",
		}),
		PlansDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_plans_duplicate_total",
			Help: "Plan inserts that lost the uniqueness race",
		}),
		PlansDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_plans_discarded_total",
			Help: "Plans rejected by placement re-validation",
		}),
		PlansPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_plans_placed_total",
			Help: "Plans delegated to the execution collaborator",
		}),

		QueuePolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_queue_polls_total",
			Help: "Durable queue polls by result",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_publish_errors_total",
			Help: "Broker publish failures",
		}),
		SweepTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_sweep_ticks_total",
			Help: "Scheduler self-healing sweeps fired",
		}),
	}

	prometheus.MustRegister(
		m.StageRuns,
		m.StageRunDur,
		m.LockAcquires,
		m.IndicatorComputeDur,
		m.IndicatorsComputed,
		m.SignalsPersisted,
		m.PlansCreated,
		m.PlansDuplicate,
		m.PlansDiscarded,
		m.PlansPlaced,
		m.QueuePolls,
		m.PublishErrors,
		m.SweepTicks,
	)

	return m
}

// HealthStatus represents worker health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected    bool
	PostgresOK        bool
	RedisLatencyMs    float64
	PostgresLatencyMs float64
	LastCheckAt       time.Time
	StartedAt         time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckPostgres pings the store of record and records latency + health.
func (h *HealthStatus) CheckPostgres(ctx context.Context, db *sqlx.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.PostgresOK = err == nil
	h.PostgresLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sqlx.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckPostgres(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.RedisConnected || !h.PostgresOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.PostgresOK {
		overallStatus = "unhealthy"
	}

	status := struct {
		Status            string  `json:"status"`
		Uptime            string  `json:"uptime"`
		RedisConnected    bool    `json:"redis_connected"`
		RedisLatencyMs    float64 `json:"redis_latency_ms"`
		PostgresOK        bool    `json:"postgres_ok"`
		PostgresLatencyMs float64 `json:"postgres_latency_ms"`
		LastCheckAt       string  `json:"last_check_at"`
	}{
		Status:            overallStatus,
		Uptime:            time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:    h.RedisConnected,
		RedisLatencyMs:    h.RedisLatencyMs,
		PostgresOK:        h.PostgresOK,
		PostgresLatencyMs: h.PostgresLatencyMs,
		LastCheckAt:       h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
