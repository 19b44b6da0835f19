package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics Prometheus 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 业务
	ClassroomSyncsTotal  *prometheus.CounterVec
	SubmissionsTotal     prometheus.Counter
	GradesTotal          prometheus.Counter
	AccessDeniedTotal    *prometheus.CounterVec
	EnrollmentPullsTotal *prometheus.CounterVec
}

// New 创建并注册全部指标
// registry 为 nil 时新建独立 Registry，测试间互不干扰
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classroom_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ClassroomSyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_syncs_total",
				Help: "Total number of enrollment sync upserts",
			},
			[]string{"source", "status"},
		),
		SubmissionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classroom_submissions_total",
				Help: "Total number of accepted submissions, resubmissions included",
			},
		),
		GradesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classroom_grades_total",
				Help: "Total number of grading operations",
			},
		),
		AccessDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_access_denied_total",
				Help: "Total number of requests rejected by role or membership checks",
			},
			[]string{"operation"},
		),
		EnrollmentPullsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_enrollment_pulls_total",
				Help: "Total number of scheduled roster pulls from the upstream registrar",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ClassroomSyncsTotal,
		m.SubmissionsTotal,
		m.GradesTotal,
		m.AccessDeniedTotal,
		m.EnrollmentPullsTotal,
	)

	return m
}

// Registry 返回底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
