package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Joseda-hg/studyboard/internal/calendar"
	"github.com/Joseda-hg/studyboard/internal/db"
	"github.com/Joseda-hg/studyboard/internal/planner"
)

type metrics struct {
	store    *db.Store
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tasks           *prometheus.GaugeVec
	currentStreak   prometheus.Gauge
	longestStreak   prometheus.Gauge
	sessionsToday   prometheus.Gauge
}

func newMetrics(store *db.Store) *metrics {
	m := &metrics{
		store:    store,
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studyboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		tasks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "studyboard_tasks",
				Help: "Tasks per triage bucket",
			},
			[]string{"bucket"},
		),
		currentStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "studyboard_current_streak_days",
			Help: "Consecutive studied days ending today",
		}),
		longestStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "studyboard_longest_streak_days",
			Help: "Longest run of consecutive studied days",
		}),
		sessionsToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "studyboard_pomodoro_sessions_today",
			Help: "Pomodoro sessions completed today",
		}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.tasks, m.currentStreak, m.longestStreak, m.sessionsToday)
	return m
}

// instrument counts requests by route pattern rather than raw path so ids do
// not create new series.
func (m *metrics) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) handler() http.Handler {
	metricsHandler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.refresh(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		metricsHandler.ServeHTTP(w, r)
	})
}

// refresh recomputes the domain gauges from the store on every scrape.
func (m *metrics) refresh(ctx context.Context) error {
	today := m.store.Today()

	tasks, err := m.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	buckets := planner.Partition(tasks, today)
	for _, bucket := range []planner.Bucket{planner.BucketOverdue, planner.BucketDueToday, planner.BucketUpcoming, planner.BucketCompleted} {
		m.tasks.WithLabelValues(string(bucket)).Set(float64(len(buckets.Get(bucket))))
	}

	studied, err := m.store.StudiedDates(ctx)
	if err != nil {
		return err
	}
	m.currentStreak.Set(float64(calendar.CurrentStreak(studied, today)))
	m.longestStreak.Set(float64(calendar.LongestStreak(studied)))

	sessions, err := m.store.PomodoroSessions(ctx)
	if err != nil {
		return err
	}
	m.sessionsToday.Set(float64(sessions[today]))
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
