package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	generationDuration *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	diagnosesTotal     *prometheus.CounterVec
	sessionsCreated    prometheus.Counter
	consultationsSaved prometheus.Counter
	alertsTotal        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arogya_generation_duration_seconds",
				Help:    "Latency of generative-language calls by purpose",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"purpose"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arogya_generations_total",
				Help: "Generative-language calls by purpose and outcome",
			},
			[]string{"purpose", "outcome"},
		),
		diagnosesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arogya_diagnoses_total",
				Help: "Diagnoses produced, by source (ai or fallback)",
			},
			[]string{"source"},
		),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arogya_consultation_sessions_created_total",
			Help: "Consultation wizard sessions started",
		}),
		consultationsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arogya_consultations_saved_total",
			Help: "Completed consultations appended to the record store",
		}),
		alertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arogya_referral_alerts_total",
				Help: "Urgent-referral alerts by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.generationDuration,
		m.generationsTotal,
		m.diagnosesTotal,
		m.sessionsCreated,
		m.consultationsSaved,
		m.alertsTotal,
	)
	return m
}

func (m *Metrics) ObserveGeneration(purpose string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.generationDuration.WithLabelValues(purpose).Observe(time.Since(started).Seconds())
	m.generationsTotal.WithLabelValues(purpose, outcome).Inc()
}

func (m *Metrics) DiagnosisProduced(source string) {
	if m == nil {
		return
	}
	m.diagnosesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) ConsultationSaved() {
	if m == nil {
		return
	}
	m.consultationsSaved.Inc()
}

func (m *Metrics) AlertSent(err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.alertsTotal.WithLabelValues(outcome).Inc()
}
