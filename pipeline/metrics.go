package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wavfx"

// Metrics records processor activity. A nil *Metrics records nothing.
type Metrics struct {
	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	framesProcessed prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Total number of processing jobs",
			},
			[]string{"op", "result"}, // result: success, error
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Histogram of processing job duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
		framesProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_processed_total",
				Help:      "Total number of frames run through an effect chain",
			},
		),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.jobsTotal, m.jobDuration, m.framesProcessed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observe(op Op, start time.Time, frames int64, err error) {
	if m == nil {
		return
	}

	result := "success"
	if err != nil {
		result = "error"
	}

	m.jobsTotal.WithLabelValues(op.String(), result).Inc()
	m.jobDuration.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())

	if err == nil && frames > 0 {
		m.framesProcessed.Add(float64(frames))
	}
}
