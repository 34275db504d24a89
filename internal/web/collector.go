package web

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/status"
)

// StatusCollector exposes the tracker state as Prometheus metrics, read at
// scrape time.
type StatusCollector struct {
	tracker *status.Tracker

	frequency    *prometheus.Desc
	errorHz      *prometheus.Desc
	accuracy     *prometheus.Desc
	stddev       *prometheus.Desc
	nominal      *prometheus.Desc
	measurements *prometheus.Desc
	failures     *prometheus.Desc
	uptime       *prometheus.Desc
}

// NewStatusCollector creates a collector over the given tracker.
func NewStatusCollector(tracker *status.Tracker) *StatusCollector {
	return &StatusCollector{
		tracker: tracker,
		frequency: prometheus.NewDesc("mains_frequency_hz",
			"Latest mean frequency estimate.", nil, nil),
		errorHz: prometheus.NewDesc("mains_error_hz",
			"Absolute error of the latest estimate against the target frequency.", nil, nil),
		accuracy: prometheus.NewDesc("mains_accuracy_percent",
			"Accuracy of the latest estimate relative to the target frequency.", nil, nil),
		stddev: prometheus.NewDesc("mains_frequency_stddev_hz",
			"Sample standard deviation of the latest estimate.", nil, nil),
		nominal: prometheus.NewDesc("mains_signal_nominal",
			"1 when the latest verdict is NOMINAL, 0 otherwise.", nil, nil),
		measurements: prometheus.NewDesc("mains_measurements_total",
			"Completed measurement rounds.", nil, nil),
		failures: prometheus.NewDesc("mains_measurement_failures_total",
			"Failed measurement rounds.", nil, nil),
		uptime: prometheus.NewDesc("mains_uptime_seconds",
			"Daemon uptime.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.frequency
	ch <- c.errorHz
	ch <- c.accuracy
	ch <- c.stddev
	ch <- c.nominal
	ch <- c.measurements
	ch <- c.failures
	ch <- c.uptime
}

// Collect implements prometheus.Collector.
func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()

	if snap.HaveReading {
		ch <- prometheus.MustNewConstMetric(c.frequency, prometheus.GaugeValue, snap.Estimate.Mean)
		ch <- prometheus.MustNewConstMetric(c.errorHz, prometheus.GaugeValue, snap.Verdict.ErrorHz)
		ch <- prometheus.MustNewConstMetric(c.accuracy, prometheus.GaugeValue, snap.Verdict.AccuracyPct)
		ch <- prometheus.MustNewConstMetric(c.stddev, prometheus.GaugeValue, snap.Estimate.StdDev)

		nominal := 0.0
		if snap.Verdict.Quality == classify.Nominal {
			nominal = 1
		}
		ch <- prometheus.MustNewConstMetric(c.nominal, prometheus.GaugeValue, nominal)
	}

	ch <- prometheus.MustNewConstMetric(c.measurements, prometheus.CounterValue, float64(snap.Measurements))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(snap.Failures))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, snap.Uptime().Seconds())
}
