// Package config defines daemon configuration and loading.
// Values are layered: defaults, then an optional YAML file, then
// MAINS_-prefixed environment variables.
package config

import (
	"time"

	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/gpio"
)

// Config is the full daemon configuration.
type Config struct {
	Hardware Hardware `koanf:"hardware"`

	// PulsesPerCycle is the number of detectable edges the sensing
	// hardware produces per AC waveform cycle. A calibration constant.
	PulsesPerCycle int `koanf:"pulses_per_cycle"`

	Measurement Measurement `koanf:"measurement"`
	Restart     Restart     `koanf:"restart"`
	HealthCheck HealthCheck `koanf:"health_check"`
	MQTT        MQTT        `koanf:"mqtt"`
	HTTP        HTTP        `koanf:"http"`
	Alerts      Alerts      `koanf:"alerts"`
}

// Hardware holds pin assignments (BCM numbering). The pin identifiers are
// opaque to the measurement core.
type Hardware struct {
	GPIOPin   int `koanf:"gpio_pin"`
	ButtonPin int `koanf:"button_pin"`
	LEDGreen  int `koanf:"led_green"`
	LEDRed    int `koanf:"led_red"`
}

// Measurement configures the estimation pipeline.
type Measurement struct {
	// WindowDuration is one sampling window, in seconds.
	WindowDuration float64 `koanf:"window_duration"`

	// SampleCount is the number of back-to-back windows per estimate.
	SampleCount int `koanf:"sample_count"`

	// DebounceInterval filters spurious transitions, in seconds.
	// 0 disables debouncing for maximum accuracy.
	DebounceInterval float64 `koanf:"debounce_interval"`

	// PollInterval is an optional sleep between line reads, in seconds.
	// 0 polls as fast as possible.
	PollInterval float64 `koanf:"poll_interval"`

	// Interval is the pause between measurement rounds, in seconds.
	Interval float64 `koanf:"interval"`

	// TargetHz is the expected line frequency.
	TargetHz float64 `koanf:"target_hz"`

	// Direction selects which edges to count: rising, falling, or both.
	Direction string `koanf:"direction"`

	// WeakEdgeThreshold is the total edge count below which a present but
	// sparse signal is classified as weak.
	WeakEdgeThreshold int `koanf:"weak_edge_threshold"`

	// CalibrationPolicy is first_match or best_match.
	CalibrationPolicy string `koanf:"calibration_policy"`

	// Bands are the nominal frequency bands.
	Bands []BandConfig `koanf:"bands"`
}

// BandConfig is one nominal band in the config file.
type BandConfig struct {
	Low  float64 `koanf:"low"`
	High float64 `koanf:"high"`
}

// Restart configures the restart-button safety gate.
type Restart struct {
	CooldownSeconds float64 `koanf:"cooldown_seconds"`
	MaxPerHour      int     `koanf:"max_per_hour"`
}

// HealthCheck configures the periodic outbound status reporter.
type HealthCheck struct {
	Enabled         bool    `koanf:"enabled"`
	EndpointURL     string  `koanf:"endpoint_url"`
	IntervalSeconds float64 `koanf:"interval_seconds"`
	TimeoutSeconds  float64 `koanf:"timeout_seconds"`
}

// MQTT configures event publishing.
type MQTT struct {
	Enabled bool   `koanf:"enabled"`
	Broker  string `koanf:"broker"`
}

// HTTP configures the status dashboard.
type HTTP struct {
	Addr string `koanf:"addr"`
}

// Alerts configures system health alerting thresholds.
type Alerts struct {
	Enabled              bool    `koanf:"enabled"`
	MemoryWarningPercent float64 `koanf:"memory_warning_percent"`
	CPUWarningPercent    float64 `koanf:"cpu_warning_percent"`
	DiskWarningPercent   float64 `koanf:"disk_warning_percent"`
	CooldownSeconds      float64 `koanf:"cooldown_seconds"`
	IntervalSeconds      float64 `koanf:"interval_seconds"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Hardware: Hardware{
			GPIOPin:   gpio.DefaultSignalPin,
			ButtonPin: gpio.DefaultButtonPin,
			LEDGreen:  gpio.DefaultGreenPin,
			LEDRed:    gpio.DefaultRedPin,
		},
		PulsesPerCycle: 2,
		Measurement: Measurement{
			WindowDuration:    1.0,
			SampleCount:       3,
			DebounceInterval:  0,
			PollInterval:      0,
			Interval:          5.0,
			TargetHz:          60.0,
			Direction:         "falling",
			WeakEdgeThreshold: 10,
			CalibrationPolicy: string(classify.FirstMatch),
			Bands: []BandConfig{
				{Low: 55, High: 65},
				{Low: 45, High: 55},
			},
		},
		Restart: Restart{
			CooldownSeconds: 300,
			MaxPerHour:      3,
		},
		HealthCheck: HealthCheck{
			Enabled:         false,
			IntervalSeconds: 300,
			TimeoutSeconds:  10,
		},
		MQTT: MQTT{
			Enabled: false,
			Broker:  "tcp://localhost:1883",
		},
		HTTP: HTTP{
			Addr: ":8080",
		},
		Alerts: Alerts{
			Enabled:              true,
			MemoryWarningPercent: 80,
			CPUWarningPercent:    80,
			DiskWarningPercent:   90,
			CooldownSeconds:      3600,
			IntervalSeconds:      60,
		},
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WindowDuration returns the sampling window as a duration.
func (m Measurement) Window() time.Duration { return seconds(m.WindowDuration) }

// Debounce returns the debounce interval as a duration.
func (m Measurement) Debounce() time.Duration { return seconds(m.DebounceInterval) }

// Poll returns the poll interval as a duration.
func (m Measurement) Poll() time.Duration { return seconds(m.PollInterval) }

// Cadence returns the pause between measurement rounds.
func (m Measurement) Cadence() time.Duration { return seconds(m.Interval) }

// ClassifierBands converts configured bands to classifier bands.
func (m Measurement) ClassifierBands() []classify.Band {
	bands := make([]classify.Band, len(m.Bands))
	for i, b := range m.Bands {
		bands[i] = classify.Band{Low: b.Low, High: b.High}
	}
	return bands
}

// Cooldown returns the restart cooldown as a duration.
func (r Restart) Cooldown() time.Duration { return seconds(r.CooldownSeconds) }

// Interval returns the reporting interval as a duration.
func (h HealthCheck) Interval() time.Duration { return seconds(h.IntervalSeconds) }

// Timeout returns the per-request timeout as a duration.
func (h HealthCheck) Timeout() time.Duration { return seconds(h.TimeoutSeconds) }

// Cooldown returns the per-alert cooldown as a duration.
func (a Alerts) Cooldown() time.Duration { return seconds(a.CooldownSeconds) }

// Interval returns the health check cadence as a duration.
func (a Alerts) Interval() time.Duration { return seconds(a.IntervalSeconds) }
