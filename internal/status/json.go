package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Quality       string       `json:"quality"`
	FrequencyHz   *float64     `json:"frequency_hz,omitempty"`
	ErrorHz       *float64     `json:"error_hz,omitempty"`
	AccuracyPct   *float64     `json:"accuracy_pct,omitempty"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Measurements  int          `json:"measurements"`
	Failures      int          `json:"failures"`
	LastError     string       `json:"last_error,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of the latest estimate.
type ReadingJSON struct {
	MeanHz       float64  `json:"mean_hz"`
	MedianHz     float64  `json:"median_hz"`
	MinHz        float64  `json:"min_hz"`
	MaxHz        float64  `json:"max_hz"`
	StdDevHz     float64  `json:"stddev_hz"`
	SampleCount  int      `json:"sample_count"`
	TotalEdges   int      `json:"total_edges"`
	MatchedLow   *float64 `json:"matched_band_low_hz,omitempty"`
	MatchedHigh  *float64 `json:"matched_band_high_hz,omitempty"`
	Divisor      int      `json:"recommended_divisor,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	GPIOPin           int     `json:"gpio_pin"`
	PulsesPerCycle    int     `json:"pulses_per_cycle"`
	WindowSeconds     float64 `json:"window_seconds"`
	SampleCount       int     `json:"sample_count"`
	DebounceSeconds   float64 `json:"debounce_seconds"`
	TargetHz          float64 `json:"target_hz"`
	HTTPAddr          string  `json:"http_addr"`
	Simulated         bool    `json:"simulated"`
	CalibrationPolicy string  `json:"calibration_policy"`
}

func buildInner(snap Snapshot) StatusInner {
	quality := string(snap.Verdict.Quality)
	if !snap.HaveReading {
		quality = "UNKNOWN"
	}

	inner := StatusInner{
		Quality:       quality,
		Measurements:  snap.Measurements,
		Failures:      snap.Failures,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			GPIOPin:           snap.Config.GPIOPin,
			PulsesPerCycle:    snap.Config.PulsesPerCycle,
			WindowSeconds:     snap.Config.WindowSeconds,
			SampleCount:       snap.Config.SampleCount,
			DebounceSeconds:   snap.Config.DebounceSeconds,
			TargetHz:          snap.Config.TargetHz,
			HTTPAddr:          snap.Config.HTTPAddr,
			Simulated:         snap.Config.Simulated,
			CalibrationPolicy: snap.Config.CalibrationPolicy,
		},
	}

	if snap.HaveReading {
		mean := snap.Estimate.Mean
		errHz := snap.Verdict.ErrorHz
		acc := snap.Verdict.AccuracyPct
		inner.FrequencyHz = &mean
		inner.ErrorHz = &errHz
		inner.AccuracyPct = &acc

		reading := &ReadingJSON{
			MeanHz:      snap.Estimate.Mean,
			MedianHz:    snap.Estimate.Median,
			MinHz:       snap.Estimate.Min,
			MaxHz:       snap.Estimate.Max,
			StdDevHz:    snap.Estimate.StdDev,
			SampleCount: snap.Estimate.SampleCount(),
			TotalEdges:  snap.Estimate.TotalEdges(),
			Divisor:     snap.Verdict.Divisor,
		}
		if b := snap.Verdict.MatchedBand; b != nil {
			low, high := b.Low, b.High
			reading.MatchedLow = &low
			reading.MatchedHigh = &high
		}
		inner.Reading = reading
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
