// Command mains-sensor measures AC line frequency from a GPIO optocoupler
// and publishes signal quality over HTTP and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/mains-sensor/internal/alert"
	"github.com/sweeney/mains-sensor/internal/button"
	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/config"
	"github.com/sweeney/mains-sensor/internal/freq"
	"github.com/sweeney/mains-sensor/internal/gate"
	"github.com/sweeney/mains-sensor/internal/gpio"
	"github.com/sweeney/mains-sensor/internal/mqtt"
	"github.com/sweeney/mains-sensor/internal/report"
	"github.com/sweeney/mains-sensor/internal/sampler"
	"github.com/sweeney/mains-sensor/internal/status"
	"github.com/sweeney/mains-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	simulate := flag.Float64("simulate", 0, "Run against a simulated signal at this frequency instead of hardware (0 disables)")
	once := flag.Bool("once", false, "Take a single measurement, print it, and exit")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *simulate, *once, *heartbeat); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// hardware holds the GPIO resources the daemon may acquire. Any field other
// than signal may be nil when the corresponding pin could not be requested.
type hardware struct {
	chip   *gpio.Chip
	signal gpio.Line
	button gpio.Line
	green  gpio.Indicator
	red    gpio.Indicator
}

func (h *hardware) Close() {
	if h == nil {
		return
	}
	for _, c := range []interface{ Close() error }{h.signal, h.button, h.green, h.red, h.chip} {
		if c != nil {
			c.Close()
		}
	}
}

// openHardware requests the signal line plus the optional button and LED
// pins. The signal line is required; the others degrade to nil with a log
// line.
func openHardware(cfg *config.Config) (*hardware, error) {
	chip, err := gpio.OpenChip()
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	hw := &hardware{chip: chip}
	hw.signal, err = chip.RequestInput(cfg.Hardware.GPIOPin)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request signal pin %d: %w", cfg.Hardware.GPIOPin, err)
	}

	if hw.button, err = chip.RequestInput(cfg.Hardware.ButtonPin); err != nil {
		log.Printf("button pin %d unavailable: %v", cfg.Hardware.ButtonPin, err)
		hw.button = nil
	}
	if hw.green, err = chip.RequestOutput(cfg.Hardware.LEDGreen); err != nil {
		log.Printf("green LED pin %d unavailable: %v", cfg.Hardware.LEDGreen, err)
		hw.green = nil
	}
	if hw.red, err = chip.RequestOutput(cfg.Hardware.LEDRed); err != nil {
		log.Printf("red LED pin %d unavailable: %v", cfg.Hardware.LEDRed, err)
		hw.red = nil
	}
	return hw, nil
}

func run(cfg *config.Config, simulateHz float64, once bool, heartbeat time.Duration) error {
	var (
		smpl      freq.Sampler
		hw        *hardware
		simulated bool
	)

	// The optocoupler emits pulses_per_cycle countable pulses per AC cycle;
	// the simulator mirrors that so a simulated line reads back at its
	// nominal frequency.
	pulseRate := func(lineHz float64) float64 { return lineHz * float64(cfg.PulsesPerCycle) }

	switch {
	case simulateHz > 0:
		smpl = sampler.NewSimulated(pulseRate(simulateHz))
		simulated = true
		log.Printf("simulating a %.2f Hz line, hardware not touched", simulateHz)
	default:
		var err error
		hw, err = openHardware(cfg)
		if err != nil {
			// Hardware absence is recoverable: run degraded on a
			// simulated signal so the dashboard and reporter stay up.
			log.Printf("gpio unavailable (%v), falling back to simulated %.0f Hz line", err, cfg.Measurement.TargetHz)
			smpl = sampler.NewSimulated(pulseRate(cfg.Measurement.TargetHz))
			simulated = true
		} else {
			defer hw.Close()
			smpl = sampler.NewHardware(hw.signal, sampler.Options{
				Debounce:     cfg.Measurement.Debounce(),
				PollInterval: cfg.Measurement.Poll(),
			})
		}
	}

	estimator, err := freq.NewEstimator(smpl, cfg.Measurement.Window(), cfg.PulsesPerCycle, cfg.DirectionFilter())
	if err != nil {
		return fmt.Errorf("init estimator: %w", err)
	}

	classifier := &classify.Classifier{
		TargetHz:          cfg.Measurement.TargetHz,
		Bands:             cfg.Measurement.ClassifierBands(),
		WeakEdgeThreshold: cfg.Measurement.WeakEdgeThreshold,
		Policy:            classify.Policy(cfg.Measurement.CalibrationPolicy),
	}

	// Single measurement mode
	if once {
		est, err := estimator.Estimate(cfg.Measurement.SampleCount)
		if err != nil {
			return fmt.Errorf("measure: %w", err)
		}
		v := classifier.Classify(est)
		fmt.Printf("%s: %.3f Hz (median %.3f, range %.3f-%.3f, stddev %.3f, %d samples)\n",
			v.Quality, est.Mean, est.Median, est.Min, est.Max, est.StdDev, est.SampleCount())
		if v.Quality != classify.NoSignal {
			fmt.Printf("error vs %.1f Hz target: %.3f Hz (accuracy %.1f%%)\n", cfg.Measurement.TargetHz, v.ErrorHz, v.AccuracyPct)
		}
		if v.Divisor != 0 && v.Divisor != cfg.PulsesPerCycle {
			fmt.Printf("calibration: divisor %d fits band %s better than configured pulses_per_cycle %d\n",
				v.Divisor, v.MatchedBand, cfg.PulsesPerCycle)
		}
		return nil
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		GPIOPin:           cfg.Hardware.GPIOPin,
		PulsesPerCycle:    cfg.PulsesPerCycle,
		WindowSeconds:     cfg.Measurement.WindowDuration,
		SampleCount:       cfg.Measurement.SampleCount,
		DebounceSeconds:   cfg.Measurement.DebounceInterval,
		TargetHz:          cfg.Measurement.TargetHz,
		Broker:            cfg.MQTT.Broker,
		HTTPAddr:          cfg.HTTP.Addr,
		Simulated:         simulated,
		CalibrationPolicy: cfg.Measurement.CalibrationPolicy,
	})

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			log.Printf("mqtt connect %s: %v (events disabled)", cfg.MQTT.Broker, err)
		} else {
			publisher = pub
			mqttStatus = pub
			defer pub.Close()
		}
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	// Outbound health check reporter
	if cfg.HealthCheck.Enabled {
		rep := report.New(cfg.HealthCheck.EndpointURL, cfg.HealthCheck.Interval(), cfg.HealthCheck.Timeout(), tracker)
		go rep.Run(ctx)
		log.Printf("health reports to %s every %v", cfg.HealthCheck.EndpointURL, cfg.HealthCheck.Interval())
	}

	// System resource alerting
	if cfg.Alerts.Enabled {
		mon := alert.New(alert.Thresholds{
			MemoryWarningPercent: cfg.Alerts.MemoryWarningPercent,
			CPUWarningPercent:    cfg.Alerts.CPUWarningPercent,
			DiskWarningPercent:   cfg.Alerts.DiskWarningPercent,
		}, cfg.Alerts.Cooldown())
		go mon.Run(ctx, cfg.Alerts.Interval())
	}

	// Restart button, rate limited
	if hw != nil && hw.button != nil {
		restartGate := gate.New(cfg.Restart.Cooldown(), time.Hour, cfg.Restart.MaxPerHour)
		btn := button.New(hw.button, restartGate, restartSystem)
		go btn.Run(ctx)
		log.Printf("restart button on pin %d (cooldown %v, max %d/hour)",
			cfg.Hardware.ButtonPin, cfg.Restart.Cooldown(), cfg.Restart.MaxPerHour)
	}

	log.Printf("started: pin=%d window=%v x%d ppc=%d target=%.1fHz debounce=%v simulated=%v",
		cfg.Hardware.GPIOPin, cfg.Measurement.Window(), cfg.Measurement.SampleCount,
		cfg.PulsesPerCycle, cfg.Measurement.TargetHz, cfg.Measurement.Debounce(), simulated)

	ticker := time.NewTicker(cfg.Measurement.Cadence())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var green, red gpio.Indicator
	if hw != nil {
		green, red = hw.green, hw.red
	}

	return runLoop(estimator, classifier, publisher, mqttStatus, tracker,
		green, red, cfg.Measurement.SampleCount, heartbeat, time.Now, ticker.C, sigCh)
}

// runLoop is the measurement loop, separated from run so tests can drive it
// with a fake clock, tick channel, and signal channel.
func runLoop(estimator *freq.Estimator, classifier *classify.Classifier, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, green, red gpio.Indicator, sampleCount int, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var (
		lastQuality   classify.Quality
		haveQuality   bool
		lastHeartbeat = now()
	)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			setLEDs(green, red, false, false)
			if publisher != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  now(),
					Event:      "SHUTDOWN",
					Reason:     signalName,
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()
			est, err := estimator.Estimate(sampleCount)
			if err != nil {
				log.Printf("measurement error: %v", err)
				tracker.RecordFailure(err)
				setLEDs(green, red, false, true)
				continue
			}

			v := classifier.Classify(est)
			tracker.Publish(est, v)
			setLEDs(green, red, v.Quality == classify.Nominal, v.Quality != classify.Nominal)

			if !haveQuality || v.Quality != lastQuality {
				log.Printf("signal %s: %.3f Hz (err %.3f, accuracy %.1f%%)",
					v.Quality, est.Mean, v.ErrorHz, v.AccuracyPct)
				if publisher != nil {
					event := mqtt.Event{
						Timestamp:   t,
						Quality:     string(v.Quality),
						FrequencyHz: est.Mean,
						ErrorHz:     v.ErrorHz,
						AccuracyPct: v.AccuracyPct,
					}
					if haveQuality {
						event.Previous = string(lastQuality)
					}
					if err := publisher.Publish(event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
				lastQuality = v.Quality
				haveQuality = true
			}

			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if publisher != nil && heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				snap := tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				} else {
					log.Printf("heartbeat: uptime=%v measurements=%d failures=%d",
						snap.Uptime().Truncate(time.Second), snap.Measurements, snap.Failures)
				}
			}
		}
	}
}

// setLEDs drives the status LEDs, tolerating absent pins.
func setLEDs(green, red gpio.Indicator, greenOn, redOn bool) {
	if green != nil {
		if err := green.Set(greenOn); err != nil {
			log.Printf("green LED: %v", err)
		}
	}
	if red != nil {
		if err := red.Set(redOn); err != nil {
			log.Printf("red LED: %v", err)
		}
	}
}

// restartSystem reboots the host. Wired to the physical button after its
// rate gate allows the press.
func restartSystem() {
	log.Printf("restart requested by button, rebooting")
	cmd := exec.Command("systemctl", "reboot")
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("reboot failed: %v (%s)", err, out)
	}
}
