package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/mains-sensor/internal/classify"
	"github.com/sweeney/mains-sensor/internal/freq"
	"github.com/sweeney/mains-sensor/internal/status"
	"github.com/sweeney/mains-sensor/internal/sysinfo"
)

func testServer(t *testing.T, tracker *status.Tracker) *httptest.Server {
	t.Helper()
	s := New(":0", tracker)
	s.collect = func() (sysinfo.Metrics, error) {
		return sysinfo.Metrics{
			CPUPercent:      12.5,
			MemoryPercent:   40,
			DiskPercent:     55,
			ProcessMemoryMB: 18.2,
			TemperatureC:    48.1,
		}, nil
	}
	srv := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func nominalTracker() *status.Tracker {
	tr := status.NewTracker(time.Now(), status.Config{
		GPIOPin:        26,
		PulsesPerCycle: 2,
		TargetHz:       60,
		HTTPAddr:       ":8080",
	})
	est := freq.Aggregate([]freq.Sample{
		{Hz: 60, Window: freq.Window{Elapsed: time.Second, EdgeCount: 120}},
	})
	band := classify.Band{Low: 55, High: 65}
	tr.Publish(est, classify.Verdict{
		Quality:     classify.Nominal,
		AccuracyPct: 100,
		MatchedBand: &band,
		Divisor:     2,
	})
	return tr
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestIndexPage(t *testing.T) {
	srv := testServer(t, nominalTracker())

	code, body := get(t, srv.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{"NOMINAL", "60.000 Hz", "Mains Sensor", "12.5%"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestIndexPageNoReading(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{TargetHz: 60})
	srv := testServer(t, tr)

	code, body := get(t, srv.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, "NO READING YET") {
		t.Error("expected placeholder before first measurement")
	}
}

func TestIndexJSON(t *testing.T) {
	srv := testServer(t, nominalTracker())

	code, body := get(t, srv.URL+"/index.json")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var out status.StatusJSON
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Status.Quality != "NOMINAL" {
		t.Errorf("expected NOMINAL, got %q", out.Status.Quality)
	}
	if out.Status.Reading == nil || out.Status.Reading.TotalEdges != 120 {
		t.Errorf("unexpected reading block: %+v", out.Status.Reading)
	}
}

func TestSystemJSON(t *testing.T) {
	srv := testServer(t, nominalTracker())

	code, body := get(t, srv.URL+"/system.json")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var out SystemJSON
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.CPUPercent != 12.5 || out.TemperatureC != 48.1 {
		t.Errorf("unexpected metrics: %+v", out)
	}
}

func TestSystemJSONCollectFailure(t *testing.T) {
	s := New(":0", nominalTracker())
	s.collect = func() (sysinfo.Metrics, error) {
		return sysinfo.Metrics{}, errors.New("no procfs")
	}
	srv := httptest.NewServer(s.httpServer.Handler)
	defer srv.Close()

	code, _ := get(t, srv.URL+"/system.json")
	if code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, nominalTracker())

	code, body := get(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{
		"mains_frequency_hz 60",
		"mains_signal_nominal 1",
		"mains_measurements_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetricsBeforeFirstReading(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{TargetHz: 60})
	srv := testServer(t, tr)

	code, body := get(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if strings.Contains(body, "mains_frequency_hz") {
		t.Error("frequency gauge must be absent before the first reading")
	}
	if !strings.Contains(body, "mains_uptime_seconds") {
		t.Error("uptime gauge must always be exported")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := testServer(t, nominalTracker())
	code, _ := get(t, srv.URL+"/nope")
	if code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}
