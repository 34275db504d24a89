// Package web provides the HTTP status dashboard for the mains-sensor
// daemon. Handlers only ever read tracker snapshots; they never touch the
// measurement pipeline.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/mains-sensor/internal/status"
	"github.com/sweeney/mains-sensor/internal/sysinfo"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	collect    func() (sysinfo.Metrics, error)
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{
		tracker: tracker,
		collect: sysinfo.Collect,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(NewStatusCollector(tracker))

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/system.json", s.handleSystem)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	data := indexData{Snap: s.tracker.Snapshot()}
	if m, err := s.collect(); err == nil {
		data.Sys = &m
	} else {
		log.Printf("web: system metrics unavailable: %v", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, data)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// SystemJSON is the JSON representation of system metrics.
type SystemJSON struct {
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	DiskPercent     float64 `json:"disk_percent"`
	ProcessMemoryMB float64 `json:"process_memory_mb"`
	TemperatureC    float64 `json:"temperature_c,omitempty"`
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	m, err := s.collect()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(SystemJSON{
		CPUPercent:      m.CPUPercent,
		MemoryPercent:   m.MemoryPercent,
		DiskPercent:     m.DiskPercent,
		ProcessMemoryMB: m.ProcessMemoryMB,
		TemperatureC:    m.TemperatureC,
	}, "", "  ")
	w.Write(data)
}
