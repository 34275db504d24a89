// Package report sends periodic status reports to a remote endpoint as GET
// requests with the current engine state encoded as query parameters.
// The parameter set is the only externally observable schema and must stay
// backward-compatible: fields are only ever added, never renamed.
package report

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sweeney/mains-sensor/internal/status"
)

// Reporter periodically serializes the latest tracker snapshot into an
// outbound status call. Delivery failures are logged and do not stop the
// interval loop.
type Reporter struct {
	endpoint string
	interval time.Duration
	tracker  *status.Tracker
	client   *http.Client
}

// New creates a Reporter. timeout bounds each request.
func New(endpoint string, interval, timeout time.Duration, tracker *status.Tracker) *Reporter {
	return &Reporter{
		endpoint: endpoint,
		interval: interval,
		tracker:  tracker,
		client:   &http.Client{Timeout: timeout},
	}
}

// Run sends a report every interval until the context is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	log.Printf("report: started (endpoint=%s interval=%v)", r.endpoint, r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("report: stopped")
			return
		case <-ticker.C:
			if err := r.send(ctx, r.tracker.Snapshot()); err != nil {
				log.Printf("report: send failed: %v", err)
			}
		}
	}
}

func (r *Reporter) send(ctx context.Context, snap status.Snapshot) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.URL.RawQuery = buildParams(snap).Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("report returned status %d", resp.StatusCode)
	}
	return nil
}

// buildParams flattens a snapshot into query parameters.
func buildParams(snap status.Snapshot) url.Values {
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(snap.Now.Unix(), 10))
	params.Set("uptime_seconds", strconv.FormatInt(int64(snap.Uptime().Seconds()), 10))

	if snap.HaveReading {
		params.Set("frequency", strconv.FormatFloat(snap.Estimate.Mean, 'f', 3, 64))
		params.Set("error_hz", strconv.FormatFloat(snap.Verdict.ErrorHz, 'f', 3, 64))
		params.Set("accuracy_pct", strconv.FormatFloat(snap.Verdict.AccuracyPct, 'f', 2, 64))
		params.Set("quality", string(snap.Verdict.Quality))
		params.Set("sample_count", strconv.Itoa(snap.Estimate.SampleCount()))
	}
	return params
}
