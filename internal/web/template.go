package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/mains-sensor/internal/status"
	"github.com/sweeney/mains-sensor/internal/sysinfo"
)

// indexData is the template input for the dashboard page.
type indexData struct {
	Snap status.Snapshot
	Sys  *sysinfo.Metrics
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hz": func(v float64) string {
		return fmt.Sprintf("%.3f Hz", v)
	},
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
}).Parse(indexHTML))

func renderHTML(w io.Writer, data indexData) {
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Mains Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.nominal { color: green; font-weight: bold; }
.weak { color: orange; font-weight: bold; }
.bad { color: red; font-weight: bold; }
.unknown { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Mains Sensor</h1>

<h2>Signal</h2>
<table>
{{if .Snap.HaveReading}}
<tr><th>Quality</th><td class="{{if eq (printf "%s" .Snap.Verdict.Quality) "NOMINAL"}}nominal{{else if eq (printf "%s" .Snap.Verdict.Quality) "WEAK"}}weak{{else}}bad{{end}}">{{.Snap.Verdict.Quality}}</td></tr>
<tr><th>Frequency (mean)</th><td>{{hz .Snap.Estimate.Mean}}</td></tr>
<tr><th>Median</th><td>{{hz .Snap.Estimate.Median}}</td></tr>
<tr><th>Range</th><td>{{hz .Snap.Estimate.Min}} &ndash; {{hz .Snap.Estimate.Max}}</td></tr>
<tr><th>Std dev</th><td>{{hz .Snap.Estimate.StdDev}}</td></tr>
<tr><th>Error vs target</th><td>{{hz .Snap.Verdict.ErrorHz}}</td></tr>
<tr><th>Accuracy</th><td>{{pct .Snap.Verdict.AccuracyPct}}</td></tr>
{{if .Snap.Verdict.Divisor}}<tr><th>Recommended divisor</th><td>{{.Snap.Verdict.Divisor}}</td></tr>{{end}}
{{else}}
<tr><th>Quality</th><td class="unknown">NO READING YET</td></tr>
{{end}}
<tr><th>Measurements</th><td>{{.Snap.Measurements}} ({{.Snap.Failures}} failed)</td></tr>
{{if .Snap.LastError}}<tr><th>Last error</th><td class="bad">{{.Snap.LastError}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Snap.Uptime}}</td></tr>
{{if .Sys}}
<tr><th>CPU</th><td>{{pct .Sys.CPUPercent}}</td></tr>
<tr><th>Memory</th><td>{{pct .Sys.MemoryPercent}}</td></tr>
<tr><th>Disk</th><td>{{pct .Sys.DiskPercent}}</td></tr>
<tr><th>Process RSS</th><td>{{printf "%.1f" .Sys.ProcessMemoryMB}} MB</td></tr>
{{if .Sys.TemperatureC}}<tr><th>SoC temperature</th><td>{{printf "%.1f" .Sys.TemperatureC}} &deg;C</td></tr>{{end}}
{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Snap.Config.Broker}}<tr><th>Broker</th><td>{{.Snap.Config.Broker}}</td></tr>{{end}}
</table>

<h2>Configuration</h2>
<table>
<tr><th>GPIO pin</th><td>{{.Snap.Config.GPIOPin}}{{if .Snap.Config.Simulated}} (simulated){{end}}</td></tr>
<tr><th>Pulses per cycle</th><td>{{.Snap.Config.PulsesPerCycle}}</td></tr>
<tr><th>Window</th><td>{{.Snap.Config.WindowSeconds}}s &times; {{.Snap.Config.SampleCount}} samples</td></tr>
<tr><th>Debounce</th><td>{{.Snap.Config.DebounceSeconds}}s</td></tr>
<tr><th>Target</th><td>{{hz .Snap.Config.TargetHz}}</td></tr>
<tr><th>Calibration policy</th><td>{{.Snap.Config.CalibrationPolicy}}</td></tr>
</table>

<p><a href="/index.json">status json</a> &middot; <a href="/system.json">system json</a> &middot; <a href="/metrics">metrics</a></p>
</body>
</html>
`
