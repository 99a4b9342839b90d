package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"math"
	"time"

	"github.com/sweeney/ecg-monitor/internal/status"
)

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
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"written": func(snap status.Snapshot) int {
		n := 0
		for _, p := range snap.Sweep {
			if !math.IsNaN(float64(p.Value)) {
				n++
			}
		}
		return n
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>ECG Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.connected { color: green; font-weight: bold; }
.disconnected { color: #888; }
.failed { color: red; }
.alert { color: red; font-weight: bold; }
</style>
</head>
<body>
<h1>ECG Monitor</h1>

<h2>Link</h2>
<table>
<tr><th>State</th><td id="link-state" class="{{if eq (printf "%s" .State) "CONNECTED"}}connected{{else if eq (printf "%s" .State) "FAILED"}}failed{{else}}disconnected{{end}}">{{.State}}</td></tr>
<tr><th>Transport</th><td>{{.Config.Transport}}</td></tr>
{{if .Config.BLE}}<tr><th>Device</th><td>{{.Config.BLE}}</td></tr>{{else}}<tr><th>Port</th><td>{{.Config.Port}} @ {{.Config.Baud}} baud</td></tr>{{end}}
</table>

<h2>Heart</h2>
<table>
<tr><th>BPM</th><td id="bpm">{{.BPM}}</td></tr>
<tr><th>Rhythm</th><td id="rhythm" class="{{if eq (printf "%s" .Rhythm) "BRADYCARDIA" "TACHYCARDIA"}}alert{{end}}">{{orUnknown (printf "%s" .Rhythm)}}</td></tr>
<tr><th>Sweep</th><td>{{written .Snapshot}} / {{len .Sweep}} points, head {{.WriteHead}}</td></tr>
</table>

<h2>Stream</h2>
<table>
<tr><th>Samples</th><td>{{.Counts.Samples}}</td></tr>
<tr><th>Decode errors</th><td>{{.Counts.DecodeErrors}}</td></tr>
<tr><th>Connects</th><td>{{.Counts.Connects}}</td></tr>
<tr><th>Disconnects</th><td>{{.Counts.Disconnects}}</td></tr>
<tr><th>Rhythm changes</th><td>{{.Counts.RhythmEvents}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Button</th><td>{{if lt .Config.ButtonPin 0}}disabled{{else}}GPIO {{.Config.ButtonPin}}{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/sweep.json">Sweep</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
