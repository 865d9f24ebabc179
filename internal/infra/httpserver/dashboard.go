package httpserver

import (
	"errors"
	"html/template"
	"net/http"
	"unicode/utf8"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// briefLimit is how much tool output the page shows per task.
const briefLimit = 200

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Automated Security Scanner</title>
<style>
body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem}
input[type=text]{width:75%;padding:.4rem}
pre{background:#f4f4f4;padding:.75rem;white-space:pre-wrap;max-height:300px;overflow:auto}
.outcome-completed{color:#1a7f37}.outcome-partial{color:#9a6700}
.outcome-failed,.error{color:#cf222e}.outcome-no_tasks{color:#57606a}
</style>
</head>
<body>
<h1>Automated Security Scanner</h1>
<p>Describe the scan, e.g. <code>open ports and sql injection on http://example.com</code>.
Triggers: open ports, discover directories, fuzz directories, sql injection. The target is the last word.</p>
<form method="post" action="/">
<input type="text" name="query" value="{{.Query}}" placeholder="Enter your security query" required>
<button type="submit">Run Scan</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<h2>Logs</h2>
<pre>{{.Log}}</pre>
{{with .Record}}
<h2>Scan Results</h2>
<p><strong>Query:</strong> {{.Query}}<br>
<strong>Time:</strong> {{.Timestamp}}<br>
<strong>Outcome:</strong> <span class="outcome-{{$.Outcome}}">{{$.OutcomeText}}</span></p>
{{range $.Rows}}
<p><strong>Task:</strong> {{.Label}}<br>
<strong>Tool:</strong> {{.Tool}}<br>
<strong>Status:</strong> {{if .Succeeded}}succeeded{{else}}failed{{end}} after {{.Attempts}} attempt(s), {{.Findings}} finding(s)<br>
<strong>Output (brief):</strong> {{.Brief}}</p>
<hr>
{{end}}
{{end}}
</body>
</html>
`))

type taskRow struct {
	Label     string
	Tool      domain.Tool
	Succeeded bool
	Attempts  int
	Findings  int
	Brief     string
}

type dashboardData struct {
	Query       string
	Error       string
	Log         string
	Record      *domain.ScanRecord
	Outcome     domain.Outcome
	OutcomeText string
	Rows        []taskRow
}

func brief(s string) string {
	if utf8.RuneCountInString(s) <= briefLimit {
		return s
	}
	return string([]rune(s)[:briefLimit]) + "..."
}

func (r *Router) dashboardData(req *http.Request, rec *domain.ScanRecord) dashboardData {
	d := dashboardData{Record: rec}
	if log, err := r.scans.ReadLog(req.Context()); err == nil {
		d.Log = log
	} else {
		r.logger.Warn().Err(err).Msg("read scan log")
	}
	if rec == nil {
		return d
	}
	d.Outcome = rec.Outcome()
	d.OutcomeText = d.Outcome.Message()
	for _, res := range rec.Results {
		d.Rows = append(d.Rows, taskRow{
			Label:     res.Label,
			Tool:      res.Tool,
			Succeeded: res.Succeeded,
			Attempts:  len(res.Attempts),
			Findings:  res.Findings,
			Brief:     brief(res.Output),
		})
	}
	return d
}

func (r *Router) render(w http.ResponseWriter, status int, d dashboardData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return dashboardTmpl.Execute(w, d)
}

// GET /
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.scans.Latest(req.Context())
	if err != nil && !errors.Is(err, domain.ErrNoRecord) {
		return err
	}
	return r.render(w, http.StatusOK, r.dashboardData(req, rec))
}

// POST / (form field "query")
func (r *Router) handleDashboardSubmit(w http.ResponseWriter, req *http.Request) error {
	query := req.PostFormValue("query")
	rec, err := r.runScan(req.Context(), query)

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	if rec == nil {
		// validasi gagal atau sedang sibuk, tampilkan record terakhir
		rec, _ = r.scans.Latest(req.Context())
	}
	d := r.dashboardData(req, rec)
	d.Query = query
	if err != nil {
		d.Error = err.Error()
	}
	return r.render(w, status, d)
}
