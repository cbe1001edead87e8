package server

import (
	"html/template"
	"log"
	"net/http"

	"SellBreakout/internal/model"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Sell-candle breakout screener</title>
<style>
body { background-color: #f2f2f2; font-family: sans-serif; margin: 2em; }
header { background-color: #3366cc; color: white; padding: 10px; border-radius: 10px; text-align: center; }
button { background-color: #3366cc; color: white; font-weight: bold; padding: 0.4em 1em; border-radius: 8px; border: 0; }
table { border-collapse: collapse; margin: 1em 0; }
td, th { border: 1px solid #ccc; padding: 4px 12px; }
</style>
</head>
<body>
<header><h2>📉 Sell-candle breakout screener</h2></header>
<form method="get" action="/">
  <p><textarea name="symbols" rows="3" cols="60">{{.Symbols}}</textarea></p>
  <p>
    <select name="interval">
      {{range .Intervals}}<option value="{{.}}"{{if eq . $.Interval}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <input type="date" name="start" value="{{.Start}}">
    <input type="date" name="end" value="{{.End}}">
    <button type="submit" name="run" value="1">🔎 Scan</button>
  </p>
</form>
{{with .Error}}<p style="color:#b00">{{.}}</p>{{end}}
{{with .Report}}
  <p>Symbols: {{.Requested}} | Breakouts: {{len .Hits}}{{if .Failed}} | Failed: {{len .Failed}}{{end}}</p>
  {{if .Hits}}
  <table>
    <tr><th>Symbol</th><th>Close</th></tr>
    {{range .Hits}}<tr><td>{{.Code}}</td><td>{{printf "%.2f" .Close}}</td></tr>{{end}}
  </table>
  <p><a href="{{$.CSVLink}}">📥 Download CSV</a></p>
  {{range .Hits}}
    <h4>📊 {{.Code}} – {{printf "%.2f" .Close}}</h4>
    <iframe src="{{.ChartURL}}" width="100%" height="450" frameborder="0"></iframe>
  {{end}}
  {{else}}
  <p>🔎 No new breakouts.</p>
  {{end}}
{{end}}
</body>
</html>
`))

type indexView struct {
	Symbols   string
	Interval  string
	Start     string
	End       string
	Intervals []string
	Report    *model.ScanReport
	Error     string
	CSVLink   string
}

// HandleIndex renders the scan form and, when run=1, the scan results.
func (api *API) HandleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{
		Symbols:   api.param(r, "symbols", api.Defaults.Symbols),
		Interval:  api.param(r, "interval", api.Defaults.Interval),
		Start:     api.param(r, "start", api.Defaults.Start),
		End:       api.param(r, "end", api.Defaults.End),
		Intervals: []string{model.IntervalDaily, model.IntervalWeekly, model.IntervalMonthly},
	}

	if r.URL.Query().Get("run") != "" {
		req, err := api.scanRequest(r)
		if err != nil {
			view.Error = err.Error()
		} else {
			view.Report = api.Screener.Run(r.Context(), req)
			view.CSVLink = "/api/scan.csv?" + r.URL.RawQuery
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, view); err != nil {
		log.Printf("[ERROR] render index: %v", err)
	}
}
