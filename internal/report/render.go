package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"

	"github.com/FranksOps/lumen/internal/recommend"
	"github.com/FranksOps/lumen/internal/signals"
	"gopkg.in/yaml.v3"
)

// WriteJSON writes the report to w as indented JSON. This is the canonical
// artifact.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML writes the report to w as YAML with the same keys as the JSON.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return nil
}

func yesno(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

type planBucket struct {
	Name string
	Recs []recommend.Recommendation
}

// planBuckets lists the plan in priority order.
func planBuckets(r *Report) []planBucket {
	return []planBucket{
		{Name: "High", Recs: r.Next90DaysPlan.High},
		{Name: "Medium", Recs: r.Next90DaysPlan.Medium},
		{Name: "Low", Recs: r.Next90DaysPlan.Low},
	}
}

var funcs = map[string]any{
	"yesno":     yesno,
	"band":      Band,
	"platforms": signals.PlatformKeys,
	"plan":      planBuckets,
}

const textTmpl = `Lumen Visibility Audit
----------------------
Brand:       {{.Brand}} ({{.Category}})
Website:     {{.Website}}
Generated:   {{.GeneratedAt}}

Overall:     {{.ScoreOverall}} - {{band .ScoreOverall}}
Breakdown:   Recognition {{.BreakdownOverall.RecognitionPct}}% · Context {{.BreakdownOverall.ContextAvg}} · Sentiment {{.BreakdownOverall.SentimentPct}}% · Competitive {{.BreakdownOverall.CompetitivePct}}%

Markets:
{{- range .ScoresByMarket}}
  {{.Market}}: recognition {{.Score.RecognitionPct}}%, context {{.Score.ContextAvg}}, sentiment {{.Score.SentimentPct}}%, competitive {{.Score.CompetitivePct}}%, mentions {{.Score.Mentions}}
{{- else}}
  None
{{- end}}

Top Competitors:
{{- range .TopCompetitors}}
  {{.Name}}: {{.Count}}
{{- else}}
  None
{{- end}}

Site Signals:
  Organization schema: {{yesno .SiteSignals.OrganizationSchema}}
  FAQ schema:          {{yesno .SiteSignals.FAQSchema}}
  hreflang:            {{yesno .SiteSignals.Hreflang}}
  Location pages:      {{yesno .SiteSignals.LocationPages}}
  /faq route:          {{yesno .SiteSignals.FAQRoute}}

Off-site Signals:
{{- $off := .OffsiteSignals}}
{{- range platforms}}
  {{.}}: {{yesno (index $off .)}}
{{- end}}

90-Day Plan:
{{- range plan .}}
  {{.Name}}:
  {{- range .Recs}}
    [{{.Type}}] {{.Action}}
  {{- else}}
    None
  {{- end}}
{{- end}}
{{- with .Fetches}}

Fetches:     {{.TotalRequests}} requests, {{.TotalErrors}} errors, {{.TotalDetections}} challenged, {{.TotalCached}} from cache
{{- end}}
`

// WriteText writes a human-readable summary of the report to w.
func WriteText(w io.Writer, r *Report) error {
	t, err := template.New("textReport").Funcs(funcs).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}
	if err := t.Execute(w, r); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return nil
}

const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Brand}} Visibility Audit</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  .bar { background: #e5e5e5; border-radius: 3px; height: 10px; width: 200px; }
  .bar div { background: #2563eb; border-radius: 3px; height: 10px; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  .high { color: #b91c1c; } .medium { color: #b45309; } .low { color: #15803d; }
</style>
</head>
<body>
  <h1>{{.Brand}} · {{.Category}}</h1>
  <p><a href="{{.Website}}">{{.Website}}</a> · generated {{.GeneratedAt}} · v{{.Version}}</p>

  <div class="stat-card">
    <div>Overall Score</div>
    <div class="stat-val">{{.ScoreOverall}}</div>
    <div>{{band .ScoreOverall}}</div>
  </div>
  {{- with .BreakdownOverall}}
  <table>
    <tr><th>Recognition</th><td>{{.RecognitionPct}}%</td><td><div class="bar"><div style="width: {{.RecognitionPct}}%"></div></div></td></tr>
    <tr><th>Context</th><td>{{.ContextAvg}}</td><td><div class="bar"><div style="width: {{.ContextAvg}}%"></div></div></td></tr>
    <tr><th>Sentiment</th><td>{{.SentimentPct}}%</td><td><div class="bar"><div style="width: {{.SentimentPct}}%"></div></div></td></tr>
    <tr><th>Competitive</th><td>{{.CompetitivePct}}%</td><td><div class="bar"><div style="width: {{.CompetitivePct}}%"></div></div></td></tr>
  </table>
  {{- end}}

  <h3>Markets</h3>
  <table>
    <tr><th>Market</th><th>Recognition</th><th>Context</th><th>Sentiment</th><th>Competitive</th><th>Mentions</th></tr>
    {{- range .ScoresByMarket}}
    <tr><td>{{.Market}}</td><td>{{.Score.RecognitionPct}}%</td><td>{{.Score.ContextAvg}}</td><td>{{.Score.SentimentPct}}%</td><td>{{.Score.CompetitivePct}}%</td><td>{{.Score.Mentions}}</td></tr>
    {{- else}}
    <tr><td colspan="6">None</td></tr>
    {{- end}}
  </table>

  <h3>Top Competitors</h3>
  <ul>
    {{- range .TopCompetitors}}
    <li>{{.Name}} · {{.Count}}</li>
    {{- else}}
    <li>None</li>
    {{- end}}
  </ul>

  <h3>Site Signals</h3>
  <ul>
    <li>Organization schema: {{yesno .SiteSignals.OrganizationSchema}}</li>
    <li>FAQ schema: {{yesno .SiteSignals.FAQSchema}}</li>
    <li>hreflang: {{yesno .SiteSignals.Hreflang}}</li>
    <li>Location pages: {{yesno .SiteSignals.LocationPages}}</li>
    <li>/faq route exists: {{yesno .SiteSignals.FAQRoute}}</li>
  </ul>

  <h3>Off-site Signals</h3>
  <ul>
    {{- $off := .OffsiteSignals}}
    {{- range platforms}}
    <li>{{.}}: {{yesno (index $off .)}}</li>
    {{- end}}
  </ul>

  <h3>90-Day Plan</h3>
  {{- range plan .}}
  <h4>{{.Name}}</h4>
  <ol>
    {{- range .Recs}}
    <li class="{{.Priority}}"><strong>{{.Type}}</strong>: {{.Action}}</li>
    {{- else}}
    <li>None</li>
    {{- end}}
  </ol>
  {{- end}}

  {{- with .Fetches}}
  <p><small>{{.TotalRequests}} requests · {{.TotalErrors}} errors · {{.TotalDetections}} challenged · {{.TotalCached}} from cache</small></p>
  {{- end}}
  <p><small>{{.SourcesNote}}</small></p>
</body>
</html>
`

// WriteHTML writes a standalone dashboard page for the report to w.
func WriteHTML(w io.Writer, r *Report) error {
	t, err := htmltemplate.New("htmlReport").Funcs(funcs).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}
	if err := t.Execute(w, r); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
