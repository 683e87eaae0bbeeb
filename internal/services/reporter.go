package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"puppy-adoption-notifier/internal/models"
)

// NoMatchesMessage is stated in the report whenever the filtered set is empty
const NoMatchesMessage = "No matching puppies today"

const textReport = `{{ headline . }}
Checked {{ .TotalSeen }} {{ plural .TotalSeen "listing" }}, {{ .MatchCount }} matched.
{{ if not .Matches }}
{{ noMatches }} (nothing at or under {{ .MaxAgeMonths }} months).
{{ else }}{{ range $i, $m := .Matches }}
{{ inc $i }}. {{ $m.Name }}
   Breed: {{ $m.DisplayBreed }}
   Age: {{ $m.DisplayAge }}
{{- if $m.Sex }}
   Sex: {{ $m.Sex }}{{ end }}
{{- if $m.DetailURL }}
   Link: {{ $m.DetailURL }}{{ end }}
{{ end }}{{ end }}`

const htmlReport = `<html>
<head>
<style>
  body { font-family: Arial, sans-serif; }
  h1 { color: #333366; }
  h2 { color: #4CAF50; }
  table { margin-bottom: 15px; }
  td { padding: 5px; }
</style>
</head>
<body>
<h1>{{ headline . }}</h1>
<p>Checked {{ .TotalSeen }} {{ plural .TotalSeen "listing" }}, {{ .MatchCount }} matched.</p>
{{ if not .Matches }}<p>{{ noMatches }}.</p>
{{ else }}{{ range .Matches }}<div style="margin-bottom:30px; border-bottom:1px solid #ccc; padding-bottom:20px;">
  <h2>{{ .Name }}</h2>
  <table style="width:100%; border-collapse: collapse;">
    {{ if .ID }}<tr><td style="font-weight:bold;width:150px;">ID:</td><td>{{ .ID }}</td></tr>{{ end }}
    <tr><td style="font-weight:bold;width:150px;">Breed:</td><td>{{ .DisplayBreed }}</td></tr>
    <tr><td style="font-weight:bold;">Age:</td><td>{{ .DisplayAge }}</td></tr>
    {{ if .Sex }}<tr><td style="font-weight:bold;">Gender:</td><td>{{ .Sex }}</td></tr>{{ end }}
    {{ if .Size }}<tr><td style="font-weight:bold;">Size:</td><td>{{ .Size }}</td></tr>{{ end }}
    {{ if .Color }}<tr><td style="font-weight:bold;">Color:</td><td>{{ .Color }}</td></tr>{{ end }}
  </table>
  <div style="margin-top:15px;">
  {{ range .Images }}<img src="{{ . }}" style="max-width:100%; margin:5px 0;" /><br>
  {{ end }}</div>
  {{ if .DetailURL }}<div style="margin-top:10px;">
    <a href="{{ .DetailURL }}" style="background-color:#4CAF50; color:white; padding:10px 15px; text-decoration:none; display:inline-block; border-radius:4px;">View Details</a>
  </div>{{ end }}
</div>
{{ end }}{{ end }}</body>
</html>
`

func headline(r models.FilteredReport) string {
	return fmt.Sprintf("Adoptable Puppies (<= %d Months) - %d Found", r.MaxAgeMonths, r.MatchCount())
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

var reportFuncs = map[string]any{
	"headline":  headline,
	"plural":    plural,
	"inc":       func(i int) int { return i + 1 },
	"noMatches": func() string { return NoMatchesMessage },
}

var (
	textTmpl = texttemplate.Must(texttemplate.New("text").Funcs(texttemplate.FuncMap(reportFuncs)).Parse(textReport))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Funcs(htmltemplate.FuncMap(reportFuncs)).Parse(htmlReport))
)

// Reporter renders a FilteredReport into email content
type Reporter struct {
	subject string
}

// NewReporter creates a Reporter using subject for every message
func NewReporter(subject string) *Reporter {
	return &Reporter{subject: subject}
}

// Render produces the subject, plain-text and HTML bodies for report. The
// output depends only on report, so identical input renders identically.
func (r *Reporter) Render(report models.FilteredReport) (*models.RenderedReport, error) {
	var text bytes.Buffer
	if err := textTmpl.Execute(&text, report); err != nil {
		return nil, fmt.Errorf("failed to render text report: %w", err)
	}

	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, report); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}

	return &models.RenderedReport{
		Subject: r.subject,
		Text:    strings.TrimRight(text.String(), "\n") + "\n",
		HTML:    html.String(),
	}, nil
}
