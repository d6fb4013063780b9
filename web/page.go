package web

import "html/template"

// fieldView is one form input as rendered.
type fieldView struct {
	Name  string
	Label string
	Value string
	Step  string
	Error string
}

// pageData feeds the page template.
type pageData struct {
	Title    string
	Subtitle string
	Fatal    string
	Model    string
	Columns  [][]fieldView
	Result   *resultView
	Error    string
}

type resultView struct {
	Anomalous bool
	Message   string
	Details   [][2]string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
.cols { display: flex; gap: 2rem; }
.col { flex: 1; }
label { display: block; margin-top: .8rem; font-weight: 600; }
input[type=number] { width: 100%; padding: .3rem; }
.field-error { color: #b00020; font-size: .85rem; }
.result { margin-top: 1.5rem; padding: 1rem; border-radius: 6px; }
.anomaly { background: #fde7e9; color: #8a0014; }
.normal { background: #e6f6ea; color: #145a25; }
.fatal { background: #fde7e9; color: #8a0014; padding: 1rem; border-radius: 6px; }
.muted { color: #666; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Subtitle}}</p>
{{if .Fatal}}
<div class="fatal">{{.Fatal}}</div>
{{else}}
<p class="muted">{{.Model}}</p>
<h2>Enter Sensor Values Manually</h2>
<form method="post" action="/">
<div class="cols">
{{range .Columns}}<div class="col">
{{range .}}<label for="{{.Name}}">{{.Label}}</label>
<input type="number" id="{{.Name}}" name="{{.Name}}" value="{{.Value}}" step="{{.Step}}">
{{if .Error}}<div class="field-error">{{.Error}}</div>{{end}}
{{end}}</div>
{{end}}</div>
<p><button type="submit">Detect Anomaly</button></p>
</form>
{{if .Error}}<div class="result anomaly">Evaluation failed: {{.Error}}</div>{{end}}
{{with .Result}}
<h3>Result</h3>
<div class="result {{if .Anomalous}}anomaly{{else}}normal{{end}}"><strong>{{.Message}}</strong></div>
<table>
{{range .Details}}<tr><td class="muted">{{index . 0}}</td><td>{{index . 1}}</td></tr>
{{end}}</table>
{{end}}
{{end}}
</body>
</html>
`))
