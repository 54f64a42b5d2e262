package chart

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"nyc-sales-report/models"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-top: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<img id="chart" alt="{{.Title}}" src="{{.Image}}">
{{- if .Rows}}
<table>
<tr><th>Column</th><th>Minimum</th><th>Maximum</th><th>Average</th><th>Sum</th><th>Count</th></tr>
{{- range .Rows}}
<tr><td>{{.Label}}</td><td>{{.Minimum}}</td><td>{{.Maximum}}</td><td>{{.Average}}</td><td>{{.Sum}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

type pageRow struct {
	Label                          string
	Minimum, Maximum, Average, Sum string
	Count                          int
}

type pageData struct {
	Title string
	Image template.URL
	Rows  []pageRow
}

// WritePage writes an HTML page showing the encoded chart image and, when
// report is non-nil, a table of its column statistics.
func WritePage(w io.Writer, image []byte, format Format, report *models.InsightReport) error {
	mime := "image/svg+xml"
	if format == FormatPNG {
		mime = "image/png"
	}

	data := pageData{
		Title: Title,
		Image: template.URL(fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))),
	}
	if report != nil {
		for _, c := range report.Columns {
			data.Rows = append(data.Rows, pageRow{
				Label:   c.Label,
				Minimum: strconv.FormatFloat(c.Stats.Minimum, 'f', -1, 64),
				Maximum: strconv.FormatFloat(c.Stats.Maximum, 'f', -1, 64),
				Average: strconv.FormatFloat(c.Stats.Average, 'f', 2, 64),
				Sum:     strconv.FormatFloat(c.Stats.Sum, 'f', -1, 64),
				Count:   c.Stats.Count,
			})
		}
	}

	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("chart: render page: %w", err)
	}
	return nil
}
