package graphing

import (
	"html/template"
	"strings"
)

// HTML templates for report decoration
var templates = template.Must(template.New("").Funcs(templateFuncs).Parse(`
{{define "styles"}}
<style>
* {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
}
body {
    max-width: 1400px;
    margin: 0 auto;
    padding: 20px;
}
.report-info-container {
    margin-bottom: 20px;
}
.report-info-header {
    border-bottom: 2px solid #333;
    padding-bottom: 10px;
    margin-bottom: 15px;
}
.report-info-header h1 {
    margin: 0;
    font-size: 18px;
}
.run-id {
    font-size: 11px;
    color: #666;
    font-family: monospace;
}
.info-section {
    margin-bottom: 15px;
    padding: 15px;
    background: #f5f5f5;
    border: 1px solid #ddd;
}
.info-table {
    width: 100%;
    border-collapse: collapse;
    font-size: 12px;
}
.info-table td {
    padding: 3px 8px;
    border-bottom: 1px solid #eee;
}
.info-table td:first-child {
    width: 150px;
    color: #666;
}
.info-table td:last-child {
    font-family: monospace;
    font-size: 11px;
    word-break: break-all;
}
.info-table tr:last-child td {
    border-bottom: none;
}
.container {
    display: block !important;
    margin: 0 0 10px 0 !important;
    padding: 15px !important;
    background: #f5f5f5 !important;
    border: 1px solid #ddd !important;
    overflow: hidden !important;
}
.item {
    margin: 0 !important;
}
</style>
{{end}}

{{define "scripts"}}
<script>
window.addEventListener('resize', function() {
    document.querySelectorAll('[_echarts_instance_]').forEach(function(el) {
        var c = echarts.getInstanceByDom(el);
        if (c) c.resize();
    });
});
</script>
{{end}}

{{define "report_info"}}
<div class="report-info-container">
    <div class="report-info-header">
        <h1>{{.Name}}</h1>
        {{if .RunID}}<div class="run-id">Run: {{.RunID}}</div>{{end}}
    </div>
    <div class="info-section">
    <table class="info-table">
        {{template "row" dict "Label" "Source" "Value" .Source}}
        {{template "row" dict "Label" "Processes" "Value" .Processes}}
        {{template "row" dict "Label" "Samples" "Value" .Samples}}
        {{template "row" dict "Label" "Skipped lines" "Value" .Skipped}}
        {{template "row" dict "Label" "Label mismatches" "Value" .Mismatches}}
        {{if .Filters}}{{template "row" dict "Label" "Filters" "Value" (join .Filters ", ")}}{{end}}
    </table>
    </div>
</div>
{{end}}

{{define "row"}}
<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}
`))

var templateFuncs = template.FuncMap{
	"dict": dictFunc,
	"join": strings.Join,
}

// dictFunc creates a map from key-value pairs for template use.
func dictFunc(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	dict := make(map[string]interface{}, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		dict[key] = values[i+1]
	}
	return dict
}
