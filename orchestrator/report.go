package orchestrator

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// RenderReportHTML renders the run report as the HTML body of the summary
// email.
func RenderReportHTML(report RunReport) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Content pipeline run %s</h2>", html.EscapeString(report.RunID))
	fmt.Fprintf(&b, "<p>Started: %s<br>Finished: %s<br>Duration: %s</p>",
		report.StartedAt.Format(time.RFC1123),
		report.FinishedAt.Format(time.RFC1123),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Second))

	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0">`)
	b.WriteString("<tr><th>Agent</th><th>Status</th><th>Result</th><th>Duration</th></tr>")
	for _, res := range report.Results {
		detail := res.Detail
		if res.Err != nil {
			detail += " — " + res.Err.Error()
		}
		color := "#2e7d32"
		if res.Status == StatusFailed {
			color = "#c62828"
		} else if res.Status == StatusSkipped {
			color = "#757575"
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td style="color:%s">%s</td><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(res.Name), color, html.EscapeString(res.Status),
			html.EscapeString(detail), res.Duration.Round(time.Millisecond))
	}
	b.WriteString("</table></body></html>")
	return b.String()
}
