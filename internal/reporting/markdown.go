package reporting

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/spboyer/tabcheck/internal/checks"
)

// RenderMarkdown renders res as a GitHub-flavoured Markdown document.
func RenderMarkdown(res *checks.SuiteResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Suite %s\n\n", mdEscape(res.Suite))
	verdict := "passed"
	if !res.Passed() {
		verdict = "did not pass"
	}
	fmt.Fprintf(&b, "Run `%s` %s in %s.\n\n", res.RunID, verdict, res.Duration.Round(time.Millisecond))

	writeMarkdownTable(&b, []string{"Check", "Status", "Duration"}, summaryRows(res))

	for _, o := range res.Outcomes {
		fmt.Fprintf(&b, "## %s\n\n", mdEscape(title(o)))
		fmt.Fprintf(&b, "Status: **%s**\n\n", o.Status)
		if o.Err != nil {
			fmt.Fprintf(&b, "> %s\n\n", mdEscape(o.Err.Error()))
		}
		if o.Result != nil {
			for _, item := range o.Result.Display {
				switch it := item.(type) {
				case checks.Text:
					fmt.Fprintf(&b, "%s\n\n", mdEscape(string(it)))
				case checks.TableDisplay:
					if it.Title != "" {
						fmt.Fprintf(&b, "**%s**\n\n", mdEscape(it.Title))
					}
					writeMarkdownTable(&b, it.Headers, it.Rows)
				}
			}
		}
		if len(o.Conditions) > 0 {
			rows := make([][]string, 0, len(o.Conditions))
			for _, c := range o.Conditions {
				status := "✓"
				if !c.IsPass {
					status = "✗ " + string(c.Category)
				}
				rows = append(rows, []string{status, c.Name, c.Details})
			}
			writeMarkdownTable(&b, []string{"Status", "Condition", "More Info"}, rows)
		}
	}
	return b.String()
}

func summaryRows(res *checks.SuiteResult) [][]string {
	rows := make([][]string, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		rows = append(rows, []string{title(o), string(o.Status), o.Duration.Round(time.Millisecond).String()})
	}
	return rows
}

func writeMarkdownTable(b *strings.Builder, headers []string, rows [][]string) {
	cells := func(row []string) {
		b.WriteString("|")
		for i := range headers {
			var c string
			if i < len(row) {
				c = row[i]
			}
			fmt.Fprintf(b, " %s |", mdCell(c))
		}
		b.WriteString("\n")
	}
	cells(headers)
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows {
		cells(r)
	}
	b.WriteString("\n")
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(mdEscape(s), "|", `\|`)
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

func mdEscape(s string) string { return mdEscaper.Replace(s) }

// WriteMarkdown writes the Markdown report of res.
func WriteMarkdown(w io.Writer, res *checks.SuiteResult) error {
	_, err := io.WriteString(w, RenderMarkdown(res))
	return err
}

// WriteHTML converts the Markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, res *checks.SuiteResult) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(res)), &body); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}

	_, err := fmt.Fprintf(w, htmlPage, html.EscapeString(res.Suite), body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
</style>
</head>
<body>
%s</body>
</html>
`
