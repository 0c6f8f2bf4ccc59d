package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/spboyer/tabcheck/internal/checks"
)

const ruleWidth = 66

type palette struct {
	pass, warn, fail, dim, bold *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		pass: mk(color.FgGreen),
		warn: mk(color.FgYellow),
		fail: mk(color.FgRed, color.Bold),
		dim:  mk(color.Faint),
		bold: mk(color.Bold),
	}
}

func (p palette) status(s checks.Status) string {
	label := strings.ToUpper(string(s))
	switch s {
	case checks.StatusPassed:
		return p.pass.Sprint(label)
	case checks.StatusWarning:
		return p.warn.Sprint(label)
	default:
		return p.fail.Sprint(label)
	}
}

func (p palette) condition(r checks.ConditionResult) string {
	switch {
	case r.IsPass:
		return p.pass.Sprint("✓")
	case r.Category == checks.CategoryWarn:
		return p.warn.Sprint("!")
	default:
		return p.fail.Sprint("✗")
	}
}

// WriteText renders res for a terminal.
func WriteText(w io.Writer, res *checks.SuiteResult, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	for _, o := range res.Outcomes {
		fmt.Fprintf(&b, "%s\n", strings.Repeat("─", ruleWidth))
		fmt.Fprintf(&b, "%s  %s", p.bold.Sprint(title(o)), p.status(o.Status))
		if opts.Verbose {
			fmt.Fprintf(&b, "  %s", p.dim.Sprint(o.Duration.Round(time.Millisecond)))
		}
		b.WriteString("\n")

		if o.Err != nil {
			fmt.Fprintf(&b, "  error: %v\n", o.Err)
		}
		if o.Result != nil {
			for _, item := range o.Result.Display {
				writeTextItem(&b, item)
			}
		}
		if len(o.Conditions) > 0 {
			b.WriteString("  Conditions:\n")
			for _, c := range o.Conditions {
				fmt.Fprintf(&b, "    %s %s", p.condition(c), c.Name)
				if !c.IsPass {
					fmt.Fprintf(&b, " [%s]", c.Category)
				}
				if c.Details != "" {
					fmt.Fprintf(&b, ": %s", c.Details)
				}
				b.WriteString("\n")
			}
		}
	}

	fmt.Fprintf(&b, "%s\n", strings.Repeat("═", ruleWidth))
	fmt.Fprintf(&b, "Suite %s: %d passed, %d warnings, %d failed, %d errors (%d checks) in %s\n",
		res.Suite,
		res.Count(checks.StatusPassed),
		res.Count(checks.StatusWarning),
		res.Count(checks.StatusFailed),
		res.Count(checks.StatusError),
		len(res.Outcomes),
		res.Duration.Round(time.Millisecond))
	if opts.Verbose {
		fmt.Fprintf(&b, "Run ID: %s\n", res.RunID)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextItem(b *strings.Builder, item checks.DisplayItem) {
	switch it := item.(type) {
	case checks.Text:
		fmt.Fprintf(b, "  %s\n", it)
	case checks.TableDisplay:
		if it.Title != "" {
			fmt.Fprintf(b, "  %s\n", it.Title)
		}
		writeTable(b, it.Headers, it.Rows, "    ")
	}
}

// writeTable aligns cells by display width so wide runes stay in column.
func writeTable(b *strings.Builder, headers []string, rows [][]string, indent string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	line := func(cells []string) {
		b.WriteString(indent)
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(widths)-1 {
				b.WriteString(cell)
			} else {
				b.WriteString(padRight(cell, widths[i]))
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}

	line(headers)
	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * max(len(widths)-1, 0)
	fmt.Fprintf(b, "%s%s\n", indent, strings.Repeat("─", total))
	for _, row := range rows {
		line(row)
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
