package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/spboyer/tabcheck/internal/checks"
)

// InterpretStatus returns a plain-language explanation of a check status.
func InterpretStatus(s checks.Status) string {
	switch s {
	case checks.StatusPassed:
		return "All conditions were met."
	case checks.StatusWarning:
		return "Only WARN conditions failed; the suite still passes."
	case checks.StatusFailed:
		return "At least one FAIL condition was not met."
	case checks.StatusError:
		return "The check could not run on this data or model."
	default:
		return ""
	}
}

// InterpretPassRate returns a human-readable explanation of a condition pass
// rate (0–1).
func InterpretPassRate(rate float64) string {
	pct := rate * 100
	switch {
	case pct >= 100:
		return fmt.Sprintf("All conditions passed (%.0f%%)", pct)
	case pct >= 80:
		return fmt.Sprintf("Most conditions passed (%.0f%%)", pct)
	case pct >= 50:
		return fmt.Sprintf("About half the conditions passed (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Few conditions passed (%.0f%%)", pct)
	}
}

// ConditionPassRate returns the share of evaluated conditions that passed and
// how many were evaluated. With no conditions the rate is 1.
func ConditionPassRate(res *checks.SuiteResult) (float64, int) {
	total, passed := 0, 0
	for _, o := range res.Outcomes {
		for _, c := range o.Conditions {
			total++
			if c.IsPass {
				passed++
			}
		}
	}
	if total == 0 {
		return 1, 0
	}
	return float64(passed) / float64(total), total
}

// FormatSummaryReport produces a plain-language summary of a suite result.
func FormatSummaryReport(res *checks.SuiteResult) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")

	rate, total := ConditionPassRate(res)
	if total > 0 {
		fmt.Fprintf(&b, "Conditions: %s, %d evaluated\n", InterpretPassRate(rate), total)
	} else {
		b.WriteString("Conditions: none attached\n")
	}
	fmt.Fprintf(&b, "Duration:   %v\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Checks:     %d passed, %d warnings, %d failed, %d errors out of %d total\n",
		res.Count(checks.StatusPassed),
		res.Count(checks.StatusWarning),
		res.Count(checks.StatusFailed),
		res.Count(checks.StatusError),
		len(res.Outcomes))

	if len(res.Outcomes) > 0 {
		b.WriteString("\nPer-Check Interpretation:\n")
		for _, o := range res.Outcomes {
			icon := "✓"
			if o.Status != checks.StatusPassed {
				icon = "✗"
			}
			fmt.Fprintf(&b, "  %s %s: %s\n", icon, title(o), o.Status)
			fmt.Fprintf(&b, "    %s\n", InterpretStatus(o.Status))
		}
	}

	return b.String()
}
