package models

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// RenderData returns the report itself for structured serialization.
func (r *Report) RenderData() any { return r }

// RenderText writes a lint-style listing: one line per diagnostic, indented
// suggestions, catalog warnings, then a one-line summary.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	for _, res := range r.Results {
		for _, d := range res.Diagnostics {
			sev := string(d.Severity)
			if colored {
				sev = severityColor(d.Severity, sev)
			}
			fmt.Fprintf(w, "%s:%d: %s [%s] %s\n", d.File, d.Range.StartLine, sev, d.Rule, d.Message)
			for _, s := range d.Suggestions {
				fmt.Fprintf(w, "    suggestion: %s\n", s)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range r.Warnings {
			if colored {
				fmt.Fprintf(w, "%s %s\n", color.YellowString("warning:"), warn)
			} else {
				fmt.Fprintf(w, "warning: %s\n", warn)
			}
		}
	}

	fmt.Fprintln(w)
	if colored {
		color.New(color.Bold).Fprintln(w, r.summaryLine())
	} else {
		fmt.Fprintln(w, r.summaryLine())
	}
	return nil
}

// RenderMarkdown writes the diagnostics as a table followed by the summary.
func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Hook Analysis\n\n")

	diags := r.Diagnostics()
	if len(diags) > 0 {
		fmt.Fprintln(w, "| Location | Severity | Rule | Message |")
		fmt.Fprintln(w, "| --- | --- | --- | --- |")
		for _, d := range diags {
			fmt.Fprintf(w, "| %s:%d | %s | %s | %s |\n",
				d.File, d.Range.StartLine, d.Severity, d.Rule, d.Message)
		}
		fmt.Fprintln(w)
	}

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "> warning: %s\n", warn)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\n", r.summaryLine())
	return nil
}

func (r *Report) summaryLine() string {
	s := r.Summary
	return fmt.Sprintf("Summary: %d methods across %d files: %d valid hooks, %d deprecated, %d used, %d unused, %d exempt",
		s.TotalMethods, s.TotalFilesAnalyzed, s.ValidHooks, s.DeprecatedHooks,
		s.UsedMethods, s.UnusedMethods, s.ExemptMethods)
}

// severityColor colors severity text for terminal output.
func severityColor(sev Severity, text string) string {
	switch sev {
	case SeverityError:
		return color.RedString(text)
	case SeverityWarning:
		return color.YellowString(text)
	case SeverityInfo, SeverityHint:
		return color.CyanString(text)
	default:
		return text
	}
}
