package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/config"
	"github.com/pgEdge/filemigrate/internal/executor"
	"github.com/pgEdge/filemigrate/internal/migrate"
	"github.com/pgEdge/filemigrate/internal/templates"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

const (
	markApplied = "✓"
	markPending = "•"
	markFailed  = "✗"
	markSkipped = "-"
	markPlanned = "→"
)

func renderStatus(w io.Writer, paths config.Paths, report *migrate.StatusReport, now time.Time) {
	fmt.Fprintf(w, "%s %s\n", bold("Migrations:"), paths.MigrationsDir)
	fmt.Fprintf(w, "%s    %s\n", bold("History:"), paths.HistoryFile)

	if r := report.Reconciliation; r != nil {
		if r.Baseline != nil {
			line := fmt.Sprintf("%0*d", catalog.IDWidth, r.Baseline.Sequence)
			if r.Baseline.Summary != "" {
				line += " " + faint(r.Baseline.Summary)
			}
			fmt.Fprintf(w, "%s   %s\n", bold("Baseline:"), line)
		}

		if n := r.AppliedCount(); n > 0 {
			fmt.Fprintf(w, "\n%s\n", bold(fmt.Sprintf("Applied (%d):", n)))
			for _, entry := range r.Retired {
				fmt.Fprintf(w, "  %s %s %s\n", green(markApplied), entry.ID, faint("(baselined, file removed)"))
			}
			for _, a := range r.Applied {
				line := fmt.Sprintf("  %s %s", green(markApplied), a.Migration.ID)
				if a.Entry.AppliedAt != nil {
					line += " " + faint(fmt.Sprintf("applied %s (%s)",
						a.Entry.AppliedAt.Format(time.RFC3339),
						humanize.RelTime(*a.Entry.AppliedAt, now, "ago", "from now"),
					))
				}
				fmt.Fprintln(w, line)
			}
		}
	}

	pending := report.Pending()
	if len(pending) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold(fmt.Sprintf("Pending (%d):", len(pending))))
		for _, m := range pending {
			fmt.Fprintf(w, "  %s %s %s\n", yellow(markPending), m.ID, faint(m.FileName))
		}
	}

	if len(report.Problems) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold(red("Problems:")))
		for _, problem := range report.Problems {
			fmt.Fprintf(w, "  %s %s\n", red(markFailed), problem)
		}
	}

	fmt.Fprintf(w, "\n%d applied, %d pending\n", report.AppliedCount(), len(pending))
}

func renderMigrationStart(w io.Writer, m catalog.Migration, index, total int) {
	fmt.Fprintf(w, "%s %s %s\n", cyan(markPlanned), bold(m.ID), faint(fmt.Sprintf("[%d/%d]", index+1, total)))
}

func renderApply(w io.Writer, report *migrate.ApplyReport) {
	if report.UpToDate() {
		fmt.Fprintln(w, green("Already up to date."))
		return
	}

	if report.DryRun {
		fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("Would apply %d migration(s):", len(report.WouldApply))))
		for _, result := range report.WouldApply {
			fmt.Fprintf(w, "  %s %s %s\n", cyan(markPlanned), result.MigrationID, faint("(dry run)"))
		}
		return
	}

	fmt.Fprintln(w)
	for _, result := range report.Applied {
		fmt.Fprintf(w, "  %s %s %s\n", green(markApplied), result.MigrationID, faint(formatDuration(result.Duration)))
	}
	if result := report.Unrecorded; result != nil {
		fmt.Fprintf(w, "  %s %s %s\n", red(markFailed), result.MigrationID,
			red("succeeded but could not be recorded in history"))
	}
	if result := report.Failed; result != nil {
		fmt.Fprintf(w, "  %s %s %s\n", red(markFailed), result.MigrationID, red(result.Reason()))
		renderFailure(w, *result)
	}
	for _, m := range report.Skipped {
		fmt.Fprintf(w, "  %s %s %s\n", faint(markSkipped), m.ID, faint("(skipped)"))
	}

	summary := fmt.Sprintf("%d applied", len(report.Applied))
	if report.Failed != nil || report.Unrecorded != nil {
		summary += ", 1 failed"
	}
	if len(report.Skipped) > 0 {
		summary += fmt.Sprintf(", %d skipped", len(report.Skipped))
	}
	summary += " in " + formatDuration(report.Duration)
	fmt.Fprintf(w, "\n%s\n", summary)
}

func renderFailure(w io.Writer, result executor.Result) {
	if result.Output != "" {
		fmt.Fprintf(w, "\n    %s\n", faint(fmt.Sprintf("output (%s):", result.OutputSummary())))
		for _, line := range strings.Split(strings.TrimRight(result.Output, "\n"), "\n") {
			fmt.Fprintf(w, "    %s %s\n", faint("|"), line)
		}
	}
	if result.Command != "" {
		fmt.Fprintf(w, "\n    %s\n    %s\n\n", faint("re-run by hand with:"), result.Command)
	}
}

func renderBaseline(w io.Writer, report *migrate.BaselineReport) {
	verb := "Recorded"
	removed := "Removed"
	if report.DryRun {
		verb = "Would record"
		removed = "Would remove"
	}
	fmt.Fprintf(w, "%s baseline at %0*d covering %d migration(s)\n",
		verb, catalog.IDWidth, report.Baseline.Sequence, len(report.Covered))
	if report.Previous != nil {
		fmt.Fprintf(w, "  %s\n", faint(fmt.Sprintf("previous baseline: %0*d", catalog.IDWidth, report.Previous.Sequence)))
	}
	for _, r := range report.Removed {
		path := r.Path
		if r.IsDir {
			path += "/"
		}
		fmt.Fprintf(w, "  %s %s\n", faint(removed), path)
	}
}

func renderCreate(w io.Writer, report *migrate.CreateReport) {
	fmt.Fprintf(w, "%s %s\n", green("Created"), report.Migration.Path)
}

func renderTemplates(w io.Writer, list []templates.Template) {
	for _, t := range list {
		line := fmt.Sprintf("  %-8s .%-4s %s", t.Key, t.Extension, faint(t.Interpreter))
		if t.Key == templates.DefaultKey {
			line += " " + faint("(default)")
		}
		fmt.Fprintln(w, line)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
