package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pgEdge/filemigrate/internal/migrate"
)

func newBaselineCommand(i *do.Injector) *cobra.Command {
	var (
		summary string
		keep    bool
		dryRun  bool
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "baseline <sequence>",
		Short: "Mark migrations up to a sequence as applied and remove them",
		Long: `Record a baseline in the history at the given sequence. Every migration at or
below it must already be applied. Their files, and any asset directories named
after them, are then deleted unless --keep is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sequence, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sequence %q: %w", args[0], err)
			}

			ctx, stop := signalContext()
			defer stop()

			engine, err := invokeEngine(i)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := migrate.BaselineOptions{
				Sequence: sequence,
				Summary:  summary,
				Keep:     keep,
				DryRun:   dryRun,
			}

			if !keep && !dryRun && !yes {
				plan := opts
				plan.DryRun = true
				report, err := engine.Baseline(ctx, plan)
				if err != nil {
					return err
				}
				renderBaseline(out, report)

				if len(report.Removed) > 0 {
					confirmed, err := confirm("Delete these files")
					if err != nil {
						return err
					}
					if !confirmed {
						fmt.Fprintln(out, "Aborted.")
						return nil
					}
				}
			}

			report, err := engine.Baseline(ctx, opts)
			if report != nil {
				renderBaseline(out, report)
			}

			return err
		},
	}
	cmd.Flags().StringVarP(&summary, "summary", "s", "", "Note stored with the baseline in the history file.")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the baselined migration files.")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be recorded and removed without changing anything.")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete files without asking for confirmation.")

	return cmd
}

func confirm(label string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("refusing to delete files without confirmation, pass --yes or --keep")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
