package cmd

import (
	"github.com/samber/do"
	"github.com/spf13/cobra"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/migrate"
)

func newUpCommand(i *do.Injector) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			engine, err := invokeEngine(i)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report, err := engine.Apply(ctx, migrate.ApplyOptions{
				DryRun: dryRun,
				OnStart: func(m catalog.Migration, index, total int) {
					renderMigrationStart(out, m, index, total)
				},
			})
			if report != nil {
				renderApply(out, report)
			}

			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without running them.")

	return cmd
}
