package cmd

import (
	"time"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func newStatusCommand(i *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Long: `Show applied and pending migrations. Problems with the history, such as
orphaned entries or migrations that are out of order, are listed and cause a
non-zero exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			engine, err := invokeEngine(i)
			if err != nil {
				return err
			}

			report, err := engine.Status(ctx)
			if err != nil {
				return err
			}
			renderStatus(cmd.OutOrStdout(), engine.Paths(), report, time.Now())

			return report.Err()
		},
	}
}
