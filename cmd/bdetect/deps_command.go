package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bdetect/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that external dependencies are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			statuses = append(statuses, deps.CheckModel(cfg))

			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				if !status.Available && !status.Optional {
					missing++
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(status.Available),
					status.Detail,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Available", "Detail"},
				rows,
			))

			if missing > 0 {
				return fmt.Errorf("%d required dependencies are missing", missing)
			}
			fmt.Fprintln(out, "All required dependencies are available.")
			return nil
		},
	}
}
