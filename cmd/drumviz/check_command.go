package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"drumviz/internal/preflight"
	"drumviz/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, segment sources, and ffmpeg support",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkStatus(r), r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			blocking := preflight.Blocking(results)
			if len(blocking) > 0 {
				return services.Wrap(services.ErrConfiguration, "check", "", fmt.Sprintf("%d blocking check(s) failed", len(blocking)), nil)
			}
			fmt.Fprintln(out, "Ready to render")
			return nil
		},
	}
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Advisory:
		return "warn"
	default:
		return "FAIL"
	}
}
