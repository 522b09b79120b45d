package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rexpaces/internal/generation"
	"rexpaces/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories and the generation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			fmt.Fprintf(out, "Provider: %s\n", cfg.Generation.Provider)

			backend, err := generation.NewBackend(cmd.Context(), cfg)
			if err != nil {
				fmt.Fprintf(out, "Backend unavailable: %v\n", err)
				backend = nil
			}
			results := preflight.RunAll(cmd.Context(), cfg, backend)

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			return preflight.Err(results)
		},
	}
}

func passLabel(passed bool) string {
	if passed {
		return "OK"
	}
	return "FAIL"
}
