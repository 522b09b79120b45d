package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rexpaces/internal/artifacts"
	"rexpaces/internal/highlight"
	"rexpaces/internal/textutil"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var minScore float64
	var format string

	cmd := &cobra.Command{
		Use:   "show <run-dir|transcript.json>",
		Short: "List highlights from a finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := args[0]
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				dir = cfg.RunOutputDir(args[0])
			}

			var all []highlight.ExpandedHighlight
			if err := artifacts.ReadJSON(dir, artifacts.HighlightsFile, &all); err != nil {
				return err
			}
			shown := highlight.FilterByScore(all, minScore)

			switch strings.ToLower(strings.TrimSpace(format)) {
			case "json":
				return writeJSON(cmd, shown)
			case "table":
			case "", "auto":
				if !isTerminal(cmd.OutOrStdout()) {
					return writeJSON(cmd, shown)
				}
			default:
				return fmt.Errorf("unsupported format %q (use auto, table or json)", format)
			}

			out := cmd.OutOrStdout()
			if len(shown) == 0 {
				fmt.Fprintf(out, "No highlights with score >= %.2f (%d total)\n", minScore, len(all))
				return nil
			}
			fmt.Fprintln(out, renderHighlightTable(shown))
			fmt.Fprintf(out, "%d of %d highlights shown\n", len(shown), len(all))
			return nil
		},
	}

	cmd.Flags().Float64Var(&minScore, "min-score", minDisplayScore, "Hide highlights whose match score is below this value")
	cmd.Flags().StringVar(&format, "format", "auto", "Output format: auto, table or json")
	return cmd
}

func renderHighlightTable(highlights []highlight.ExpandedHighlight) string {
	headers := []string{"#", "Chunk", "Clip", "Length", "Quote span", "Score", "Expanded", "Quote"}
	rows := make([][]string, 0, len(highlights))
	for i, h := range highlights {
		qs, qe := h.QuoteSpan()
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(h.ChunkIndex + 1),
			textutil.FormatClock(h.Start) + "-" + textutil.FormatClock(h.End),
			fmt.Sprintf("%.1fs", h.Duration()),
			textutil.FormatClock(qs) + "-" + textutil.FormatClock(qe),
			fmt.Sprintf("%.2f", h.MatchScore),
			yesNo(h.Expanded()),
			truncate(h.Quote, 50),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft})
}
