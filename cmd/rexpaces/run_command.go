package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"rexpaces/internal/artifacts"
	"rexpaces/internal/generation"
	"rexpaces/internal/highlight"
	"rexpaces/internal/textutil"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var chunkDuration int
	var minClipDuration int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run <transcript.json>",
		Short: "Analyze a transcript and write highlights.json",
		Long: `Analyze a transcript with word timestamps and write highlights.json.

Chunk summaries and the conversation context are saved next to it; rerunning
over the same output directory reuses them and only repeats detection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			queue, backend, err := ctx.openQueue(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer queue.Close()

			req := runRequest{
				TranscriptPath: args[0],
				ChunkDuration:  chunkDuration,
			}
			if outputDir != "" {
				abs, err := filepath.Abs(outputDir)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				req.OutputDir = abs
			}
			if cmd.Flags().Changed("min-clip-duration") {
				req.MinClipDuration = minClipDuration
				req.HasMinClip = true
			}

			outcome, err := ctx.analyzeTranscript(cmd.Context(), queue, logger, req)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, outcome.Result.Highlights)
			}
			printRunSummary(cmd.OutOrStdout(), generation.BackendName(backend), outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for run artifacts (default: <output_dir>/<transcript name>)")
	cmd.Flags().IntVar(&chunkDuration, "chunk-duration", 0, "Chunk duration in seconds (default from config)")
	cmd.Flags().IntVar(&minClipDuration, "min-clip-duration", 0, "Minimum clip duration in seconds (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print highlights as JSON")
	return cmd
}

func printRunSummary(out io.Writer, backend string, outcome *runOutcome) {
	result := outcome.Result
	fmt.Fprintf(out, "Run ID: %s\n", outcome.RunID)
	fmt.Fprintf(out, "Backend: %s\n", backend)
	if result.Resumed {
		fmt.Fprintln(out, "Resumed from saved chunk summaries and context")
	}
	fmt.Fprintf(out, "Chunks: %d\n", len(result.Chunks))
	fmt.Fprintf(out, "Conversation topic: %s\n", result.Context.Topic)

	matched := highlight.FilterByScore(result.Highlights, minDisplayScore)
	fmt.Fprintf(out, "Highlights: %d detected, %d with timestamps\n", len(result.Highlights), len(matched))
	for i, h := range matched {
		fmt.Fprintf(out, "  %d. [%s - %s] %.1fs score %.2f\n", i+1,
			textutil.FormatClock(h.Start), textutil.FormatClock(h.End), h.Duration(), h.MatchScore)
		fmt.Fprintf(out, "     %q\n", truncate(h.Quote, 60))
	}
	fmt.Fprintf(out, "Highlights saved to: %s\n", filepath.Join(outcome.OutputDir, artifacts.HighlightsFile))
}
