package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rexpaces/internal/config"
	"rexpaces/internal/logging"
	"rexpaces/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var inbox string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze transcripts as they are dropped into the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := inbox
			if dir == "" {
				dir = cfg.Paths.InboxDir
			} else if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve inbox: %w", err)
			}
			if dir == "" {
				return errors.New("no inbox directory: set paths.inbox_dir or pass --inbox")
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			queue, _, err := ctx.openQueue(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer queue.Close()

			handler := func(runCtx context.Context, path string) error {
				outcome, err := ctx.analyzeTranscript(runCtx, queue, logger, runRequest{TranscriptPath: path})
				if err != nil {
					return err
				}
				logger.Info("inbox transcript analyzed",
					logging.String(logging.FieldEventType, "inbox_processed"),
					logging.String("transcript", path),
					logging.String("output_dir", outcome.OutputDir),
					logging.Int("highlights", len(outcome.Result.Highlights)),
				)
				return nil
			}

			w, err := watcher.New(dir, handler, logger)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for transcripts (Ctrl+C to stop)\n", dir)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inbox, "inbox", "", "Directory to watch (default: paths.inbox_dir)")
	return cmd
}
