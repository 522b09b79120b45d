package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"rexpaces/internal/analysis"
	"rexpaces/internal/artifacts"
	"rexpaces/internal/generation"
	"rexpaces/internal/logging"
	"rexpaces/internal/services"
	"rexpaces/internal/transcript"
)

// runRequest describes one transcript analysis. Zero overrides keep the
// configured values.
type runRequest struct {
	TranscriptPath  string
	OutputDir       string
	ChunkDuration   int
	MinClipDuration int
	HasMinClip      bool
}

type runOutcome struct {
	RunID     string
	OutputDir string
	Result    *analysis.Result
}

func (c *commandContext) analyzeTranscript(ctx context.Context, gen generation.Generator, logger *slog.Logger, req runRequest) (*runOutcome, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	path, err := filepath.Abs(req.TranscriptPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "run", "resolve transcript", req.TranscriptPath, err)
	}
	tr, err := transcript.Load(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "run", "load transcript", path, err)
	}

	outDir := req.OutputDir
	if outDir == "" {
		outDir = cfg.RunOutputDir(path)
	}
	store, err := artifacts.Open(outDir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "run", "open output directory", outDir, err)
	}
	defer store.Close()

	runLogger, closer, err := logging.WithRunLog(logger, store.Path(artifacts.RunLogFile))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	if !store.Exists(artifacts.TranscriptFile) {
		archived := tr
		archived.Text = tr.FullText()
		if err := store.Save(artifacts.TranscriptFile, archived); err != nil {
			return nil, err
		}
	}

	opts := analysis.OptionsFromConfig(cfg)
	if req.ChunkDuration > 0 {
		opts.ChunkDuration = float64(req.ChunkDuration)
	}
	if req.HasMinClip {
		opts.MinClipDuration = float64(req.MinClipDuration)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logging.WithContext(ctx, runLogger).Info("analysis started",
		logging.String(logging.FieldEventType, "analysis_started"),
		logging.String("transcript", path),
		logging.String("output_dir", outDir),
		logging.String("backend", generation.BackendName(gen)),
		logging.Int("segments", len(tr.Segments)),
		logging.Int("words", tr.WordCount()),
		logging.Float64("duration", tr.Duration()),
	)

	result, err := analysis.New(gen, store, opts, runLogger).Run(ctx, tr)
	if err != nil {
		return nil, err
	}
	return &runOutcome{RunID: runID, OutputDir: outDir, Result: result}, nil
}
