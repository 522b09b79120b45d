package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rexpaces/internal/artifacts"
	"rexpaces/internal/chunking"
	"rexpaces/internal/config"
	"rexpaces/internal/generation"
	"rexpaces/internal/highlight"
	"rexpaces/internal/logging"
	"rexpaces/internal/services"
	"rexpaces/internal/textutil"
	"rexpaces/internal/transcript"
)

// Stage names used in logs and wrapped errors.
const (
	StageGrouping = "grouping"
	StageResume   = "resume"
	StagePass1    = "pass1"
	StageContext  = "context"
	StagePass2    = "pass2"
	StageAlign    = "align"
	StageExpand   = "expand"
)

// Options tunes a run.
type Options struct {
	ChunkDuration   float64
	MinClipDuration float64
	Align           highlight.AlignOptions
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		ChunkDuration:   300,
		MinClipDuration: highlight.DefaultMinClipDuration,
		Align:           highlight.DefaultAlignOptions(),
	}
}

// OptionsFromConfig reads the analysis section.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.ChunkDuration = cfg.ChunkDuration()
	opts.MinClipDuration = cfg.MinClipDuration()
	opts.Align = highlight.AlignOptions{
		Buffer:   cfg.AlignmentBuffer(),
		MinScore: cfg.Analysis.MinMatchScore,
	}
	return opts
}

// Orchestrator runs the two-pass highlight analysis over a transcript.
type Orchestrator struct {
	gen    generation.Generator
	store  *artifacts.Store
	opts   Options
	logger *slog.Logger
}

// New constructs an orchestrator. A nil store disables resume and persistence.
func New(gen generation.Generator, store *artifacts.Store, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gen:    gen,
		store:  store,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "analysis"),
	}
}

// Run groups the transcript into chunks, summarizes them (or resumes saved
// summaries), extracts the conversation context, detects highlights per chunk
// and pins them to word timestamps.
func (o *Orchestrator) Run(ctx context.Context, tr transcript.Transcript) (*Result, error) {
	if o == nil || o.gen == nil {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "run", "generator unavailable", nil)
	}
	if o.opts.ChunkDuration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "analysis", "run",
			fmt.Sprintf("chunk duration must be positive, got %v", o.opts.ChunkDuration), nil)
	}
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	runStart := time.Now()
	logger := logging.WithContext(ctx, o.logger)

	chunks := chunking.Group(tr.Segments, o.opts.ChunkDuration)
	logger.Info("transcript grouped",
		logging.String(logging.FieldEventType, "chunks_grouped"),
		logging.Int("segments", len(tr.Segments)),
		logging.Int("chunks", len(chunks)),
		logging.Float64("chunk_duration", o.opts.ChunkDuration),
	)

	result := &Result{Chunks: chunks}
	if o.canResume() {
		summaries, conv, err := o.resume(ctx)
		if err != nil {
			return nil, err
		}
		result.Summaries, result.Context, result.Resumed = summaries, conv, true
	} else {
		summaries, err := o.summarize(ctx, chunks)
		if err != nil {
			return nil, err
		}
		conv, err := o.extractContext(ctx, summaries)
		if err != nil {
			return nil, err
		}
		result.Summaries, result.Context = summaries, conv
	}

	raw, err := o.detect(ctx, chunks, result.Context)
	if err != nil {
		return nil, err
	}
	result.Raw = raw

	alignCtx := services.WithStage(ctx, StageAlign)
	aligned := highlight.MapToTimestamps(raw, tr.Segments, o.opts.Align)
	o.logAlignment(alignCtx, aligned)

	result.Highlights = o.expand(services.WithStage(ctx, StageExpand), aligned, tr.Segments)
	if err := o.save(artifacts.HighlightsFile, result.Highlights); err != nil {
		return nil, services.Wrap(services.ErrTransient, StageExpand, "persist", "save highlights", err)
	}

	logger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String("topic", result.Context.Topic),
		logging.Int("highlights", len(result.Highlights)),
		logging.Bool("resumed", result.Resumed),
		logging.Duration("elapsed", time.Since(runStart)),
	)
	return result, nil
}

func (o *Orchestrator) canResume() bool {
	return o.store != nil && o.store.CanResume()
}

func (o *Orchestrator) resume(ctx context.Context) ([]ChunkSummary, ConversationContext, error) {
	ctx = services.WithStage(ctx, StageResume)
	logger := logging.WithContext(ctx, o.logger)

	var summaries []ChunkSummary
	var conv ConversationContext
	if err := o.store.Load(artifacts.SummariesFile, &summaries); err != nil {
		return nil, conv, services.Wrap(services.ErrValidation, StageResume, "load summaries", "", err)
	}
	if err := o.store.Load(artifacts.ContextFile, &conv); err != nil {
		return nil, conv, services.Wrap(services.ErrValidation, StageResume, "load context", "", err)
	}
	logger.Info("resuming from saved analysis",
		logging.String(logging.FieldEventType, "analysis_resumed"),
		logging.Int("summaries", len(summaries)),
		logging.String("topic", conv.Topic),
		logging.String("dir", o.store.Dir()),
	)
	return summaries, conv, nil
}

func (o *Orchestrator) summarize(ctx context.Context, chunks []chunking.Chunk) ([]ChunkSummary, error) {
	ctx = services.WithStage(ctx, StagePass1)
	summaries := make([]ChunkSummary, 0, len(chunks))
	for i, chunk := range chunks {
		chunkCtx := services.WithChunkIndex(ctx, chunk.Index)
		logging.WithContext(chunkCtx, o.logger).Info("summarizing chunk",
			logging.Int("position", i+1),
			logging.Int("total", len(chunks)),
		)
		text, err := o.gen.Generate(chunkCtx, SummarizePrompt(chunk.Text, chunk.Index, chunk.StartTime, chunk.EndTime))
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d: %w", chunk.Index, err)
		}
		summaries = append(summaries, ChunkSummary{
			Index:     chunk.Index,
			StartTime: chunk.StartTime,
			EndTime:   chunk.EndTime,
			Summary:   strings.TrimSpace(text),
		})
	}
	if err := o.save(artifacts.SummariesFile, summaries); err != nil {
		return nil, services.Wrap(services.ErrTransient, StagePass1, "persist", "save summaries", err)
	}
	return summaries, nil
}

func (o *Orchestrator) extractContext(ctx context.Context, summaries []ChunkSummary) (ConversationContext, error) {
	ctx = services.WithStage(ctx, StageContext)
	logger := logging.WithContext(ctx, o.logger)

	text, err := o.gen.Generate(ctx, ContextPrompt(summaries))
	if err != nil {
		return ConversationContext{}, fmt.Errorf("extract conversation context: %w", err)
	}
	conv, err := ParseContext(text)
	if err != nil {
		logging.ErrorWithContext(logger, "conversation context unusable", "context_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the model response or switch generation.provider"),
			logging.String(logging.FieldImpact, "run aborted before highlight detection"),
		)
		return ConversationContext{}, err
	}
	if err := o.save(artifacts.ContextFile, conv); err != nil {
		return ConversationContext{}, services.Wrap(services.ErrTransient, StageContext, "persist", "save context", err)
	}
	logger.Info("conversation context extracted",
		logging.String(logging.FieldEventType, "context_extracted"),
		logging.String("topic", conv.Topic),
		logging.Int("key_points", len(conv.KeyPoints)),
		logging.Int("participants", len(conv.Participants)),
	)
	return conv, nil
}

func (o *Orchestrator) detect(ctx context.Context, chunks []chunking.Chunk, conv ConversationContext) ([]highlight.RawHighlight, error) {
	ctx = services.WithStage(ctx, StagePass2)
	var raws []highlight.RawHighlight
	for i, chunk := range chunks {
		chunkCtx := services.WithChunkIndex(ctx, chunk.Index)
		logger := logging.WithContext(chunkCtx, o.logger)
		logger.Info("detecting highlights",
			logging.Int("position", i+1),
			logging.Int("total", len(chunks)),
		)
		text, err := o.gen.Generate(chunkCtx, DetectPrompt(chunk.Text, chunk.StartTime, chunk.EndTime, conv))
		if err != nil {
			return nil, fmt.Errorf("detect highlights in chunk %d: %w", chunk.Index, err)
		}
		quotes, err := ParseHighlights(text)
		if err != nil {
			if !services.Recoverable(err) {
				return nil, err
			}
			logging.WarnWithContext(logger, "highlight response unusable; skipping chunk", "highlight_parse_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "chunk contributes no highlights"),
			)
			continue
		}
		for _, q := range quotes {
			raws = append(raws, highlight.RawHighlight{
				ChunkIndex:     chunk.Index,
				ChunkStartTime: chunk.StartTime,
				ChunkEndTime:   chunk.EndTime,
				Quote:          q.Quote,
				Reason:         q.Reason,
			})
		}
		logger.Debug("chunk highlights detected", logging.Int("count", len(quotes)))
	}
	return raws, nil
}

func (o *Orchestrator) logAlignment(ctx context.Context, aligned []highlight.AlignedHighlight) {
	logger := logging.WithContext(ctx, o.logger)
	accepted := 0
	for _, h := range aligned {
		if h.MatchScore > 0 {
			accepted++
			continue
		}
		logging.WarnWithContext(logger, "quote not found in transcript", "quote_unmatched",
			logging.Int(logging.FieldChunkIndex, h.ChunkIndex),
			logging.String("quote", h.Quote),
			logging.String(logging.FieldImpact, "highlight falls back to the chunk window"),
			logging.String(logging.FieldErrorHint, "the model paraphrased instead of quoting"),
		)
	}
	logger.Info("highlights aligned",
		logging.String(logging.FieldEventType, "highlights_aligned"),
		logging.Int("total", len(aligned)),
		logging.Int("matched", accepted),
	)
}

func (o *Orchestrator) expand(ctx context.Context, aligned []highlight.AlignedHighlight, segments []transcript.Segment) []highlight.ExpandedHighlight {
	logger := logging.WithContext(ctx, o.logger)
	out := make([]highlight.ExpandedHighlight, 0, len(aligned))
	for i, h := range aligned {
		e := highlight.Expand(h, segments, o.opts.MinClipDuration)
		out = append(out, e)
		logger.Info("highlight span resolved",
			logging.String(logging.FieldEventType, "highlight_expanded"),
			logging.Int("highlight", i+1),
			logging.String("duration", fmt.Sprintf("%.1fs -> %.1fs", h.Duration(), e.Duration())),
			logging.Bool("expanded", e.Expanded()),
			logging.String("window", textutil.FormatClock(e.Start)+"-"+textutil.FormatClock(e.End)),
			logging.String("match", textutil.Ternary(h.MatchScore > 0, "matched", "fallback")),
		)
	}
	return out
}

func (o *Orchestrator) save(name string, v any) error {
	if o.store == nil {
		return nil
	}
	return o.store.Save(name, v)
}
