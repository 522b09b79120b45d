package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"rexpaces/internal/config"
	"rexpaces/internal/generation"
	"rexpaces/internal/logging"
	"rexpaces/internal/preflight"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// openQueue builds the configured backend, runs preflight against it and
// wraps it in a generation queue. The caller closes the queue.
func (c *commandContext) openQueue(ctx context.Context, logger *slog.Logger) (*generation.Queue, generation.Generator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	backend, err := generation.NewBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := preflight.Err(preflight.RunAll(ctx, cfg, backend)); err != nil {
		return nil, nil, err
	}
	opts := append(generation.QueueOptions(cfg), generation.WithLogger(logger))
	return generation.NewQueue(backend, opts...), backend, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
