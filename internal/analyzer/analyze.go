// Package analyzer compiles a live page's DOM into a flat, serializable
// map of classified nodes: visible, interactive, unoccluded elements get
// stable highlight indexes for downstream automation and LLM consumption.
package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/brantansp/taf-dom-analyzer/internal/overlay"
	"github.com/brantansp/taf-dom-analyzer/internal/snapshot"
)

type config struct {
	policy    Policy
	logger    *slog.Logger
	clickable ClickabilitySource
}

// Option customizes an Analyze call.
type Option func(*config)

// WithPolicy replaces the default classification policy.
func WithPolicy(p Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithLogger sets the structured logger for the run.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClickability overrides the listener-introspection capability.
// Passing nil drops that classification signal entirely.
func WithClickability(src ClickabilitySource) Option {
	return func(c *config) { c.clickable = src }
}

// Analyze captures one DOM snapshot of the page, runs the classification
// engine over it, and when enabled renders the highlight overlays.
// Individual subtree failures degrade; the returned result is complete or
// partial, never nil on success.
func Analyze(ctx context.Context, page *rod.Page, settings Settings, opts ...Option) (*Result, error) {
	cfg := config{
		policy:    DefaultPolicy(),
		logger:    slog.Default(),
		clickable: snapshotClickability{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	snap, err := snapshot.Capture(ctx, page)
	if err != nil {
		return nil, err
	}

	result, boxes, err := newRun(snap, settings, cfg.policy, cfg.logger, cfg.clickable).execute()
	if err != nil {
		return nil, err
	}

	if settings.HighlightElements && len(boxes) > 0 {
		if err := overlay.Render(ctx, page, boxes); err != nil {
			// Rendering is cosmetic; the analysis result stands.
			cfg.logger.Warn("analyzer: overlay render failed", "error", err)
		}
	}

	if settings.DebugMode {
		if dump, err := json.Marshal(result); err == nil {
			cfg.logger.Debug("analyzer: result", "envelope", string(dump))
		}
	}

	cfg.logger.Info("analyzer: run complete",
		"url", result.URL,
		"total", result.TotalElements,
		"highlighted", result.HighlightedElements)

	return result, nil
}

// Cleanup removes every overlay a previous Analyze drew on the page.
// Idempotent and safe without a prior Analyze.
func Cleanup(ctx context.Context, page *rod.Page) error {
	return overlay.Cleanup(ctx, page)
}
