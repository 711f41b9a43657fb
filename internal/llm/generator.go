// Package llm adapts the configured text-generation backend to a single
// prompt-in, text-out call.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/pkg/config"
)

// Generator produces text for a prompt. Components receive a nil Generator
// when no backend is configured and must fall back on their own.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type langchainGenerator struct {
	model       llms.Model
	provider    string
	timeout     time.Duration
	temperature float64
	log         *zap.Logger
	metrics     *metrics.Metrics
}

// New builds the backend named by cfg.Provider. It returns a nil Generator
// and no error when no API key is configured.
func New(ctx context.Context, cfg config.LLMConfig, log *zap.Logger, m *metrics.Metrics) (Generator, error) {
	if !cfg.Enabled() {
		log.Warn("generation backend not configured, components will use fallbacks")
		return nil, nil
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case "openai":
		model, err = openai.New(
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		)
	case "gemini":
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return Wrap(model, cfg.Provider, cfg.Timeout, log, m), nil
}

// Wrap adapts any langchaingo model.
func Wrap(model llms.Model, provider string, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) Generator {
	return &langchainGenerator{
		model:       model,
		provider:    provider,
		timeout:     timeout,
		temperature: 0.7,
		log:         log.Named("llm"),
		metrics:     m,
	}
}

func (g *langchainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracing.Start(ctx, "llm.generate")
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(g.temperature))
	g.metrics.ObserveLLMCall(time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		g.log.Warn("generation failed",
			zap.String("provider", g.provider),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s generation failed: %w", g.provider, err)
	}

	g.log.Debug("generation complete",
		zap.String("provider", g.provider),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
	)
	return text, nil
}

// StripCodeFences removes markdown code fences (with or without a language
// tag) that models like to wrap structured output in.
func StripCodeFences(s string) string {
	out := fenceReplacer.Replace(s)
	return strings.TrimSpace(out)
}

var fenceReplacer = strings.NewReplacer(
	"```json", "",
	"```JSON", "",
	"```svg", "",
	"```xml", "",
	"```", "",
)
