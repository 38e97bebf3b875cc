// Package embedding turns candidate profiles and job postings into vectors and stores them
// in the similarity index.
package embedding

import (
	"context"
	"strings"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
	"automatch-workers/internal/common/logger"
)

// Provider produces a fixed-dimension embedding for a piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// NewProvider builds the configured provider. A missing API key is a fatal
// configuration error.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig, log logger.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.NewProviderNotConfiguredError(cfg.Provider, "embedding api key is missing")
	}

	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Dimension)
	case "openai", "":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimension, cfg.EmbeddingTimeout()), nil
	default:
		return nil, apperrors.NewProviderNotConfiguredError(cfg.Provider, "unknown embedding provider")
	}
}

// Unconfigured fails every call with err. Processes that can start without embeddings
// use it so a matching run records the configuration error as fatal.
type Unconfigured struct {
	err   error
	model string
}

func NewUnconfigured(err error, model string) *Unconfigured {
	return &Unconfigured{err: err, model: model}
}

func (u *Unconfigured) Model() string {
	return u.model
}

func (u *Unconfigured) Embed(context.Context, string) ([]float32, error) {
	return nil, u.err
}
