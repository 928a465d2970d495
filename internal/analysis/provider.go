// Package analysis produces AnalysisResults from OCR text. The evidence core
// never calls providers directly; it only consumes results this package has
// already persisted.
package analysis

import (
	"context"
	"log/slog"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

// Provider extracts clauses and authenticity flags from OCR text.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, documentID, ocrText string) (domain.AnalysisResult, error)
}

// Chain tries providers in order and returns the first success. The last
// provider should be the deterministic heuristic, which cannot fail.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, logger: logger.With("component", "analysis")}
}

func (c *Chain) Analyze(ctx context.Context, documentID, ocrText string) (domain.AnalysisResult, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Analyze(ctx, documentID, ocrText)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.logger.Warn("analysis provider failed, trying next", "provider", p.Name(), "err", err)
	}
	return domain.AnalysisResult{}, lastErr
}
