package parser

import (
	"context"
	"fmt"
	"log/slog"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
	"FeedScanner/internal/scanner"
)

// StrategySource implements FeedFetcher via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.FeedFetcher = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Fetch resolves the strategy for the source kind and executes it.
func (s *StrategySource) Fetch(ctx context.Context, source domain.SourceDescriptor) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(source.Kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name, err)
	}

	s.debug("scan source", "source", source.Name, "scanner", strategy.Name(), "url", source.URL)
	items, err := strategy.Scan(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", source.Name, err)
	}

	s.debug("source produced items", "source", source.Name, "count", len(items))
	return items, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
