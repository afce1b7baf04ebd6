package scanner

import (
	"context"
	"fmt"

	"FeedScanner/internal/domain"
)

// Scanner captures a single fetch strategy (rss, html, ...).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, source domain.SourceDescriptor) ([]domain.RawItem, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry populated with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
// An empty name resolves to the rss strategy.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if name == "" {
		name = domain.SourceKindRSS
	}
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
