package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedScanner/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (n namedScanner) Scan(context.Context, domain.SourceDescriptor) ([]domain.RawItem, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedScanner("rss"), namedScanner("html"))

	s, err := reg.Resolve("html")
	require.NoError(t, err)
	assert.Equal(t, "html", s.Name())

	s, err = reg.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "rss", s.Name())

	_, err = reg.Resolve("sitemap")
	assert.EqualError(t, err, "scanner sitemap is not registered")
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(namedScanner("rss"))
	reg.Register(namedScanner("rss"))

	assert.Len(t, reg.scanners, 1)
}
