package kb

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

// MemoryKB is an in-memory domain.KnowledgeBase test double, keyed the same
// way HotIndex keys its cache. It lets other packages' tests exercise the
// Aggregator/Classifier wiring against a KnowledgeBase without standing up a
// real DuckDB or SQLite file.
type MemoryKB struct {
	name    string
	version string
	shape   domain.QueryShape
	records map[string][]domain.KnowledgeBaseHit
}

// NewMemoryKB builds an empty in-memory knowledge base.
func NewMemoryKB(name, version string, shape domain.QueryShape) *MemoryKB {
	return &MemoryKB{name: name, version: version, shape: shape, records: make(map[string][]domain.KnowledgeBaseHit)}
}

func (m *MemoryKB) Name() string             { return m.name }
func (m *MemoryKB) Version() string          { return m.version }
func (m *MemoryKB) Shape() domain.QueryShape { return m.shape }

// Put seeds the knowledge base with hits addressable under key, using the
// same keying scheme as HotIndex.cacheKey for the KB's query shape.
func (m *MemoryKB) Put(key string, hits ...domain.KnowledgeBaseHit) {
	m.records[key] = hits
}

func (m *MemoryKB) Lookup(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	return m.records[m.keyFor(v)], nil
}

func (m *MemoryKB) keyFor(v *domain.Variant) string {
	switch m.shape {
	case domain.QueryGeneSymbol:
		return v.GeneSymbol
	case domain.QueryAASubstitution, domain.QueryCodonPosition:
		return v.GeneSymbol + "|" + v.HGVSp
	default:
		return v.Key().String()
	}
}
