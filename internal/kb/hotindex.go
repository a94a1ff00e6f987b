package kb

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/clinprec/svi/internal/domain"
)

// HotIndex wraps any domain.KnowledgeBase with an in-process LRU cache keyed
// on the variant's lookup key, trading a bounded amount of memory for fewer
// round trips to the on-disk KB for recurrently-queried variants (hot genes,
// panel re-runs of the same cohort). The size is NewHotIndex's argument; the
// CLI does not wrap its knowledge bases in a HotIndex and does not read
// config.KnowledgeBases.HotIndexSize.
type HotIndex struct {
	inner domain.KnowledgeBase
	cache *lru.Cache[string, []domain.KnowledgeBaseHit]
}

// NewHotIndex wraps inner with an LRU cache of the given size. A non-positive
// size disables caching and every Lookup passes through to inner.
func NewHotIndex(inner domain.KnowledgeBase, size int) (*HotIndex, error) {
	if size <= 0 {
		return &HotIndex{inner: inner}, nil
	}
	cache, err := lru.New[string, []domain.KnowledgeBaseHit](size)
	if err != nil {
		return nil, err
	}
	return &HotIndex{inner: inner, cache: cache}, nil
}

func (h *HotIndex) Name() string             { return h.inner.Name() }
func (h *HotIndex) Version() string          { return h.inner.Version() }
func (h *HotIndex) Shape() domain.QueryShape { return h.inner.Shape() }

// Lookup keys the cache by query shape since different shapes address the
// underlying record space differently (position vs. gene symbol vs. codon).
func (h *HotIndex) Lookup(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	if h.cache == nil {
		return h.inner.Lookup(ctx, v)
	}

	key := h.cacheKey(v)
	if hits, ok := h.cache.Get(key); ok {
		return hits, nil
	}

	hits, err := h.inner.Lookup(ctx, v)
	if err != nil {
		return nil, err
	}
	h.cache.Add(key, hits)
	return hits, nil
}

func (h *HotIndex) cacheKey(v *domain.Variant) string {
	switch h.inner.Shape() {
	case domain.QueryGeneSymbol:
		return v.GeneSymbol
	case domain.QueryAASubstitution, domain.QueryCodonPosition:
		return v.GeneSymbol + "|" + v.HGVSp
	default:
		return v.Key().String()
	}
}

// Len reports the number of entries currently cached, mainly for tests and
// diagnostics.
func (h *HotIndex) Len() int {
	if h.cache == nil {
		return 0
	}
	return h.cache.Len()
}
