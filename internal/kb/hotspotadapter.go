package kb

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

// HotspotAdapter adapts any domain.KnowledgeBase shaped as a hotspot lookup
// into the somaticfilter.HotspotChecker interface, so the Somatic Filter
// does not need to know the KB's storage backend (spec §4.3).
type HotspotAdapter struct {
	kb domain.KnowledgeBase
}

// NewHotspotAdapter wraps kb (typically a *RangeKB or *HotIndex over one).
func NewHotspotAdapter(kb domain.KnowledgeBase) *HotspotAdapter {
	return &HotspotAdapter{kb: kb}
}

// IsHotspot reports whether any hit was returned for this variant's gene and
// HGVS protein change.
func (h *HotspotAdapter) IsHotspot(ctx context.Context, v *domain.Variant) (bool, error) {
	hits, err := h.kb.Lookup(ctx, v)
	if err != nil {
		return false, err
	}
	return len(hits) > 0, nil
}
