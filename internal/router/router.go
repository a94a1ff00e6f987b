// Package router implements the Workflow Router (spec §4.2): a pure
// function from (presence of normal sample, cancer type) to PathwayConfig.
package router

import "github.com/clinprec/svi/internal/domain"

// CancerTypePatch is a partial PathwayConfig override applied on top of the
// base pathway for a specific cancer type (spec §4.2 "explicit mapping
// {cancer-type -> partial PathwayConfig patch}").
type CancerTypePatch struct {
	MaxPopulationAF *float64
	HotspotMinVAF   *float64
}

// Router resolves a PathwayConfig from pathway defaults, a KB priority
// order, and cancer-type-specific overrides. It carries no per-call state.
type Router struct {
	defaults       domain.PathwayDefaults
	kbPriorityOrder []string
	overrides      map[string]CancerTypePatch
}

// NewRouter builds a Router from resolved configuration. kbPriorityOrder is
// copied onto every PathwayConfig as KBPriorityOrder (spec §3
// "kb_priority_order"); the Evidence Aggregator does not read it.
func NewRouter(defaults domain.PathwayDefaults, kbPriorityOrder []string, overrides map[string]CancerTypePatch) *Router {
	return &Router{defaults: defaults, kbPriorityOrder: kbPriorityOrder, overrides: overrides}
}

// Route returns the PathwayConfig for the given analysis type and cancer
// type (spec §6.2's two enumerated pathways).
func (r *Router) Route(analysisType domain.AnalysisType, cancerType string) *domain.PathwayConfig {
	var pc *domain.PathwayConfig
	switch analysisType {
	case domain.TumorNormal:
		pc = r.tumorNormalPathway()
	default:
		pc = r.tumorOnlyPathway()
	}
	pc.CancerType = cancerType

	if patch, ok := r.overrides[cancerType]; ok {
		applyPatch(pc, patch)
	}
	return pc
}

func (r *Router) tumorNormalPathway() *domain.PathwayConfig {
	return &domain.PathwayConfig{
		AnalysisType:         domain.TumorNormal,
		KBPriorityOrder:      append([]string(nil), r.kbPriorityOrder...),
		RequireHotspotRescue: false,
		MinTotalDepth:        r.defaults.MinTotalDepth,
		VAFThresholds: domain.VAFThresholds{
			MinTumorVAF:     0.05,
			MaxNormalVAF:    0.02,
			MinTNRatio:      5,
			ClonalThreshold: 0.40,
		},
		EvidenceWeightMultipliers: map[string]float64{
			"clinical-evidence": 1.0,
			"hotspots":           0.85,
			"population":         0.2,
			"computational":      0.5,
		},
	}
}

func (r *Router) tumorOnlyPathway() *domain.PathwayConfig {
	return &domain.PathwayConfig{
		AnalysisType:         domain.TumorOnly,
		KBPriorityOrder:      append([]string(nil), r.kbPriorityOrder...),
		RequireHotspotRescue: true,
		MinTotalDepth:        r.defaults.MinTotalDepth,
		DSCTumorOnlyGate:     r.defaults.DSCTumorOnlyGate,
		VAFThresholds: domain.VAFThresholds{
			MinTumorVAF:     0.10,
			MaxPopulationAF: 0.001,
			HotspotMinVAF:   0.05,
			ClonalThreshold: 0.35,
		},
		EvidenceWeightMultipliers: map[string]float64{
			"clinical-evidence": 1.0,
			"population":         0.7,
			"computational":      0.6,
			"conservation":       0.5,
		},
	}
}

func applyPatch(pc *domain.PathwayConfig, patch CancerTypePatch) {
	if patch.MaxPopulationAF != nil {
		pc.VAFThresholds.MaxPopulationAF = *patch.MaxPopulationAF
	}
	if patch.HotspotMinVAF != nil {
		pc.VAFThresholds.HotspotMinVAF = *patch.HotspotMinVAF
	}
}
