// Package somaticfilter implements the Somatic Filter (spec §4.3): removes
// variants that cannot be somatic driver candidates, with tumor-normal
// subtraction or tumor-only population-frequency + panel-of-normals +
// hotspot-rescue logic depending on the resolved PathwayConfig.
package somaticfilter

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

const epsilon = 1e-9

// HotspotChecker reports whether a variant is a recurrent hotspot, backed
// by the Reference Data Layer's hotspot knowledge base (spec §4.3).
type HotspotChecker interface {
	IsHotspot(ctx context.Context, v *domain.Variant) (bool, error)
}

// PanelOfNormals reports panel-of-normals observation counts for a variant.
type PanelOfNormals interface {
	Observations(key domain.VariantKey) int
}

// Filter applies the tumor-normal or tumor-only survival rule to one
// Variant; filtering is a pure function of the variant's own fields plus
// PathwayConfig (spec §4.3 "determinism").
type Filter struct {
	hotspots HotspotChecker
	pon      PanelOfNormals
	ponThreshold int
}

// NewFilter builds a Filter. ponThreshold is the panel-of-normals
// observation count above which a tumor-only variant fails the
// panel-of-normals check; a hotspot variant can still be rescued.
func NewFilter(hotspots HotspotChecker, pon PanelOfNormals, ponThreshold int) *Filter {
	return &Filter{hotspots: hotspots, pon: pon, ponThreshold: ponThreshold}
}

// Decision is the Filter's verdict for one variant.
type Decision struct {
	Survives bool
	Reason   string // populated only when Survives is false
	HotspotRescued bool
}

// Evaluate applies spec §4.3's survival rule for the given pathway.
func (f *Filter) Evaluate(ctx context.Context, v *domain.Variant, pw *domain.PathwayConfig, fa *domain.FunctionalAnnotation) (Decision, error) {
	if pw.AnalysisType == domain.TumorNormal {
		return f.evaluateTumorNormal(v, pw), nil
	}
	return f.evaluateTumorOnly(ctx, v, pw, fa)
}

func (f *Filter) evaluateTumorNormal(v *domain.Variant, pw *domain.PathwayConfig) Decision {
	t := pw.VAFThresholds
	if v.TumorVAF < t.MinTumorVAF {
		return Decision{Reason: "low_tumor_vaf"}
	}
	normalVAF := v.NormalVAF
	if normalVAF > t.MaxNormalVAF {
		return Decision{Reason: "present_in_normal"}
	}
	ratio := v.TumorVAF / maxFloat(normalVAF, epsilon)
	if ratio < t.MinTNRatio {
		return Decision{Reason: "insufficient_tumor_normal_ratio"}
	}
	return Decision{Survives: true}
}

func (f *Filter) evaluateTumorOnly(ctx context.Context, v *domain.Variant, pw *domain.PathwayConfig, fa *domain.FunctionalAnnotation) (Decision, error) {
	t := pw.VAFThresholds
	vafOK := v.TumorVAF >= t.MinTumorVAF

	maxPopAF := fa.MaxPopulationAF()
	popOK := maxPopAF <= t.MaxPopulationAF
	ponCount := 0
	if f.pon != nil {
		ponCount = f.pon.Observations(v.Key())
	}
	ponOK := ponCount <= f.ponThreshold

	if vafOK && popOK && ponOK {
		return Decision{Survives: true}, nil
	}

	if pw.RequireHotspotRescue && f.hotspots != nil {
		isHotspot, err := f.hotspots.IsHotspot(ctx, v)
		if err != nil {
			return Decision{}, err
		}
		if isHotspot && v.TumorVAF >= t.HotspotMinVAF {
			return Decision{Survives: true, HotspotRescued: true}, nil
		}
	}

	if !vafOK {
		return Decision{Reason: "low_tumor_vaf"}, nil
	}
	if !popOK {
		return Decision{Reason: "high_population_frequency"}, nil
	}
	return Decision{Reason: "panel_of_normals_recurrent"}, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
