package somaticfilter

import (
	"context"
	"testing"

	"github.com/clinprec/svi/internal/domain"
)

type fakeHotspotChecker struct{ isHotspot bool }

func (f fakeHotspotChecker) IsHotspot(ctx context.Context, v *domain.Variant) (bool, error) {
	return f.isHotspot, nil
}

type fakePON struct{ counts map[string]int }

func (f fakePON) Observations(key domain.VariantKey) int { return f.counts[key.String()] }

func tumorOnlyPathway() *domain.PathwayConfig {
	return &domain.PathwayConfig{
		AnalysisType:         domain.TumorOnly,
		RequireHotspotRescue: true,
		VAFThresholds: domain.VAFThresholds{
			MinTumorVAF:     0.10,
			MaxPopulationAF: 0.001,
			HotspotMinVAF:   0.05,
		},
	}
}

func tumorNormalPathway() *domain.PathwayConfig {
	return &domain.PathwayConfig{
		AnalysisType: domain.TumorNormal,
		VAFThresholds: domain.VAFThresholds{
			MinTumorVAF:  0.05,
			MaxNormalVAF: 0.02,
			MinTNRatio:   5,
		},
	}
}

func TestTumorOnlyPopulationBoundary(t *testing.T) {
	f := NewFilter(fakeHotspotChecker{}, fakePON{}, 5)
	pw := tumorOnlyPathway()

	// at AF 0.051 with VAF threshold unrelated: spec's round-trip law uses 0.05 ceiling
	// for Tier IV, here we exercise the pathway's own max_population_af of 0.001.
	v := &domain.Variant{TumorVAF: 0.20}
	fa := &domain.FunctionalAnnotation{PopulationFrequencies: map[string]float64{"nfe": 0.0009}}
	d, err := f.Evaluate(context.Background(), v, pw, fa)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Survives {
		t.Errorf("expected variant below population ceiling to survive, got reason %s", d.Reason)
	}

	faOverCeiling := &domain.FunctionalAnnotation{PopulationFrequencies: map[string]float64{"nfe": 0.002}}
	d2, err := f.Evaluate(context.Background(), v, pw, faOverCeiling)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Survives {
		t.Error("expected variant over population ceiling to be filtered")
	}
}

func TestTumorOnlyHotspotRescue(t *testing.T) {
	pw := tumorOnlyPathway()
	fa := &domain.FunctionalAnnotation{PopulationFrequencies: map[string]float64{"nfe": 0.01}}

	rescued := NewFilter(fakeHotspotChecker{isHotspot: true}, fakePON{}, 5)
	v1 := &domain.Variant{TumorVAF: 0.06}
	d1, err := rescued.Evaluate(context.Background(), v1, pw, fa)
	if err != nil {
		t.Fatal(err)
	}
	if !d1.Survives || !d1.HotspotRescued {
		t.Errorf("expected hotspot variant at VAF 0.06 to be rescued, got %+v", d1)
	}

	v2 := &domain.Variant{TumorVAF: 0.04}
	notRescued := NewFilter(fakeHotspotChecker{isHotspot: true}, fakePON{}, 5)
	d2, err := notRescued.Evaluate(context.Background(), v2, pw, fa)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Survives {
		t.Errorf("expected hotspot variant at VAF 0.04 to remain filtered, got %+v", d2)
	}
}

func TestTumorNormalSurvivalRule(t *testing.T) {
	f := NewFilter(nil, nil, 0)
	pw := tumorNormalPathway()

	survives := &domain.Variant{TumorVAF: 0.40, NormalVAF: 0.00}
	d, _ := f.Evaluate(context.Background(), survives, pw, nil)
	if !d.Survives {
		t.Errorf("expected tumor-normal variant to survive, got reason %s", d.Reason)
	}

	lowVAF := &domain.Variant{TumorVAF: 0.04, NormalVAF: 0.00}
	d2, _ := f.Evaluate(context.Background(), lowVAF, pw, nil)
	if d2.Survives || d2.Reason != "low_tumor_vaf" {
		t.Errorf("expected low_tumor_vaf filtering, got %+v", d2)
	}

	presentInNormal := &domain.Variant{TumorVAF: 0.40, NormalVAF: 0.10}
	d3, _ := f.Evaluate(context.Background(), presentInNormal, pw, nil)
	if d3.Survives {
		t.Error("expected variant present in normal to be filtered")
	}
}
