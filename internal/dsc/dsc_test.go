package dsc

import (
	"testing"

	"github.com/clinprec/svi/internal/domain"
)

func TestScoreWithinBounds(t *testing.T) {
	scorer := NewScorer(EqualThirdWeights())
	v := &domain.Variant{TumorVAF: 0.30}
	pe := &domain.PurityEstimate{Value: 0.6, Confidence: 0.8}

	score := scorer.Score(v, pe, PriorInputs{IsHotspot: true, HotspotRecurrenceCount: 60})

	if score.Value < 0 || score.Value > 1 {
		t.Fatalf("DSC value out of bounds: %v", score.Value)
	}
	for name, c := range map[string]float64{
		"vaf_purity": score.VAFPurityComponent,
		"prior":      score.PriorComponent,
		"context":    score.ContextComponent,
	} {
		if c < 0 || c > 1 {
			t.Errorf("component %s out of bounds: %v", name, c)
		}
	}
}

func TestScoreHighHotspotLowPopulationIsHighConfidence(t *testing.T) {
	scorer := NewScorer(EqualThirdWeights())
	v := &domain.Variant{TumorVAF: 0.45}
	pe := &domain.PurityEstimate{Value: 0.6, Confidence: 0.9}

	score := scorer.Score(v, pe, PriorInputs{IsHotspot: true, HotspotRecurrenceCount: 100, MaxPopulationAF: 0})

	if score.Value <= 0.6 {
		t.Errorf("expected high DSC for hotspot+absent-from-population variant, got %v", score.Value)
	}
}

func TestScoreHighPopulationFrequencyIsLowConfidence(t *testing.T) {
	scorer := NewScorer(EqualThirdWeights())
	v := &domain.Variant{TumorVAF: 0.45}
	pe := &domain.PurityEstimate{Value: 0.6, Confidence: 0.9}

	score := scorer.Score(v, pe, PriorInputs{MaxPopulationAF: 0.08})

	if score.PriorComponent >= 0.5 {
		t.Errorf("expected depressed prior component for common variant, got %v", score.PriorComponent)
	}
}

func TestScoreDiscountsLowConfidencePurity(t *testing.T) {
	scorer := NewScorer(EqualThirdWeights())
	v := &domain.Variant{TumorVAF: 0.45}
	pe := &domain.PurityEstimate{Value: 0.6, Confidence: 0.1}

	score := scorer.Score(v, pe, PriorInputs{})
	if score.VAFPurityComponent < 0.4 || score.VAFPurityComponent > 0.6 {
		t.Errorf("expected VAF component pulled toward neutral under low purity confidence, got %v", score.VAFPurityComponent)
	}
}

func TestTieringGates(t *testing.T) {
	tests := []struct {
		value    float64
		tierI    bool
		tierII   bool
		tierIII  bool
		filtered bool
	}{
		{0.95, true, true, false, false},
		{0.7, false, true, false, false},
		{0.4, false, false, true, false},
		{0.1, false, false, false, true},
	}
	for _, tt := range tests {
		s := domain.DSCScore{Value: tt.value}
		if s.TierIEligible() != tt.tierI {
			t.Errorf("value %v: TierIEligible = %v, want %v", tt.value, s.TierIEligible(), tt.tierI)
		}
		if s.TierIIEligible() != tt.tierII {
			t.Errorf("value %v: TierIIEligible = %v, want %v", tt.value, s.TierIIEligible(), tt.tierII)
		}
		if s.BelowFilterFloor() != tt.filtered {
			t.Errorf("value %v: BelowFilterFloor = %v, want %v", tt.value, s.BelowFilterFloor(), tt.filtered)
		}
	}
}
