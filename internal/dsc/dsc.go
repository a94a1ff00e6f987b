// Package dsc implements the Dynamic Somatic Confidence Scorer (spec §4.5):
// a per-variant 0-1 score combining VAF/purity consistency, a
// somatic-vs-germline prior from evidence sources, and a reserved genomic-
// context slot.
package dsc

import (
	"math"

	"github.com/clinprec/svi/internal/domain"
)

// Weights are the three component weights, fixed at equal-third by default
// per spec §9's open-question resolution, overridable via configuration.
type Weights struct {
	VAFPurity float64
	Prior     float64
	Context   float64
}

// EqualThirdWeights is the specification's default (spec §9).
func EqualThirdWeights() Weights {
	return Weights{VAFPurity: 1.0 / 3, Prior: 1.0 / 3, Context: 1.0 / 3}
}

// PriorInputs carries the somatic-vs-germline prior signals the Aggregator
// or Somatic Filter already computed for this variant (spec §4.5.2).
type PriorInputs struct {
	IsHotspot               bool
	HotspotRecurrenceCount  int
	MaxPopulationAF         float64
	MatchedAncestryFreqKnown bool
	MatchedAncestryFreq     float64
}

// Scorer computes DSCScore values.
type Scorer struct {
	weights Weights
}

// NewScorer builds a Scorer with the given component weights.
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score computes the DSCScore for one variant (spec §4.5).
func (s *Scorer) Score(v *domain.Variant, pe *domain.PurityEstimate, prior PriorInputs) domain.DSCScore {
	vafComponent := s.vafPurityConsistency(v, pe)
	priorComponent := s.somaticVsGermlinePrior(prior)
	contextComponent := 0.5 // reserved slot, always neutral (spec §4.5.3)

	value := clamp01(
		s.weights.VAFPurity*vafComponent +
			s.weights.Prior*priorComponent +
			s.weights.Context*contextComponent,
	)

	return domain.DSCScore{
		Value:              value,
		VAFPurityComponent: vafComponent,
		PriorComponent:     priorComponent,
		ContextComponent:   contextComponent,
		Rationale:          rationale(v, pe, prior, vafComponent, priorComponent),
	}
}

// vafPurityConsistency compares observed tumor VAF to the VAFs expected
// under het-diploid, hemizygous (LOH), and subclonal hypotheses at the
// given purity, rewarding proximity to the nearest hypothesis and
// penalizing VAFs implausible under any of them (spec §4.5.1).
func (s *Scorer) vafPurityConsistency(v *domain.Variant, pe *domain.PurityEstimate) float64 {
	if pe == nil || pe.Value <= 0 {
		return 0.5 // no purity signal: neutral
	}

	hetExpected := pe.Value / 2
	lohExpected := pe.Value
	// Subclonal hypothesis: any VAF below the het-diploid expectation is
	// plausible (a subclone carries the variant at lower cellular fraction).
	distHet := math.Abs(v.TumorVAF - hetExpected)
	distLOH := math.Abs(v.TumorVAF - lohExpected)
	bestDist := math.Min(distHet, distLOH)
	if v.TumorVAF < hetExpected {
		bestDist = math.Min(bestDist, 0) // subclonal fits by construction
	}

	consistency := clamp01(1.0 - bestDist*2.5)

	if pe.Confidence < 0.3 {
		// Discount per spec §4.4: low-confidence VAF-peak purity pulls the
		// component toward neutral rather than rewarding/penalizing strongly.
		consistency = 0.5 + (consistency-0.5)*pe.Confidence/0.3
	}
	return clamp01(consistency)
}

// somaticVsGermlinePrior increases with hotspot presence/recurrence and
// population absence; decreases with high population or matched-ancestry
// frequency (spec §4.5.2).
func (s *Scorer) somaticVsGermlinePrior(p PriorInputs) float64 {
	score := 0.5

	if p.IsHotspot {
		score += 0.25
	}
	switch {
	case p.HotspotRecurrenceCount >= 50:
		score += 0.15
	case p.HotspotRecurrenceCount >= 10:
		score += 0.08
	}

	switch {
	case p.MaxPopulationAF > 0.05:
		score -= 0.40
	case p.MaxPopulationAF > 0.01:
		score -= 0.20
	case p.MaxPopulationAF == 0:
		score += 0.10
	}

	if p.MatchedAncestryFreqKnown && p.MatchedAncestryFreq > 0.01 {
		score -= 0.15
	}

	return clamp01(score)
}

func rationale(v *domain.Variant, pe *domain.PurityEstimate, prior PriorInputs, vafComp, priorComp float64) string {
	r := "VAF/purity consistency and somatic-vs-germline prior combined under the scorer's component weights"
	if pe != nil && pe.Confidence < 0.3 {
		r += "; purity estimate confidence below 0.3, VAF component discounted toward neutral"
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
