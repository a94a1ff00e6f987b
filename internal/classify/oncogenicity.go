// Package classify implements the three independent classification
// frameworks (spec §4.7): Oncogenicity (VICC/CGC), Therapeutic-Actionability
// (AMP/ASCO/CAP), and Curated-Level. Each is a domain.Classifier consuming
// the same Evidence set produced by the Aggregator.
package classify

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

// OncogenicityClassifier implements the VICC/CGC point-based framework
// (spec §4.7.2).
type OncogenicityClassifier struct{}

// NewOncogenicityClassifier builds an OncogenicityClassifier.
func NewOncogenicityClassifier() *OncogenicityClassifier { return &OncogenicityClassifier{} }

func (c *OncogenicityClassifier) Framework() domain.FrameworkID { return domain.FrameworkOncogenicity }

// Classify sums contributing Evidence points and maps the sum to a call per
// the literal thresholds in spec §4.7.2.
func (c *OncogenicityClassifier) Classify(ctx context.Context, v *domain.Variant, ev []domain.Evidence, pw *domain.PathwayConfig, dsc *domain.DSCScore) (*domain.TierResult, error) {
	var sum float64
	var codes []string
	var weightedConfidence, weightSum float64

	for _, e := range ev {
		if e.Points == 0 {
			continue
		}
		sum += e.Points
		codes = append(codes, e.Code)

		w := absFloat(e.Points)
		weightSum += w
		if e.Confidence > 0 {
			weightedConfidence += w * e.Confidence
		} else {
			weightedConfidence += w * 0.5
		}
	}

	confidence := 0.5
	if weightSum > 0 {
		confidence = weightedConfidence / weightSum
	}

	call := CallFromSum(sum)

	result := &domain.TierResult{
		FrameworkID:          domain.FrameworkOncogenicity,
		OncogenicityCall:     call,
		ScoreOrPoints:        sum,
		ContributingEvidence: codes,
		Confidence:           confidence,
		Rationale:            rationaleForCall(call, sum),
	}
	return result, nil
}

// CallFromSum maps a VICC/CGC point sum to its oncogenicity call per the
// literal thresholds in spec §4.7.2. Exported so the Reconciler can recompute
// a call after mutating a TierResult's point sum in place (spec §4.8).
func CallFromSum(sum float64) domain.OncogenicityCall {
	switch {
	case sum >= 7:
		return domain.Oncogenic
	case sum >= 4:
		return domain.LikelyOncogenic
	case sum >= -3:
		return domain.OncogenicityVUS
	case sum >= -6:
		return domain.LikelyBenign
	default:
		return domain.OncogenicityBenign
	}
}

func rationaleForCall(call domain.OncogenicityCall, sum float64) string {
	switch call {
	case domain.Oncogenic:
		return "point sum meets or exceeds the oncogenic threshold of 7"
	case domain.LikelyOncogenic:
		return "point sum falls in the likely-oncogenic range of 4-6"
	case domain.LikelyBenign:
		return "point sum falls in the likely-benign range of -6 to -4"
	case domain.OncogenicityBenign:
		return "point sum meets or falls below the benign threshold of -7"
	default:
		return "point sum falls within the variant-of-uncertain-significance range of -3 to 3"
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
