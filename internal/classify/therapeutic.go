package classify

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

// tierRank orders the five therapeutic tiers from most to least actionable,
// matching the Evidence codes the Aggregator emits (spec §4.7.1).
var tierRank = map[string]int{
	"Tier-IA-FDA": 5, "Tier-IB-Guideline": 4, "Tier-IIC": 3, "Tier-IID": 2, "Tier-IIE": 1,
}

var tierForCode = map[string]domain.TherapeuticTier{
	"Tier-IA-FDA": domain.TierIA, "Tier-IB-Guideline": domain.TierIB,
	"Tier-IIC": domain.TierIIC, "Tier-IID": domain.TierIID, "Tier-IIE": domain.TierIIE,
}

// dscGateFloor is the lowest TherapeuticTier the tumor-only pathway permits
// at a given DSC value (spec §4.7.1 "Tier IA/IB require DSC >= 0.9; Tier II
// requires DSC >= 0.6; otherwise demoted to the highest tier whose gate is
// satisfied").
func dscGateFloor(dsc *domain.DSCScore) domain.TherapeuticTier {
	if dsc == nil {
		return domain.TierIA
	}
	switch {
	case dsc.Value >= 0.9:
		return domain.TierIA
	case dsc.Value >= 0.6:
		return domain.TierIIC
	default:
		return domain.TierIII
	}
}

// TherapeuticClassifier implements the AMP/ASCO/CAP actionability framework
// (spec §4.7.1).
type TherapeuticClassifier struct{}

// NewTherapeuticClassifier builds a TherapeuticClassifier.
func NewTherapeuticClassifier() *TherapeuticClassifier { return &TherapeuticClassifier{} }

func (c *TherapeuticClassifier) Framework() domain.FrameworkID { return domain.FrameworkTherapeutic }

func (c *TherapeuticClassifier) Classify(ctx context.Context, v *domain.Variant, ev []domain.Evidence, pw *domain.PathwayConfig, dsc *domain.DSCScore) (*domain.TierResult, error) {
	if commonVariant(ev) {
		return &domain.TierResult{
			FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierIV,
			Confidence: 1.0, Rationale: "maximum continental allele frequency exceeds the 5% common-variant threshold",
		}, nil
	}

	var cancerType string
	if pw != nil {
		cancerType = pw.CancerType
	}
	best, bestEvidence := bestTherapeuticEvidence(ev, cancerType)

	var result *domain.TierResult
	switch {
	case best != "":
		tier := tierForCode[best]
		result = &domain.TierResult{
			FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: tier,
			ContributingEvidence: []string{bestEvidence.Code},
			Confidence:           confidenceOf(bestEvidence),
			Rationale:            bestEvidence.Rationale,
		}
	default:
		result = therapeuticFromOncogenicity(ev)
	}

	if pw != nil && pw.AnalysisType == domain.TumorOnly {
		applyDSCGate(result, dsc)
	}
	return result, nil
}

// commonVariant applies the population-frequency Tier-IV stand-alone rule
// (spec §6.2): true only for the very-strong SBVS1 row (max continental AF >
// 0.05). The weaker strong-benign SBVS1 row the Aggregator emits for AF in
// (0.01, 0.05] contributes to VICC oncogenicity but does not, on its own,
// force Tier IV.
func commonVariant(ev []domain.Evidence) bool {
	for _, e := range ev {
		if e.Code == "SBVS1" && e.Strength == domain.StrengthVeryStrong {
			return true
		}
	}
	return false
}

// bestTherapeuticEvidence picks the highest-ranked Tier-* evidence, breaking
// ties by exact cancer-type match (spec §4.7.1 tie-break rules).
func bestTherapeuticEvidence(ev []domain.Evidence, cancerType string) (string, domain.Evidence) {
	var best domain.Evidence
	bestRank := -1
	for _, e := range ev {
		rank, ok := tierRank[e.Code]
		if !ok {
			continue
		}
		if rank > bestRank {
			bestRank = rank
			best = e
			continue
		}
		if rank == bestRank && cancerTypeListed(e.CuratedCancerTypes, cancerType) && !cancerTypeListed(best.CuratedCancerTypes, cancerType) {
			best = e
		}
	}
	if bestRank < 0 {
		return "", domain.Evidence{}
	}
	return best.Code, best
}

// therapeuticFromOncogenicity implements the table's III/IV fallback rows:
// no therapeutic evidence at all, so the tier derives from whatever
// oncogenicity-direction evidence is present. The Oncogenicity classifier
// itself has not necessarily run yet in isolation, so this inspects raw
// points rather than requiring a TierResult.
func therapeuticFromOncogenicity(ev []domain.Evidence) *domain.TierResult {
	var sum float64
	var codes []string
	for _, e := range ev {
		if e.Points == 0 {
			continue
		}
		sum += e.Points
		codes = append(codes, e.Code)
	}

	switch {
	case sum >= 4:
		return &domain.TierResult{
			FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierIII,
			ContributingEvidence: codes, Confidence: 0.7,
			Rationale: "no therapeutic evidence, but oncogenicity evidence is oncogenic or likely oncogenic",
		}
	case sum <= -4:
		return &domain.TierResult{
			FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierIV,
			ContributingEvidence: codes, Confidence: 0.7,
			Rationale: "benign or likely benign per oncogenicity evidence",
		}
	default:
		return &domain.TierResult{
			FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierUnclassified,
			ContributingEvidence: codes, Confidence: 0.3,
			Rationale: "no therapeutic evidence and oncogenicity evidence inconclusive",
		}
	}
}

// applyDSCGate demotes result.TherapeuticTier to the highest tier whose DSC
// gate the variant actually clears (spec §4.7.1).
func applyDSCGate(result *domain.TierResult, dsc *domain.DSCScore) {
	current := therapeuticRank(result.TherapeuticTier)
	if current == 0 {
		// Not a ranked actionability tier (III/IV/unclassified): DSC gating
		// does not apply.
		return
	}
	floor := dscGateFloor(dsc)
	gate := therapeuticRank(floor)
	if current > gate {
		result.Downgraded = true
		result.DowngradeReason = "tumor-only DSC below the confidence gate for this tier"
		result.ModulatingFactors.DSC = dsc
		result.ModulatingFactors.DSCGateApplied = true
		result.TherapeuticTier = floor
	}
}

func therapeuticRank(t domain.TherapeuticTier) int {
	switch t {
	case domain.TierIA:
		return 5
	case domain.TierIB:
		return 4
	case domain.TierIIC:
		return 3
	case domain.TierIID:
		return 2
	case domain.TierIIE:
		return 1
	default:
		return 0
	}
}

func confidenceOf(e domain.Evidence) float64 {
	if e.Confidence > 0 {
		return e.Confidence
	}
	return 0.75
}
