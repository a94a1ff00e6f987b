// Package evidence implements the Evidence Aggregator (spec §4.6): it queries
// the configured knowledge bases for a variant, applies the evidence-mapping
// rule table (spec §6.3) to turn raw hits into typed Evidence, merges
// cross-KB concordance (spec §6.4), and applies the pathway's per-KB weight
// multipliers.
package evidence

import (
	"github.com/clinprec/svi/internal/domain"
)

// mappingRule is one row of the evidence-mapping table (spec §6.3): given a
// KnowledgeBaseHit, decide whether it applies and what Evidence it emits.
// Functional-prediction rows are not in this table; they are applied from
// the FunctionalAnnotation by functionalPredictionEvidence. The table is data, matching the rule-table-as-data idiom used
// throughout this codebase's classifiers.
type mappingRule struct {
	name      string
	kb        string // KnowledgeBase name this rule applies to, "" for annotation-only rules
	code      string
	direction domain.EvidenceDirection
	strength  domain.EvidenceStrength
	points    float64
	// predicate decides applicability and returns the rationale text; the
	// curated level and cancer types are copied onto the Evidence by
	// evidenceFromHits.
	predicate func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (applies bool, rationale string)
}

func mappingRules() []mappingRule {
	return []mappingRule{
		{
			name: "curated_level_1_exact_match", kb: "curated_level",
			code: "Tier-IA-FDA", direction: domain.DirectionSupportsActionable, strength: domain.StrengthVeryStrong,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.CuratedLevel != string(domain.Level1) {
					return false, ""
				}
				if !cancerTypeExactMatch(hit.CuratedCancerTypes, pw.CancerType) {
					return false, ""
				}
				return true, "regulatory-approved therapy for this variant in " + pw.CancerType
			},
		},
		{
			name: "curated_level_oncogenic", kb: "curated_level",
			code: "OS1", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthStrong, points: 4,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				for _, pc := range hit.PriorClassifications {
					if pc.Call == domain.Oncogenic {
						return true, "curated record classifies this variant oncogenic"
					}
				}
				return false, ""
			},
		},
		{
			name: "clinvar_pathogenic_high_review", kb: "clinical_significance",
			code: "OS1", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthStrong, points: 4,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.ClinicalSignificance == "Pathogenic" && hit.ReviewStatusStars >= 3 {
					return true, "pathogenic submission with >=3-star review status"
				}
				return false, ""
			},
		},
		{
			name: "clinvar_pathogenic_low_review", kb: "clinical_significance",
			code: "OP1", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthSupporting, points: 1,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.ClinicalSignificance == "Pathogenic" && hit.ReviewStatusStars == 1 {
					return true, "pathogenic submission with 1-star review status"
				}
				return false, ""
			},
		},
		{
			name: "hotspot_strong", kb: "hotspot",
			code: "OS3", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthStrong, points: 4,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.HotspotObservations >= 50 {
					return true, "recurrent hotspot, >=50 independent observations"
				}
				return false, ""
			},
		},
		{
			name: "hotspot_moderate", kb: "hotspot",
			code: "OM3", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthModerate, points: 2,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.HotspotObservations >= 10 && hit.HotspotObservations < 50 {
					return true, "recurrent hotspot, 10-49 independent observations"
				}
				return false, ""
			},
		},
		{
			name: "population_common", kb: "population_frequency",
			code: "SBVS1", direction: domain.DirectionSupportsBenign, strength: domain.StrengthVeryStrong, points: -8,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.AlleleFrequency > 0.05 {
					return true, "maximum continental allele frequency exceeds 5%"
				}
				return false, ""
			},
		},
		{
			name: "population_uncommon", kb: "population_frequency",
			code: "SBVS1", direction: domain.DirectionSupportsBenign, strength: domain.StrengthStrong, points: -4,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.AlleleFrequency > 0.01 && hit.AlleleFrequency <= 0.05 {
					return true, "maximum continental allele frequency exceeds 1%"
				}
				return false, ""
			},
		},
		{
			name: "population_absent", kb: "population_frequency",
			code: "OP4", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthSupporting, points: 1,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.AlleleFrequency == 0 {
					return true, "absent from population frequency databases"
				}
				return false, ""
			},
		},
		{
			name: "gene_role_ovs1", kb: "gene_role",
			code: "OVS1", direction: domain.DirectionSupportsPathogenic, strength: domain.StrengthVeryStrong, points: 8,
			predicate: func(hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) (bool, string) {
				if hit.GeneRole != "tumor_suppressor" {
					return false, ""
				}
				if !v.IsPredictedNull() {
					return false, ""
				}
				if v.LastExonNMDEscape {
					return false, ""
				}
				return true, "predicted null variant in an authoritative tumor-suppressor gene, not NMD-escaping"
			},
		},
	}
}

// cancerTypeExactMatch reports whether cancerType is literally present in
// the curated record's cancer-type list (case-insensitive). Organ-system and
// pan-cancer fallback are the Curated-Level classifier's concern (spec §6.5),
// not the mapping rule's.
func cancerTypeExactMatch(recordTypes []string, cancerType string) bool {
	for _, t := range recordTypes {
		if equalFold(t, cancerType) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// functionalPredictionEvidence applies the two annotation-only mapping rows
// (spec §6.3): consensus-damaging and consensus-benign functional predictions.
func functionalPredictionEvidence(fa *domain.FunctionalAnnotation) []domain.Evidence {
	if fa == nil {
		return nil
	}
	damaging, benign := fa.ConsensusCall(3)

	var out []domain.Evidence
	if damaging {
		out = append(out, domain.Evidence{
			Code: "OP1", Direction: domain.DirectionSupportsPathogenic, Strength: domain.StrengthSupporting, Points: 1,
			Rationale: "consensus of >=3 functional-prediction tools call this variant damaging",
		})
	}
	if benign {
		out = append(out, domain.Evidence{
			Code: "SBP1", Direction: domain.DirectionSupportsBenign, Strength: domain.StrengthSupporting, Points: -1,
			Rationale: "consensus of >=3 functional-prediction tools call this variant benign",
		})
	}
	return out
}
