package evidence

import "github.com/clinprec/svi/internal/domain"

// drugAssociationEvidence converts a curated-level hit's drug associations
// into Tier-* therapeutic Evidence (spec §4.7.1's five actionability codes),
// keyed off the approval-status vocabulary the curated KB stores. An
// association whose cancer type does not exactly match the pathway's is
// still emitted as clinical-study-grade evidence (Tier-IIC, "off-label
// approval in another cancer type") rather than dropped.
func drugAssociationEvidence(hit domain.KnowledgeBaseHit, pw *domain.PathwayConfig) []domain.Evidence {
	var out []domain.Evidence
	for _, da := range hit.DrugAssociations {
		exact := equalFold(da.CancerType, pw.CancerType)

		code, strength := "", domain.StrengthSupporting
		switch da.ApprovalStatus {
		case "fda_approved":
			if exact {
				code, strength = "Tier-IA-FDA", domain.StrengthVeryStrong
			} else {
				code, strength = "Tier-IIC", domain.StrengthModerate
			}
		case "guideline":
			if exact {
				code, strength = "Tier-IB-Guideline", domain.StrengthVeryStrong
			} else {
				code, strength = "Tier-IIC", domain.StrengthModerate
			}
		case "clinical_trial":
			code, strength = "Tier-IIC", domain.StrengthModerate
		case "preclinical":
			code, strength = "Tier-IID", domain.StrengthSupporting
		case "case_study":
			code, strength = "Tier-IIE", domain.StrengthSupporting
		default:
			continue
		}

		out = append(out, domain.Evidence{
			Code: code, Direction: domain.DirectionSupportsActionable, Strength: strength,
			Rationale: da.Drug + " (" + da.ResponseType + ", " + da.ApprovalStatus + ") for " + da.CancerType,
			Sources: []domain.Source{{
				KnowledgeBase: hit.KnowledgeBase, Version: hit.Version, RecordID: hit.RecordID,
				Reliability: hit.Reliability,
			}},
			CuratedLevel:       domain.CuratedLevel(hit.CuratedLevel),
			CuratedCancerTypes: hit.CuratedCancerTypes,
		})
	}
	return out
}
