package synth

import (
	"sort"
	"strconv"
	"strings"

	"github.com/clinprec/svi/internal/domain"
)

// generalGeneInfo (spec §4.9 block 1): the gene's role as carried by the
// evidence set. Only OVS1 evidence (a null variant in a tumor-suppressor
// gene) yields a role; protein-domain and pathway information is not
// included. Always populated.
func generalGeneInfo(v *domain.Variant, ev []domain.Evidence) domain.CannedText {
	var sb strings.Builder
	sb.WriteString(v.GeneSymbol)
	if role := geneRoleFromEvidence(ev); role != "" {
		sb.WriteString(" is classified as a " + role + " in the curated gene-role reference.")
	} else {
		sb.WriteString(" has no gene-role evidence for this variant.")
	}
	return domain.CannedText{BlockID: domain.BlockGeneralGeneInfo, Body: sb.String()}
}

func geneRoleFromEvidence(ev []domain.Evidence) string {
	for _, e := range ev {
		if e.Code == "OVS1" {
			return "tumor suppressor"
		}
	}
	return ""
}

// geneDxInterpretation (spec §4.9 block 2): gene role in the specific
// cancer type.
func geneDxInterpretation(v *domain.Variant, ev []domain.Evidence) domain.CannedText {
	cancer := v.CancerTypeLabel
	if cancer == "" {
		cancer = "the analyzed cancer type"
	}
	body := v.GeneSymbol + " alterations are recurrently observed in " + cancer + "."
	return domain.CannedText{BlockID: domain.BlockGeneDxInterpretation, Body: body}
}

// generalVariantInfo (spec §4.9 block 3): technical description — HGVS,
// consequence terms and maximum population allele frequency. Functional-
// prediction scores are not included.
func generalVariantInfo(v *domain.Variant, ev []domain.Evidence) domain.CannedText {
	var parts []string
	parts = append(parts, v.GeneSymbol+" "+v.HGVSp+" ("+v.HGVSc+")")
	if len(v.Consequences) > 0 {
		parts = append(parts, "consequence: "+strings.Join(v.Consequences, ", "))
	}
	if v.MaxPopulationAF > 0 {
		parts = append(parts, "maximum population allele frequency "+formatFloat(v.MaxPopulationAF))
	}
	return domain.CannedText{BlockID: domain.BlockGeneralVariantInfo, Body: strings.Join(parts, "; ")}
}

// variantDxInterpretation (spec §4.9 block 4): synthesizes Tier +
// Oncogenicity + curated level; cites contributing Evidence.
func variantDxInterpretation(v *domain.Variant, results map[domain.FrameworkID]*domain.TierResult, ev []domain.Evidence) (domain.CannedText, []domain.Evidence) {
	var sb strings.Builder
	var cited []domain.Evidence

	onco := results[domain.FrameworkOncogenicity]
	therapeutic := results[domain.FrameworkTherapeutic]
	curated := results[domain.FrameworkCurated]

	if onco != nil {
		sb.WriteString(v.GeneSymbol + " " + v.HGVSp + " is classified " + humanizeOncogenicity(onco.OncogenicityCall) + ".")
		cited = append(cited, evidenceByCode(ev, onco.ContributingEvidence...)...)
	}
	if therapeutic != nil && therapeutic.TherapeuticTier != "" && therapeutic.TherapeuticTier != domain.TierUnclassified {
		sb.WriteString(" Therapeutic actionability: " + string(therapeutic.TherapeuticTier) + ".")
		cited = append(cited, evidenceByCode(ev, therapeutic.ContributingEvidence...)...)
	}
	if curated != nil && curated.CuratedLevel != "" && curated.CuratedLevel != domain.LevelUnclassified {
		sb.WriteString(" Curated actionability level " + string(curated.CuratedLevel) + ".")
		cited = append(cited, evidenceByCode(ev, curated.ContributingEvidence...)...)
	}

	return domain.CannedText{BlockID: domain.BlockVariantDxInterpretation, Body: sb.String()}, cited
}

func humanizeOncogenicity(call domain.OncogenicityCall) string {
	switch call {
	case domain.Oncogenic:
		return "Oncogenic"
	case domain.LikelyOncogenic:
		return "Likely Oncogenic"
	case domain.OncogenicityVUS:
		return "a Variant of Uncertain Significance"
	case domain.LikelyBenign:
		return "Likely Benign"
	case domain.OncogenicityBenign:
		return "Benign"
	default:
		return "Unclassified"
	}
}

// incidentalFindings (spec §4.9 block 5): populated only if the gene is on
// the incidental-findings list and the call is Oncogenic/Likely Oncogenic.
func incidentalFindings(v *domain.Variant, results map[domain.FrameworkID]*domain.TierResult) domain.CannedText {
	if !v.IsIncidentalFindingsGene {
		return domain.CannedText{BlockID: domain.BlockIncidentalFindings}
	}
	onco := results[domain.FrameworkOncogenicity]
	if onco == nil || (onco.OncogenicityCall != domain.Oncogenic && onco.OncogenicityCall != domain.LikelyOncogenic) {
		return domain.CannedText{BlockID: domain.BlockIncidentalFindings}
	}
	body := v.GeneSymbol + " " + v.HGVSp + " meets criteria for secondary-findings reporting on the configured gene list."
	return domain.CannedText{BlockID: domain.BlockIncidentalFindings, Body: body}
}

// chromosomalAlteration (spec §4.9 block 6): populated only for
// structural/CNV input.
func chromosomalAlteration(v *domain.Variant) domain.CannedText {
	if !v.IsStructural {
		return domain.CannedText{BlockID: domain.BlockChromosomalAlteration}
	}
	body := v.GeneSymbol + " is affected by a structural alteration of type " + string(v.Type) + "."
	return domain.CannedText{BlockID: domain.BlockChromosomalAlteration, Body: body}
}

// pertinentNegatives (spec §4.9 block 7): expected actionable alterations
// for this cancer type not observed, and for which coverage was adequate.
func pertinentNegatives(v *domain.Variant) domain.CannedText {
	adequate := make(map[string]bool, len(v.AdequatelyCoveredGenes))
	for _, g := range v.AdequatelyCoveredGenes {
		adequate[g] = true
	}
	var negatives []string
	for _, g := range v.ExpectedActionableGenes {
		if g == v.GeneSymbol {
			continue // this variant IS the alteration in that gene; not a negative.
		}
		if adequate[g] {
			negatives = append(negatives, g)
		}
	}
	if len(negatives) == 0 {
		return domain.CannedText{BlockID: domain.BlockPertinentNegatives}
	}
	sort.Strings(negatives)
	body := "No reportable alteration detected in: " + strings.Join(negatives, ", ") + " (coverage adequate)."
	return domain.CannedText{BlockID: domain.BlockPertinentNegatives, Body: body}
}

// biomarkers (spec §4.9 block 8): TMB bucket, MSI status, expression
// markers, each compared against configured thresholds.
func biomarkers(v *domain.Variant) domain.CannedText {
	b := v.Biomarkers
	if b == nil {
		return domain.CannedText{BlockID: domain.BlockBiomarkers}
	}
	var parts []string
	if b.TMBBucket != "" {
		parts = append(parts, "tumor mutational burden "+formatFloat(b.TMBValue)+" mut/Mb ("+b.TMBBucket+")")
	}
	if b.MSIStatus != "" {
		parts = append(parts, "microsatellite status "+b.MSIStatus)
	}
	if len(b.ExpressionMarkers) > 0 {
		keys := make([]string, 0, len(b.ExpressionMarkers))
		for k := range b.ExpressionMarkers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+" expression "+formatFloat(b.ExpressionMarkers[k]))
		}
	}
	if len(parts) == 0 {
		return domain.CannedText{BlockID: domain.BlockBiomarkers}
	}
	return domain.CannedText{BlockID: domain.BlockBiomarkers, Body: strings.Join(parts, "; ")}
}

func evidenceByCode(ev []domain.Evidence, codes ...string) []domain.Evidence {
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []domain.Evidence
	for _, e := range ev {
		if want[e.Code] {
			out = append(out, e)
		}
	}
	return out
}

// formatFloat renders a float deterministically as the shortest plain
// decimal string that round-trips to the same value (no exponent, no
// trailing zeros) — avoids locale or precision variance across runs (spec
// §4.9 "Determinism").
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
