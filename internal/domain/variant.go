package domain

import "time"

// Variant is an immutable record of a single normalized, single-allele call.
// Invariant: each Variant has exactly one alternate allele; multi-allelic input
// sites are split into multiple Variants before this model is populated (spec §3).
type Variant struct {
	Assembly   string `json:"assembly"`
	Chromosome string `json:"chromosome"`
	Position   int64  `json:"position"`
	Reference  string `json:"reference"`
	Alternate  string `json:"alternate"`

	// OriginalPosition/OriginalReference/OriginalAlternate preserve the pre-left-
	// alignment representation for audit (spec §3 "Left-alignment ... preserved
	// as a reference string for audit").
	OriginalPosition  int64  `json:"original_position"`
	OriginalReference string `json:"original_reference"`
	OriginalAlternate string `json:"original_alternate"`

	Type         VariantType `json:"type"`
	GeneSymbol   string      `json:"gene_symbol"`
	TranscriptID string      `json:"transcript_id"`
	HGVSc        string      `json:"hgvs_c"`
	HGVSp        string      `json:"hgvs_p"`
	Consequences []string    `json:"consequences"` // sequence-ontology terms

	Genotype       string  `json:"genotype"`
	TumorAD        [2]int  `json:"tumor_ad"` // [ref depth, alt depth]
	TumorVAF       float64 `json:"tumor_vaf"`
	NormalAD       [2]int  `json:"normal_ad,omitempty"`
	HasNormalVAF   bool    `json:"has_normal_vaf"`
	NormalVAF      float64 `json:"normal_vaf,omitempty"`
	TotalDepth     int     `json:"total_depth"`
	Quality        float64 `json:"quality"`
	MappingQuality float64 `json:"mapping_quality"`
	FisherStrandBias float64 `json:"fisher_strand_bias"`
	QualByDepth    float64 `json:"qual_by_depth"`

	Multiallelic bool `json:"multiallelic"`
	AlleleIndex  int  `json:"allele_index"`

	// HotspotRescued records that the Somatic Filter rescued this variant from
	// population filtering via hotspot observation (spec §4.3).
	HotspotRescued bool `json:"hotspot_rescued"`

	// LastExonNMDEscape records that the transcript annotation places this
	// variant in a region predicted to escape nonsense-mediated decay (e.g.
	// the last exon, or the last 50bp of the penultimate exon), which
	// excludes OVS1 regardless of null-variant consequence (spec §4.7.2).
	LastExonNMDEscape bool `json:"last_exon_nmd_escape"`

	// CancerTypeLabel is the sample's cancer-type display name, denormalized
	// onto the variant for the Text Synthesizer (spec §4.9 block 2), which
	// receives no separate PathwayConfig argument.
	CancerTypeLabel string `json:"cancer_type_label,omitempty"`

	// Biomarkers carries the sample-wide assay results the Text Synthesizer's
	// eighth canned-text block reports on (spec §4.9 "Biomarkers").
	Biomarkers *SampleBiomarkers `json:"biomarkers,omitempty"`

	// ExpectedActionableGenes is the cancer-type's configured list of genes
	// with a known actionable alteration, consulted by the "Pertinent
	// Negatives" block (spec §4.9).
	ExpectedActionableGenes []string `json:"expected_actionable_genes,omitempty"`

	// AdequatelyCoveredGenes is the subset of ExpectedActionableGenes for
	// which sequencing coverage was sufficient to call a variant confidently;
	// genes outside this set are omitted from pertinent negatives rather than
	// reported as falsely reassuring (spec §4.9).
	AdequatelyCoveredGenes []string `json:"adequately_covered_genes,omitempty"`

	// IsIncidentalFindingsGene records that GeneSymbol is on the configured
	// secondary-findings gene list (spec §4.9 block 5, IncidentalConfig).
	IsIncidentalFindingsGene bool `json:"is_incidental_findings_gene,omitempty"`

	// IsStructural marks a structural/CNV call, gating the "Chromosomal
	// Alteration Interpretation" block (spec §4.9 block 6).
	IsStructural bool `json:"is_structural,omitempty"`

	// MaxPopulationAF is denormalized from the external annotator's
	// FunctionalAnnotation (FunctionalAnnotation.MaxPopulationAF) for the
	// Text Synthesizer's "General Variant Info" block, which does not
	// receive the FunctionalAnnotation directly (spec §4.9 block 3).
	MaxPopulationAF float64 `json:"max_population_af,omitempty"`
}

// SampleBiomarkers is the sample-wide assay panel reported in the
// Biomarkers canned-text block (spec §4.9 item 8).
type SampleBiomarkers struct {
	TMBValue          float64            `json:"tmb_value"`
	TMBBucket         string             `json:"tmb_bucket"` // "low", "intermediate", "high"
	MSIStatus         string             `json:"msi_status"` // "MSS", "MSI-L", "MSI-H"
	ExpressionMarkers map[string]float64 `json:"expression_markers,omitempty"`
}

// IsPredictedNull reports whether the variant's consequence set contains a
// sequence-ontology term the Oncogenicity classifier treats as "predicted
// null" for OVS1 purposes (spec §4.7.2).
func (v *Variant) IsPredictedNull() bool {
	for _, c := range v.Consequences {
		switch c {
		case "stop_gained", "frameshift_variant", "splice_donor_variant", "splice_acceptor_variant",
			"start_lost", "transcript_ablation":
			return true
		}
	}
	return false
}

// Key returns the identity tuple a Variant is keyed by (spec §3).
func (v *Variant) Key() VariantKey {
	return VariantKey{
		Assembly:   v.Assembly,
		Chromosome: v.Chromosome,
		Position:   v.Position,
		Reference:  v.Reference,
		Alternate:  v.Alternate,
	}
}

// VariantKey is the immutable identity of a Variant.
type VariantKey struct {
	Assembly   string
	Chromosome string
	Position   int64
	Reference  string
	Alternate  string
}

// String renders the key in a VCF-like notation for logs and citations.
func (k VariantKey) String() string {
	return k.Assembly + ":" + k.Chromosome + ":" + itoa(k.Position) + ":" + k.Reference + ">" + k.Alternate
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ScoredField is a sum type over "has score" / "score missing" for a single
// functional-prediction field (spec §3, FunctionalAnnotation).
type ScoredField struct {
	Present bool    `json:"present"`
	Score   float64 `json:"score,omitempty"`
	Call    string  `json:"call,omitempty"` // categorical call, e.g. "damaging"
}

// FunctionalAnnotation is attached to a Variant by the external annotator
// (spec §1 "black-box annotator"; §3).
type FunctionalAnnotation struct {
	PredictorScores map[string]ScoredField `json:"predictor_scores"`
	SpliceDelta     ScoredField             `json:"splice_delta"`
	ProteinDomains  []string                `json:"protein_domains"`
	Conservation    ScoredField             `json:"conservation"`

	// PopulationFrequencies is a snapshot keyed by continental ancestry group.
	PopulationFrequencies map[string]float64 `json:"population_frequencies"`
}

// MaxPopulationAF returns the maximum continental allele frequency observed,
// used throughout the Somatic Filter, DSC scorer, and classifiers.
func (fa *FunctionalAnnotation) MaxPopulationAF() float64 {
	if fa == nil {
		return 0
	}
	var max float64
	for _, af := range fa.PopulationFrequencies {
		if af > max {
			max = af
		}
	}
	return max
}

// ConsensusCall reports whether at least `min` present predictors called the
// variant damaging, and whether at least `min` called it benign, per the
// evidence-mapping table (spec §6.3).
func (fa *FunctionalAnnotation) ConsensusCall(min int) (damaging, benign bool) {
	if fa == nil {
		return false, false
	}
	var d, b int
	for _, s := range fa.PredictorScores {
		if !s.Present {
			continue
		}
		switch s.Call {
		case "damaging":
			d++
		case "benign":
			b++
		}
	}
	return d >= min, b >= min
}

// FilteredVariant records a variant dropped before evidence aggregation,
// together with a structured reason (spec §4.1, §4.3, §8 scenario 6).
type FilteredVariant struct {
	Key       VariantKey `json:"key"`
	Reason    string     `json:"reason"`
	Phase     string     `json:"phase"`
	Timestamp time.Time  `json:"timestamp"`
}
