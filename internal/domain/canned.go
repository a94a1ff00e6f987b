package domain

// CannedTextBlock enumerates the eight fixed narrative blocks in their
// required output order (spec §4.9).
type CannedTextBlock string

const (
	BlockGeneralGeneInfo             CannedTextBlock = "general_gene_info"
	BlockGeneDxInterpretation        CannedTextBlock = "gene_dx_interpretation"
	BlockGeneralVariantInfo          CannedTextBlock = "general_variant_info"
	BlockVariantDxInterpretation     CannedTextBlock = "variant_dx_interpretation"
	BlockIncidentalFindings          CannedTextBlock = "incidental_findings"
	BlockChromosomalAlteration       CannedTextBlock = "chromosomal_alteration_interpretation"
	BlockPertinentNegatives          CannedTextBlock = "pertinent_negatives"
	BlockBiomarkers                  CannedTextBlock = "biomarkers"
)

// CannedTextBlockOrder is the fixed emission order (spec §5 "CannedText
// blocks are always in the enumerated §4.9 order").
var CannedTextBlockOrder = []CannedTextBlock{
	BlockGeneralGeneInfo,
	BlockGeneDxInterpretation,
	BlockGeneralVariantInfo,
	BlockVariantDxInterpretation,
	BlockIncidentalFindings,
	BlockChromosomalAlteration,
	BlockPertinentNegatives,
	BlockBiomarkers,
}

// Citation references a specific piece of Evidence backing a sentence of
// canned text; every Citation must resolve to an Evidence in the same
// bundle (spec §3, §8).
type Citation struct {
	Source          Source `json:"source"`
	ReliabilityTier ReliabilityTier `json:"reliability_tier"`
	DisplayLabel    string `json:"display_label"`
	ExternalReference string `json:"external_reference,omitempty"`
}

// CannedText is one of the eight fixed narrative blocks the Text
// Synthesizer produces per variant (spec §3, §4.9).
type CannedText struct {
	BlockID    CannedTextBlock `json:"block_id"`
	Body       string          `json:"body"`
	Citations  []Citation      `json:"citations"`
	Confidence float64         `json:"confidence"`
}
