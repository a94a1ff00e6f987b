package synth

import (
	"github.com/clinprec/svi/internal/domain"
)

// Synthesizer implements domain.Synthesizer, producing the eight canned-text
// blocks in their fixed order (spec §4.9).
type Synthesizer struct {
	confidenceThreshold float64
}

// New builds a Synthesizer. threshold <= 0 uses the default.
func New(threshold float64) *Synthesizer {
	if threshold <= 0 {
		threshold = defaultConfidenceThreshold
	}
	return &Synthesizer{confidenceThreshold: threshold}
}

// Synthesize implements domain.Synthesizer.
func (s *Synthesizer) Synthesize(v *domain.Variant, results map[domain.FrameworkID]*domain.TierResult, evidence []domain.Evidence, dsc *domain.DSCScore, notes []domain.ReconciliationNote) []domain.CannedText {
	book := newCitationBook()

	blocks := make([]domain.CannedText, 0, len(domain.CannedTextBlockOrder))

	gene := generalGeneInfo(v, evidence)
	finalizeBlock(&gene, book, evidenceByCode(evidence, "OVS1", "OM1", "OM4"), s.confidenceThreshold)
	blocks = append(blocks, gene)

	geneDx := geneDxInterpretation(v, evidence)
	finalizeBlock(&geneDx, book, nil, s.confidenceThreshold)
	blocks = append(blocks, geneDx)

	variantInfo := generalVariantInfo(v, evidence)
	finalizeBlock(&variantInfo, book, evidence, s.confidenceThreshold)
	blocks = append(blocks, variantInfo)

	variantDx, citedForDx := variantDxInterpretation(v, results, evidence)
	finalizeBlock(&variantDx, book, citedForDx, s.confidenceThreshold)
	blocks = append(blocks, variantDx)

	incidental := incidentalFindings(v, results)
	finalizeBlock(&incidental, book, nil, s.confidenceThreshold)
	blocks = append(blocks, incidental)

	chromosomal := chromosomalAlteration(v)
	finalizeBlock(&chromosomal, book, nil, s.confidenceThreshold)
	blocks = append(blocks, chromosomal)

	negatives := pertinentNegatives(v)
	finalizeBlock(&negatives, book, nil, s.confidenceThreshold)
	blocks = append(blocks, negatives)

	bio := biomarkers(v)
	finalizeBlock(&bio, book, nil, s.confidenceThreshold)
	blocks = append(blocks, bio)

	return blocks
}

// finalizeBlock attaches citations, propagates confidence, and applies the
// low-confidence and discordance qualifiers to an already-rendered block. A
// block left with an empty Body (not applicable to this variant, spec §4.9
// blocks 5/6/7/8) is left untouched.
func finalizeBlock(block *domain.CannedText, book *citationBook, cited []domain.Evidence, threshold float64) {
	if block.Body == "" {
		return
	}
	block.Citations = citationsFor(book, cited)
	block.Confidence = minConfidence(cited)
	block.Body = applyDiscordanceQualifier(block.Body, cited)
	block.Body = applyConfidenceQualifier(block.Body, block.Confidence, threshold)
}
