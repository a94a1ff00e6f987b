package synth

import (
	"testing"

	"github.com/clinprec/svi/internal/domain"
)

func baseVariant() *domain.Variant {
	return &domain.Variant{
		GeneSymbol:      "BRAF",
		HGVSp:           "p.Val600Glu",
		HGVSc:           "c.1799T>A",
		Consequences:    []string{"missense_variant"},
		CancerTypeLabel: "melanoma",
	}
}

func TestSynthesizeProducesEightBlocksInOrder(t *testing.T) {
	s := New(0)
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.Oncogenic, ContributingEvidence: []string{"OS1"}},
		domain.FrameworkTherapeutic:  {FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierIA, ContributingEvidence: []string{"Tier-IA-FDA"}},
		domain.FrameworkCurated:      {FrameworkID: domain.FrameworkCurated, CuratedLevel: domain.Level1, ContributingEvidence: []string{"Tier-IA-FDA"}},
	}
	ev := []domain.Evidence{
		{Code: "OS1", Confidence: 0.9, Sources: []domain.Source{{KnowledgeBase: "clinical_significance", Reliability: domain.ReliabilityExpertCurated, RecordID: "r1"}}},
		{Code: "Tier-IA-FDA", Confidence: 0.95, Sources: []domain.Source{{KnowledgeBase: "curated_level", Reliability: domain.ReliabilityRegulatory, RecordID: "r2"}}},
	}

	blocks := s.Synthesize(baseVariant(), results, ev, nil, nil)
	if len(blocks) != len(domain.CannedTextBlockOrder) {
		t.Fatalf("expected %d blocks, got %d", len(domain.CannedTextBlockOrder), len(blocks))
	}
	for i, b := range blocks {
		if b.BlockID != domain.CannedTextBlockOrder[i] {
			t.Errorf("block %d: expected %v, got %v", i, domain.CannedTextBlockOrder[i], b.BlockID)
		}
	}
	if blocks[3].Body == "" {
		t.Error("expected variant Dx interpretation block to be populated")
	}
	if blocks[4].Body != "" {
		t.Error("expected incidental findings block empty (gene not on list)")
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	s := New(0)
	v := baseVariant()
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.LikelyOncogenic},
	}
	ev := []domain.Evidence{{Code: "OM1", Confidence: 0.7, Sources: []domain.Source{{KnowledgeBase: "clinical_significance", RecordID: "r1"}}}}

	first := s.Synthesize(v, results, ev, nil, nil)
	second := s.Synthesize(v, results, ev, nil, nil)
	for i := range first {
		if first[i].Body != second[i].Body {
			t.Errorf("block %d not deterministic: %q vs %q", i, first[i].Body, second[i].Body)
		}
	}
}

func TestIncidentalFindingsPopulatedWhenGeneListedAndOncogenic(t *testing.T) {
	s := New(0)
	v := baseVariant()
	v.IsIncidentalFindingsGene = true
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.Oncogenic},
	}
	blocks := s.Synthesize(v, results, nil, nil, nil)
	if blocks[4].Body == "" {
		t.Error("expected incidental findings block populated")
	}
}

func TestLowConfidenceQualifierApplied(t *testing.T) {
	s := New(0.95)
	v := baseVariant()
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.OncogenicityVUS, ContributingEvidence: []string{"OP1"}},
	}
	ev := []domain.Evidence{{Code: "OP1", Confidence: 0.3, Sources: []domain.Source{{KnowledgeBase: "clinvar", RecordID: "r1"}}}}
	blocks := s.Synthesize(v, results, ev, nil, nil)
	dx := blocks[3]
	if dx.Body == "" {
		t.Fatal("expected dx block populated")
	}
	if len(dx.Body) < len(lowConfidenceQualifier) || dx.Body[:len(lowConfidenceQualifier)] != lowConfidenceQualifier {
		t.Errorf("expected low-confidence qualifier prefix, got %q", dx.Body)
	}
}

func TestPertinentNegativesListsCoveredExpectedGenes(t *testing.T) {
	s := New(0)
	v := baseVariant()
	v.ExpectedActionableGenes = []string{"BRAF", "KRAS", "NRAS"}
	v.AdequatelyCoveredGenes = []string{"KRAS", "NRAS"}
	blocks := s.Synthesize(v, nil, nil, nil, nil)
	negatives := blocks[6]
	if negatives.Body == "" {
		t.Fatal("expected pertinent negatives populated")
	}
	if !contains(negatives.Body, "KRAS") || !contains(negatives.Body, "NRAS") {
		t.Errorf("expected KRAS and NRAS listed, got %q", negatives.Body)
	}
	if contains(negatives.Body, "BRAF") {
		t.Errorf("did not expect the variant's own gene listed as a negative: %q", negatives.Body)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestBiomarkersBlockReportsTMBAndMSI(t *testing.T) {
	s := New(0)
	v := baseVariant()
	v.Biomarkers = &domain.SampleBiomarkers{TMBValue: 12.5, TMBBucket: "high", MSIStatus: "MSS"}
	blocks := s.Synthesize(v, nil, nil, nil, nil)
	bio := blocks[7]
	if !contains(bio.Body, "high") || !contains(bio.Body, "MSS") {
		t.Errorf("expected TMB bucket and MSI status in biomarkers block, got %q", bio.Body)
	}
}
