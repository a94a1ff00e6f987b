package evidence

import (
	"context"
	"testing"

	"github.com/clinprec/svi/internal/domain"
	"github.com/clinprec/svi/internal/kb"
)

func tumorOnlyPathway() *domain.PathwayConfig {
	return &domain.PathwayConfig{
		AnalysisType: domain.TumorOnly,
		CancerType:   "melanoma",
		EvidenceWeightMultipliers: map[string]float64{
			"clinical-evidence": 1.0, "population": 0.7, "computational": 0.6,
		},
	}
}

func TestAggregateCuratedLevelExactMatchEmitsTierIAFDA(t *testing.T) {
	curated := kb.NewMemoryKB("curated_level", "v1", domain.QueryAASubstitution)
	curated.Put("BRAF|p.Val600Glu", domain.KnowledgeBaseHit{
		KnowledgeBase: "curated_level", RecordID: "cl-1", Reliability: domain.ReliabilityExpertCurated,
		CuratedLevel: "1", CuratedCancerTypes: []string{"melanoma"},
	})

	agg := NewAggregator([]domain.KnowledgeBase{curated}, nil)
	v := &domain.Variant{GeneSymbol: "BRAF", HGVSp: "p.Val600Glu"}

	out, err := agg.Aggregate(context.Background(), v, nil, tumorOnlyPathway())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	found := false
	for _, e := range out {
		if e.Code == "Tier-IA-FDA" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Tier-IA-FDA evidence, got %+v", out)
	}
}

func TestAggregateOP4ExcludedWhenSBVS1Present(t *testing.T) {
	pop := kb.NewMemoryKB("population_frequency", "v1", domain.QueryPositionRange)
	v := &domain.Variant{Chromosome: "chr1", Position: 100, Reference: "A", Alternate: "G"}
	pop.Put(v.Key().String(), domain.KnowledgeBaseHit{KnowledgeBase: "population_frequency", AlleleFrequency: 0.10, Reliability: domain.ReliabilityComputational})

	agg := NewAggregator([]domain.KnowledgeBase{pop}, nil)
	out, err := agg.Aggregate(context.Background(), v, nil, tumorOnlyPathway())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	var hasSBVS1, hasOP4 bool
	for _, e := range out {
		if e.Code == "SBVS1" {
			hasSBVS1 = true
		}
		if e.Code == "OP4" {
			hasOP4 = true
		}
	}
	if !hasSBVS1 {
		t.Error("expected SBVS1 evidence for common variant")
	}
	if hasOP4 {
		t.Error("OP4 must not stack with SBVS1")
	}
}

func TestAggregateGeneRoleFailureIsNonFatal(t *testing.T) {
	failing := &failingKB{name: "gene_role", shape: domain.QueryGeneSymbol}
	agg := NewAggregator([]domain.KnowledgeBase{failing}, nil)

	out, err := agg.Aggregate(context.Background(), &domain.Variant{GeneSymbol: "TP53"}, nil, tumorOnlyPathway())
	if err != nil {
		t.Fatalf("expected nil error on isolated KB failure, got %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no evidence, got %+v", out)
	}
}

func TestAggregateConcordantEvidenceAcrossTwoKBsRaisesConfidence(t *testing.T) {
	clinsig := kb.NewMemoryKB("clinical_significance", "v1", domain.QueryAASubstitution)
	v := &domain.Variant{GeneSymbol: "TP53", HGVSp: "p.Arg273His"}
	clinsig.Put("TP53|p.Arg273His", domain.KnowledgeBaseHit{
		KnowledgeBase: "clinical_significance", RecordID: "cs-1", Reliability: domain.ReliabilityCommunityCurated,
		ClinicalSignificance: "Pathogenic", ReviewStatusStars: 3,
	})

	curated := kb.NewMemoryKB("curated_level", "v1", domain.QueryAASubstitution)
	curated.Put("TP53|p.Arg273His", domain.KnowledgeBaseHit{
		KnowledgeBase: "curated_level", RecordID: "cl-9", Reliability: domain.ReliabilityExpertCurated,
		PriorClassifications: []domain.PriorClassification{{Call: domain.Oncogenic, Source: "other_cohort"}},
	})

	agg := NewAggregator([]domain.KnowledgeBase{clinsig, curated}, nil)
	out, err := agg.Aggregate(context.Background(), v, nil, tumorOnlyPathway())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	var merged *domain.Evidence
	for i := range out {
		if out[i].Direction == domain.DirectionSupportsPathogenic {
			merged = &out[i]
		}
	}
	if merged == nil {
		t.Fatal("expected a merged pathogenic-direction evidence record")
	}
	if merged.Confidence < 0.85 {
		t.Errorf("expected concordance-boosted confidence >= 0.85, got %v", merged.Confidence)
	}
	if len(merged.Sources) != 2 {
		t.Errorf("expected 2 sources folded into merged record, got %d", len(merged.Sources))
	}
}

type failingKB struct {
	name  string
	shape domain.QueryShape
}

func (f *failingKB) Name() string             { return f.name }
func (f *failingKB) Version() string          { return "v0" }
func (f *failingKB) Shape() domain.QueryShape { return f.shape }
func (f *failingKB) Lookup(ctx context.Context, v *domain.Variant) ([]domain.KnowledgeBaseHit, error) {
	return nil, context.DeadlineExceeded
}
