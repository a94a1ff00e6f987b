package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/clinprec/svi/internal/annotate"
	"github.com/clinprec/svi/internal/classify"
	"github.com/clinprec/svi/internal/domain"
	"github.com/clinprec/svi/internal/dsc"
	"github.com/clinprec/svi/internal/evidence"
	"github.com/clinprec/svi/internal/kb"
	"github.com/clinprec/svi/internal/reconcile"
	"github.com/clinprec/svi/internal/somaticfilter"
	"github.com/clinprec/svi/internal/synth"
)

type noopHotspot struct{}

func (noopHotspot) IsHotspot(ctx context.Context, v *domain.Variant) (bool, error) { return false, nil }

type noopPON struct{}

func (noopPON) Observations(key domain.VariantKey) int { return 0 }

func testPathway() *domain.PathwayConfig {
	return &domain.PathwayConfig{
		AnalysisType: domain.TumorNormal,
		CancerType:   "melanoma",
		VAFThresholds: domain.VAFThresholds{
			MinTumorVAF:  0.02,
			MaxNormalVAF: 0.02,
			MinTNRatio:   2,
		},
		EvidenceWeightMultipliers: map[string]float64{"clinical-evidence": 1.0},
	}
}

func newTestRunner() *Runner {
	filter := somaticfilter.NewFilter(noopHotspot{}, noopPON{}, 5)

	curatedKB := kb.NewMemoryKB("curated_level", "v1", domain.QueryGeneSymbol)
	agg := evidence.NewAggregator([]domain.KnowledgeBase{curatedKB}, nil)

	deps := Dependencies{
		Filter:      filter,
		Annotator:   annotate.NewStubClient(),
		Aggregator:  agg,
		Classifiers: []domain.Classifier{classify.NewOncogenicityClassifier(), classify.NewTherapeuticClassifier(), classify.NewCuratedLevelClassifier()},
		DSCScorer:   dsc.NewScorer(dsc.EqualThirdWeights()),
		Reconciler:  reconcile.New(),
		Synthesizer: synth.New(0),
	}
	return NewRunner(deps, 4, time.Second)
}

func TestRunProducesOneBundlePerVariant(t *testing.T) {
	r := newTestRunner()
	variants := []*domain.Variant{
		{Assembly: "GRCh38", Chromosome: "chr7", Position: 1, Reference: "A", Alternate: "T", GeneSymbol: "BRAF", TumorVAF: 0.4, NormalVAF: 0.0, HasNormalVAF: true, TotalDepth: 100},
		{Assembly: "GRCh38", Chromosome: "chr17", Position: 2, Reference: "C", Alternate: "G", GeneSymbol: "TP53", TumorVAF: 0.3, NormalVAF: 0.0, HasNormalVAF: true, TotalDepth: 100},
	}
	bundles := r.Run(context.Background(), variants, testPathway(), &domain.PurityEstimate{Value: 0.6, Confidence: 0.8})
	if len(bundles) != 2 {
		t.Fatalf("expected 2 bundles, got %d", len(bundles))
	}
	for _, b := range bundles {
		if b == nil {
			t.Fatal("expected non-nil bundle")
		}
		if b.Status != domain.BundleComplete {
			t.Errorf("expected complete status, got %v (errors=%v)", b.Status, b.Errors)
		}
		if len(b.Texts) != len(domain.CannedTextBlockOrder) {
			t.Errorf("expected %d canned text blocks, got %d", len(domain.CannedTextBlockOrder), len(b.Texts))
		}
	}
}

func TestRunFiltersLowVAFVariant(t *testing.T) {
	r := newTestRunner()
	variants := []*domain.Variant{
		{Assembly: "GRCh38", Chromosome: "chr7", Position: 1, Reference: "A", Alternate: "T", TumorVAF: 0.001, HasNormalVAF: true, TotalDepth: 100},
	}
	bundles := r.Run(context.Background(), variants, testPathway(), nil)
	if bundles[0].Status != domain.BundleFiltered {
		t.Errorf("expected filtered status, got %v", bundles[0].Status)
	}
}

func TestRunRespectsAlreadyExpiredTimeout(t *testing.T) {
	r := newTestRunner()
	r.timeout = time.Nanosecond
	variants := []*domain.Variant{
		{Assembly: "GRCh38", Chromosome: "chr7", Position: 1, Reference: "A", Alternate: "T", TumorVAF: 0.4, HasNormalVAF: true, TotalDepth: 100},
	}
	time.Sleep(time.Millisecond)
	bundles := r.Run(context.Background(), variants, testPathway(), nil)
	if bundles[0].Status != domain.BundleTimeout {
		t.Errorf("expected timeout status, got %v", bundles[0].Status)
	}
}
