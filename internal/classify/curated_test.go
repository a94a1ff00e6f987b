package classify

import (
	"context"
	"testing"

	"github.com/clinprec/svi/internal/domain"
)

func TestCuratedLevelExactMatchNoDowngrade(t *testing.T) {
	c := NewCuratedLevelClassifier()
	ev := []domain.Evidence{{Code: "Tier-IA-FDA", CuratedLevel: domain.Level1, CuratedCancerTypes: []string{"melanoma"}}}
	pw := &domain.PathwayConfig{CancerType: "melanoma"}

	result, err := c.Classify(context.Background(), &domain.Variant{}, ev, pw, nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.CuratedLevel != domain.Level1 {
		t.Errorf("expected Level1, got %v", result.CuratedLevel)
	}
	if result.Downgraded {
		t.Error("did not expect downgrade on exact match")
	}
}

func TestCuratedLevelFallbackDowngradesOneStep(t *testing.T) {
	c := NewCuratedLevelClassifier()
	ev := []domain.Evidence{{Code: "Tier-IA-FDA", CuratedLevel: domain.Level1, CuratedCancerTypes: []string{"lung_adenocarcinoma"}}}
	pw := &domain.PathwayConfig{CancerType: "melanoma"}

	result, err := c.Classify(context.Background(), &domain.Variant{}, ev, pw, nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.CuratedLevel != domain.Level2 {
		t.Errorf("expected one-step downgrade to Level2, got %v", result.CuratedLevel)
	}
	if !result.Downgraded {
		t.Error("expected downgrade flag")
	}
}

func TestCuratedLevelNoRecordIsUnclassified(t *testing.T) {
	c := NewCuratedLevelClassifier()
	result, err := c.Classify(context.Background(), &domain.Variant{}, nil, &domain.PathwayConfig{}, nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.CuratedLevel != domain.LevelUnclassified {
		t.Errorf("expected UNCLASSIFIED, got %v", result.CuratedLevel)
	}
}

func TestCuratedLevelPicksMostFavorableAmongMultiple(t *testing.T) {
	c := NewCuratedLevelClassifier()
	ev := []domain.Evidence{
		{Code: "a", CuratedLevel: domain.Level3A, CuratedCancerTypes: []string{"melanoma"}},
		{Code: "b", CuratedLevel: domain.Level1, CuratedCancerTypes: []string{"melanoma"}},
	}
	result, err := c.Classify(context.Background(), &domain.Variant{}, ev, &domain.PathwayConfig{CancerType: "melanoma"}, nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.CuratedLevel != domain.Level1 {
		t.Errorf("expected most favorable Level1, got %v", result.CuratedLevel)
	}
}
