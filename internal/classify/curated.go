package classify

import (
	"context"

	"github.com/clinprec/svi/internal/domain"
)

// levelRank orders curated actionability levels from most to least
// favorable (spec §4.7.3: "pick the most favorable level").
var levelRank = map[domain.CuratedLevel]int{
	domain.Level1: 7, domain.Level2: 6, domain.LevelR1: 5, domain.Level3A: 4,
	domain.LevelR2: 3, domain.Level3B: 2, domain.Level4: 1,
}

// downgradeOneStep implements the §6.5 fallback-downgrade mapping extended
// to curated levels: each fallback step away from an exact cancer-type match
// costs the record one level of favorability.
var downgradeOneStep = map[domain.CuratedLevel]domain.CuratedLevel{
	domain.Level1: domain.Level2, domain.Level2: domain.Level3A, domain.LevelR1: domain.LevelR2,
	domain.Level3A: domain.Level3B, domain.LevelR2: domain.Level4, domain.Level3B: domain.Level4,
}

// CuratedLevelClassifier implements the thin curated-actionability mapping
// (spec §4.7.3).
type CuratedLevelClassifier struct{}

// NewCuratedLevelClassifier builds a CuratedLevelClassifier.
func NewCuratedLevelClassifier() *CuratedLevelClassifier { return &CuratedLevelClassifier{} }

func (c *CuratedLevelClassifier) Framework() domain.FrameworkID { return domain.FrameworkCurated }

func (c *CuratedLevelClassifier) Classify(ctx context.Context, v *domain.Variant, ev []domain.Evidence, pw *domain.PathwayConfig, dsc *domain.DSCScore) (*domain.TierResult, error) {
	var cancerType string
	if pw != nil {
		cancerType = pw.CancerType
	}

	var best domain.CuratedLevel
	var bestSource string
	bestRank := -1
	exactMatch := false
	fallbackSteps := 0

	for _, e := range ev {
		if e.CuratedLevel == "" {
			continue
		}
		level := e.CuratedLevel
		exact := cancerTypeListed(e.CuratedCancerTypes, cancerType)
		steps := 0
		if !exact {
			level = downgradeOneStep[level]
			steps = 1
			if level == "" {
				level = domain.Level4
			}
		}

		rank := levelRank[level]
		if rank > bestRank {
			bestRank = rank
			best = level
			bestSource = e.Code
			exactMatch = exact
			fallbackSteps = steps
		}
	}

	if bestRank < 0 {
		return &domain.TierResult{
			FrameworkID: domain.FrameworkCurated, CuratedLevel: domain.LevelUnclassified,
			Confidence: 0, Rationale: "no curated-actionability record for this variant",
		}, nil
	}

	result := &domain.TierResult{
		FrameworkID:          domain.FrameworkCurated,
		CuratedLevel:         best,
		ContributingEvidence: []string{bestSource},
		Confidence:           confidenceForMatch(exactMatch),
		Rationale:            rationaleForMatch(exactMatch),
	}
	if !exactMatch {
		result.Downgraded = true
		result.DowngradeReason = "no exact cancer-type match; level downgraded one step via fallback"
		result.ModulatingFactors.CancerTypeFallback = true
		result.ModulatingFactors.FallbackSteps = fallbackSteps
	}
	return result, nil
}

func cancerTypeListed(types []string, cancerType string) bool {
	if cancerType == "" {
		return false
	}
	for _, t := range types {
		if equalFoldLocal(t, cancerType) {
			return true
		}
	}
	return false
}

func equalFoldLocal(a, b string) bool {
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

func confidenceForMatch(exact bool) float64 {
	if exact {
		return 0.9
	}
	return 0.6
}

func rationaleForMatch(exact bool) string {
	if exact {
		return "exact cancer-type match to a curated actionability record"
	}
	return "no exact cancer-type match; fell back to a related or pan-cancer record with a one-level downgrade"
}
