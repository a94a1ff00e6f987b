package evidence

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/clinprec/svi/internal/domain"
)

// Aggregator implements domain.Aggregator over a fixed set of knowledge
// bases, queried in the order given to NewAggregator (spec §4.6); the
// pathway's KBPriorityOrder is not consulted.
type Aggregator struct {
	kbs []domain.KnowledgeBase
	log *logrus.Logger
}

// NewAggregator builds an Aggregator over kbs. Order does not affect
// correctness (every applicable rule fires regardless of lookup order) but
// is preserved for log readability.
func NewAggregator(kbs []domain.KnowledgeBase, log *logrus.Logger) *Aggregator {
	return &Aggregator{kbs: kbs, log: log}
}

// Aggregate implements domain.Aggregator. A failing KB lookup is logged and
// skipped — per-variant degradation, never a run-fatal error (spec §7 item 3).
func (a *Aggregator) Aggregate(ctx context.Context, v *domain.Variant, fa *domain.FunctionalAnnotation, pw *domain.PathwayConfig) ([]domain.Evidence, error) {
	rules := mappingRules()
	var raw []domain.Evidence

	for _, kb := range a.kbs {
		hits, err := kb.Lookup(ctx, v)
		if err != nil {
			if a.log != nil {
				a.log.WithFields(logrus.Fields{
					"variant": v.Key().String(), "knowledge_base": kb.Name(), "error": err,
				}).Warn("knowledge base lookup failed, continuing with degraded evidence")
			}
			continue
		}
		for _, hit := range hits {
			raw = append(raw, evidenceFromHits(rules, kb.Name(), hit, v, pw)...)
			if kb.Name() == "curated_level" {
				raw = append(raw, drugAssociationEvidence(hit, pw)...)
			}
		}
	}

	raw = append(raw, functionalPredictionEvidence(fa)...)
	raw = applyExclusions(raw)

	merged := mergeConcordance(raw)
	merged = applyMultipliers(merged, pw)

	return merged, nil
}

func evidenceFromHits(rules []mappingRule, kbName string, hit domain.KnowledgeBaseHit, v *domain.Variant, pw *domain.PathwayConfig) []domain.Evidence {
	var out []domain.Evidence
	for _, rule := range rules {
		if rule.kb != kbName {
			continue
		}
		applies, rationale := rule.predicate(hit, v, pw)
		if !applies {
			continue
		}
		e := domain.Evidence{
			Code: rule.code, Direction: rule.direction, Strength: rule.strength, Points: rule.points,
			Rationale: rationale,
			Sources: []domain.Source{{
				KnowledgeBase: hit.KnowledgeBase, Version: hit.Version, RecordID: hit.RecordID,
				Reliability: hit.Reliability,
			}},
		}
		if rule.code == "Tier-IA-FDA" || rule.kb == "curated_level" {
			e.CuratedLevel = domain.CuratedLevel(hit.CuratedLevel)
			e.CuratedCancerTypes = hit.CuratedCancerTypes
		}
		out = append(out, e)
	}
	return out
}

// applyExclusions enforces cross-rule constraints that can't be expressed as
// a single predicate (spec §4.7.2: "OP4 cannot stack with SBVS1").
func applyExclusions(raw []domain.Evidence) []domain.Evidence {
	hasSBVS1 := false
	for _, e := range raw {
		if e.Code == "SBVS1" {
			hasSBVS1 = true
			break
		}
	}
	if !hasSBVS1 {
		return raw
	}
	out := raw[:0]
	for _, e := range raw {
		if e.Code == "OP4" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// multiplierCategory maps a knowledge base's internal name to the pathway
// evidence-weight category it falls under (spec §6.2's multiplier keys:
// clinical-evidence, hotspots, population, computational, conservation).
func multiplierCategory(kbName string) string {
	switch kbName {
	case "curated_level", "clinical_significance", "gene_role":
		return "clinical-evidence"
	case "hotspot":
		return "hotspots"
	case "population_frequency":
		return "population"
	default:
		return "computational" // functional-prediction consensus rows carry no KB source
	}
}

// applyMultipliers scales each Evidence's confidence by the pathway's
// per-KB multiplier (spec §4.6 "Evidence weight multipliers"). It must never
// touch Points: Points is the signed VICC/CGC point weight the oncogenicity
// threshold table consumes (spec §8's literal "SBVS1 -8" boundary laws), and
// pathway weighting is a trust adjustment on top of that fixed scale, not a
// rescaling of it.
func applyMultipliers(evidence []domain.Evidence, pw *domain.PathwayConfig) []domain.Evidence {
	if pw == nil {
		return evidence
	}
	for i := range evidence {
		category := "computational"
		if src, ok := evidence[i].TopSource(); ok {
			category = multiplierCategory(src.KnowledgeBase)
		}
		evidence[i].Confidence = clamp01(evidence[i].Confidence * pw.Multiplier(category))
	}
	return evidence
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
