// Package reconcile implements the Cross-Framework Reconciler (spec §4.8):
// a single fixed-point pass that lets evidence satisfied in one framework's
// output feed a criterion in another, then records what it did as
// ReconciliationNotes. It never errors; conflicts are narrative, not fatal
// (spec §7 "Reconciliation conflicts").
package reconcile

import (
	"github.com/clinprec/svi/internal/classify"
	"github.com/clinprec/svi/internal/domain"
)

// os1Points is the VICC point weight already assigned to the OS1 criterion
// by the evidence-mapping table (rules.go); reconciliation rules that newly
// satisfy OS1 add the same weight rather than inventing a second scale.
const os1Points = 4

// Reconciler implements domain.Reconciler.
type Reconciler struct{}

// New builds a Reconciler.
func New() *Reconciler { return &Reconciler{} }

// Reconcile inspects the three frameworks' initial TierResults, mutates them
// in place wherever a rule fires, and returns the notes describing what it
// did. Per spec §4.8 this is the only reconciliation pass a variant gets: the
// pipeline calls Reconcile exactly once and then treats results as final —
// there is no classifier re-run, so a rule's effect must land directly on the
// TierResult pointers it's handed rather than on Evidence a later re-classify
// would have to re-consume.
func (r *Reconciler) Reconcile(results map[domain.FrameworkID]*domain.TierResult) []domain.ReconciliationNote {
	var notes []domain.ReconciliationNote

	if note, ok := curatedSatisfiesOS1(results); ok {
		notes = append(notes, note)
	}
	if note, ok := clinicalSignificanceSatisfiesOS1(results); ok {
		notes = append(notes, note)
	}
	if note, ok := oncogenicWithNoTherapyForcesTierIII(results); ok {
		notes = append(notes, note)
	}
	return notes
}

// curatedSatisfiesOS1 implements "a curated-level record classified
// Oncogenic at >= level 2 satisfies VICC OS1 with confidence 0.95" (spec
// §4.8, first example rule).
func curatedSatisfiesOS1(results map[domain.FrameworkID]*domain.TierResult) (domain.ReconciliationNote, bool) {
	curated := results[domain.FrameworkCurated]
	onco := results[domain.FrameworkOncogenicity]
	if curated == nil || onco == nil {
		return domain.ReconciliationNote{}, false
	}
	if !curatedLevelAtOrAboveTwo(curated.CuratedLevel) {
		return domain.ReconciliationNote{}, false
	}
	if hasContributingCode(onco, "OS1") {
		// OS1 already contributed to the point sum; nothing new to satisfy.
		return domain.ReconciliationNote{}, false
	}
	onco.ScoreOrPoints += os1Points
	onco.ContributingEvidence = append(onco.ContributingEvidence, "OS1")
	onco.OncogenicityCall = classify.CallFromSum(onco.ScoreOrPoints)
	onco.Confidence = maxFloat(onco.Confidence, 0.95)
	onco.Rationale = "VICC OS1 satisfied via curated actionability level " + string(curated.CuratedLevel) + "; " + onco.Rationale
	return domain.ReconciliationNote{
		Code:        "RECON-CURATED-OS1",
		Description: "curated actionability level " + string(curated.CuratedLevel) + " satisfies VICC OS1 (confidence 0.95)",
		Frameworks:  []domain.FrameworkID{domain.FrameworkCurated, domain.FrameworkOncogenicity},
	}, true
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func curatedLevelAtOrAboveTwo(level domain.CuratedLevel) bool {
	switch level {
	case domain.Level1, domain.Level2:
		return true
	default:
		return false
	}
}

// clinicalSignificanceSatisfiesOS1 implements "clinical-significance
// 'Pathogenic' from a >= 2-star review-status submission satisfies VICC OS1
// with confidence 0.85" (spec §4.8, second example rule). The Aggregator
// surfaces the underlying clinical-significance evidence as OS1/OP1 already
// (rules.go), so this rule only adds a note when that evidence exists but
// the Oncogenicity classifier's own call has not reached Oncogenic (a Likely
// Oncogenic call still gets the note), signalling the point sum needs the
// reconciled confidence boost.
func clinicalSignificanceSatisfiesOS1(results map[domain.FrameworkID]*domain.TierResult) (domain.ReconciliationNote, bool) {
	onco := results[domain.FrameworkOncogenicity]
	if onco == nil {
		return domain.ReconciliationNote{}, false
	}
	if !hasContributingCode(onco, "OS1") {
		return domain.ReconciliationNote{}, false
	}
	if onco.OncogenicityCall == domain.Oncogenic {
		return domain.ReconciliationNote{}, false
	}
	onco.Confidence = maxFloat(onco.Confidence, 0.85)
	return domain.ReconciliationNote{
		Code:        "RECON-CLINSIG-OS1",
		Description: "pathogenic clinical significance from a >=2-star submission satisfies VICC OS1 (confidence 0.85)",
		Frameworks:  []domain.FrameworkID{domain.FrameworkOncogenicity},
	}, true
}

func hasContributingCode(result *domain.TierResult, code string) bool {
	for _, c := range result.ContributingEvidence {
		if c == code {
			return true
		}
	}
	return false
}

// oncogenicWithNoTherapyForcesTierIII implements "a variant with VICC =
// Oncogenic and no therapeutic evidence is forced to Therapeutic-Tier III
// (not IV) regardless of population frequency unless that frequency exceeds
// the pathogenic-benign stand-alone threshold" (spec §4.8, third example
// rule).
func oncogenicWithNoTherapyForcesTierIII(results map[domain.FrameworkID]*domain.TierResult) (domain.ReconciliationNote, bool) {
	onco := results[domain.FrameworkOncogenicity]
	therapeutic := results[domain.FrameworkTherapeutic]
	if onco == nil || therapeutic == nil {
		return domain.ReconciliationNote{}, false
	}
	if onco.OncogenicityCall != domain.Oncogenic {
		return domain.ReconciliationNote{}, false
	}
	if therapeutic.TherapeuticTier != domain.TierIV {
		return domain.ReconciliationNote{}, false
	}
	// The stand-alone population-frequency rule (SBVS1, spec §6.2) is the one
	// legitimate reason a Tier IV call stands even though VICC is Oncogenic;
	// the Therapeutic classifier records that via commonVariant/SBVS1, surfaced
	// here as a Rationale match so the Reconciler does not override it.
	if therapeutic.Rationale == "maximum continental allele frequency exceeds the 5% common-variant threshold" {
		return domain.ReconciliationNote{}, false
	}
	therapeutic.TherapeuticTier = domain.TierIII
	therapeutic.Rationale = "forced to Tier III: VICC Oncogenic with no therapeutic evidence and no stand-alone population-frequency override"
	return domain.ReconciliationNote{
		Code:        "RECON-ONCOGENIC-TIER-III",
		Description: "VICC Oncogenic call with no therapeutic evidence forces Therapeutic Tier III rather than IV",
		Frameworks:  []domain.FrameworkID{domain.FrameworkOncogenicity, domain.FrameworkTherapeutic},
	}, true
}
