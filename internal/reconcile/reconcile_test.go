package reconcile

import (
	"testing"

	"github.com/clinprec/svi/internal/domain"
)

func TestCuratedLevelTwoSatisfiesOS1(t *testing.T) {
	r := New()
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkCurated:      {FrameworkID: domain.FrameworkCurated, CuratedLevel: domain.Level2},
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.OncogenicityVUS},
	}
	notes := r.Reconcile(results)
	if !containsCode(notes, "RECON-CURATED-OS1") {
		t.Errorf("expected RECON-CURATED-OS1 note, got %+v", notes)
	}
}

func TestCuratedLevelThreeDoesNotSatisfyOS1(t *testing.T) {
	r := New()
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkCurated:      {FrameworkID: domain.FrameworkCurated, CuratedLevel: domain.Level3A},
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.OncogenicityVUS},
	}
	notes := r.Reconcile(results)
	if containsCode(notes, "RECON-CURATED-OS1") {
		t.Errorf("did not expect RECON-CURATED-OS1 note for level 3A, got %+v", notes)
	}
}

func TestOncogenicWithNoTherapyForcesTierIII(t *testing.T) {
	r := New()
	therapeutic := &domain.TierResult{FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierIV}
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.Oncogenic},
		domain.FrameworkTherapeutic:  therapeutic,
	}
	notes := r.Reconcile(results)
	if !containsCode(notes, "RECON-ONCOGENIC-TIER-III") {
		t.Errorf("expected RECON-ONCOGENIC-TIER-III note, got %+v", notes)
	}
	if therapeutic.TherapeuticTier != domain.TierIII {
		t.Errorf("expected TherapeuticTier overridden to TierIII, got %v", therapeutic.TherapeuticTier)
	}
}

func TestOncogenicWithCommonVariantOverrideIsNotForced(t *testing.T) {
	r := New()
	therapeutic := &domain.TierResult{
		FrameworkID: domain.FrameworkTherapeutic, TherapeuticTier: domain.TierIV,
		Rationale: "maximum continental allele frequency exceeds the 5% common-variant threshold",
	}
	results := map[domain.FrameworkID]*domain.TierResult{
		domain.FrameworkOncogenicity: {FrameworkID: domain.FrameworkOncogenicity, OncogenicityCall: domain.Oncogenic},
		domain.FrameworkTherapeutic:  therapeutic,
	}
	notes := r.Reconcile(results)
	if containsCode(notes, "RECON-ONCOGENIC-TIER-III") {
		t.Errorf("did not expect override when standalone population rule applies, got %+v", notes)
	}
	if therapeutic.TherapeuticTier != domain.TierIV {
		t.Errorf("expected TierIV preserved, got %v", therapeutic.TherapeuticTier)
	}
}

func containsCode(notes []domain.ReconciliationNote, code string) bool {
	for _, n := range notes {
		if n.Code == code {
			return true
		}
	}
	return false
}
