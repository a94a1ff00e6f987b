package domain

// ModulatingFactors records the inputs that adjusted a TierResult away from
// what the raw evidence alone would have produced (spec §3 "modulating
// factors (including DSC)").
type ModulatingFactors struct {
	DSC                *DSCScore `json:"dsc,omitempty"`
	DSCGateApplied     bool      `json:"dsc_gate_applied"`
	CancerTypeFallback bool      `json:"cancer_type_fallback"`
	FallbackSteps      int       `json:"fallback_steps,omitempty"`
}

// TierResult is the single output of one classification framework for one
// variant (spec §3, §4.7, §8 "exactly one TierResult per framework").
type TierResult struct {
	FrameworkID FrameworkID `json:"framework_id"`

	TherapeuticTier  TherapeuticTier  `json:"therapeutic_tier,omitempty"`
	OncogenicityCall OncogenicityCall `json:"oncogenicity_call,omitempty"`
	CuratedLevel     CuratedLevel     `json:"curated_level,omitempty"`

	// ScoreOrPoints is populated for the oncogenicity framework (the signed
	// point sum); spec §8 requires it equal the sum of contributing
	// Evidence points.
	ScoreOrPoints float64 `json:"score_or_points,omitempty"`

	ContributingEvidence []string          `json:"contributing_evidence_codes"`
	ModulatingFactors    ModulatingFactors `json:"modulating_factors"`
	Confidence           float64           `json:"confidence"`

	Rationale       string `json:"rationale"`
	Downgraded      bool   `json:"downgraded"`
	DowngradeReason string `json:"downgrade_reason,omitempty"`
}

// Label returns the tier/call/level currently set, whichever framework this
// result belongs to, for uniform logging and citation text.
func (t *TierResult) Label() string {
	switch t.FrameworkID {
	case FrameworkTherapeutic:
		return string(t.TherapeuticTier)
	case FrameworkOncogenicity:
		return string(t.OncogenicityCall)
	case FrameworkCurated:
		return string(t.CuratedLevel)
	default:
		return ""
	}
}

// ReconciliationNote records a cross-framework conflict surfaced by the
// Reconciler; conflicts are never promoted to errors (spec §4.8).
type ReconciliationNote struct {
	Code        string        `json:"code"`
	Description string        `json:"description"`
	Frameworks  []FrameworkID `json:"frameworks"`
}
