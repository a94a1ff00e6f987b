package domain

import "time"

// InterpretationBundle is the complete output for a single variant (spec §3,
// §6.6). A bundle is always emitted, even on a timeout or per-variant
// failure, so that a run's output count always matches its input count.
type InterpretationBundle struct {
	BundleID string     `json:"bundle_id"`
	Variant  *Variant   `json:"variant"`
	Status   BundleStatus `json:"status"`

	PathwayUsed *PathwayConfig `json:"pathway_used,omitempty"`
	Purity      *PurityEstimate `json:"purity,omitempty"`
	DSC         *DSCScore       `json:"dsc,omitempty"`

	Evidence []Evidence             `json:"evidence,omitempty"`
	Results  map[FrameworkID]*TierResult `json:"results,omitempty"`
	Notes    []ReconciliationNote   `json:"reconciliation_notes,omitempty"`
	Texts    []CannedText           `json:"canned_texts,omitempty"`

	IncidentalFindings []string `json:"incidental_findings,omitempty"`

	Errors []*PipelineError `json:"errors,omitempty"`

	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// BundleStatus summarizes how far a variant got through the pipeline
// (spec §7).
type BundleStatus string

const (
	BundleComplete BundleStatus = "complete"
	BundlePartial  BundleStatus = "partial"
	BundleFiltered BundleStatus = "filtered"
	BundleTimeout  BundleStatus = "timeout"
	BundleFailed   BundleStatus = "failed"
)

// ReproducibilityHeader is emitted once per run at the top of the output:
// the analysis type and cancer type the pathway was routed from, the
// knowledge-base version snapshot, and summary counts (spec §8
// "byte-identical... determinism"). It carries no threshold values; each
// bundle's PathwayUsed holds the resolved thresholds.
type ReproducibilityHeader struct {
	RunID          string         `json:"run_id"`
	StartedAt      time.Time      `json:"started_at"`
	AnalysisType   AnalysisType   `json:"analysis_type"`
	CancerType     string         `json:"cancer_type"`
	KnowledgeBases []KBDescriptor `json:"knowledge_bases"`
	TotalVariants  int            `json:"total_variants"`
	Completed      int            `json:"completed"`
	Filtered       int            `json:"filtered"`
	Failed         int            `json:"failed"`
	TimedOut       int            `json:"timed_out"`
}
