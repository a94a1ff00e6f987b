package domain

import "context"

// KnowledgeBase is implemented by each reference-data backend (duckdb-backed
// range KBs, sqlite-backed exact-match KBs, and the in-memory test double).
// Lookup shape varies by KB; callers pass whichever key fields their
// QueryShape requires and ignore the rest (spec §3, §4.6).
type KnowledgeBase interface {
	Name() string
	Shape() QueryShape
	Version() string
	Lookup(ctx context.Context, v *Variant) ([]KnowledgeBaseHit, error)
}

// AnnotatorClient invokes the external functional-prediction annotator
// (spec §1). Implementations wrap network calls in a circuit breaker and an
// optional cache; when neither the annotator nor the cache can answer,
// Annotate returns an error rather than blocking the variant.
type AnnotatorClient interface {
	Annotate(ctx context.Context, v *Variant) (*FunctionalAnnotation, error)
}

// Aggregator converts raw KnowledgeBaseHits into Evidence for one variant,
// applying the evidence-mapping rule table and pathway weight multipliers
// (spec §4.6, §6.3, §6.4).
type Aggregator interface {
	Aggregate(ctx context.Context, v *Variant, fa *FunctionalAnnotation, pw *PathwayConfig) ([]Evidence, error)
}

// Classifier is implemented by each of the three classification frameworks
// (spec §4.7). A single Classify call must produce exactly one TierResult.
// dsc is non-nil whenever the Dynamic Somatic Confidence Scorer ran for this
// variant; the Therapeutic classifier uses it to gate Tier IA/IB/II under the
// tumor-only pathway (spec §4.7.1).
type Classifier interface {
	Framework() FrameworkID
	Classify(ctx context.Context, v *Variant, evidence []Evidence, pw *PathwayConfig, dsc *DSCScore) (*TierResult, error)
}

// Reconciler resolves conflicts across the three frameworks' TierResults
// into annotations, never errors (spec §4.8).
type Reconciler interface {
	Reconcile(results map[FrameworkID]*TierResult) []ReconciliationNote
}

// Synthesizer renders the eight canned-text blocks for a fully-classified
// variant (spec §4.9).
type Synthesizer interface {
	Synthesize(v *Variant, results map[FrameworkID]*TierResult, evidence []Evidence, dsc *DSCScore, notes []ReconciliationNote) []CannedText
}

// ConfigManager is the interface the CLI and pipeline depend on; satisfied
// by config.Manager.
type ConfigManager interface {
	GetConfig() *Config
	Reload() error
	Validate() error
}
