// Package pipeline implements the concurrency and resource model of spec
// §5: coarse-grained parallelism across variants, strictly sequential
// phases within one variant (annotate -> filter -> aggregate -> DSC ->
// classify -> reconcile -> synthesize; variants arrive already normalized),
// cooperative cancellation at phase boundaries,
// and a per-variant wall-clock timeout budget.
package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/clinprec/svi/internal/domain"
	"github.com/clinprec/svi/internal/dsc"
	"github.com/clinprec/svi/internal/somaticfilter"
)

// dscFilterFloor is the DSC value below which a tumor-only variant is
// removed from reporting entirely rather than downgraded to a lower
// therapeutic tier (spec §4.5 tiering gate).
const dscFilterFloor = 0.2

// Dependencies bundles the phase implementations a Runner drives. All
// fields are read-only, shared across workers (spec §5 "Reference data:
// read-only, shared").
type Dependencies struct {
	Filter       *somaticfilter.Filter
	Annotator    domain.AnnotatorClient
	Aggregator   domain.Aggregator
	Classifiers  []domain.Classifier
	DSCScorer    *dsc.Scorer
	Reconciler   domain.Reconciler
	Synthesizer  domain.Synthesizer
	Logger       *logrus.Logger
}

// Runner executes the per-variant pipeline across a bounded worker pool
// (spec §5 "Parallel worker threads, each pulling variants from a bounded
// input queue").
type Runner struct {
	deps    Dependencies
	workers int
	timeout time.Duration
	sem     *semaphore.Weighted
}

// NewRunner builds a Runner. workers <= 0 defaults to 1; timeout <= 0
// disables the per-variant budget (not recommended outside tests).
func NewRunner(deps Dependencies, workers int, timeout time.Duration) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{deps: deps, workers: workers, timeout: timeout, sem: semaphore.NewWeighted(int64(workers))}
}

// Run processes every variant concurrently, bounded to r.workers in-flight
// at a time, and returns one InterpretationBundle per input variant. Variants
// may finish in any order, but bundles[i] always belongs to variants[i], so
// the returned slice follows input order.
func (r *Runner) Run(ctx context.Context, variants []*domain.Variant, pw *domain.PathwayConfig, purity *domain.PurityEstimate) []*domain.InterpretationBundle {
	bundles := make([]*domain.InterpretationBundle, len(variants))

	done := make(chan struct{}, len(variants))
	for i, v := range variants {
		i, v := i, v
		if err := r.sem.Acquire(ctx, 1); err != nil {
			bundles[i] = cancelledBundle(v)
			done <- struct{}{}
			continue
		}
		go func() {
			defer r.sem.Release(1)
			bundles[i] = r.processOne(ctx, v, pw, purity)
			done <- struct{}{}
		}()
	}
	for range variants {
		<-done
	}
	return bundles
}

// processOne runs the strictly sequential per-variant phase chain with a
// wall-clock budget (spec §5 "Timeouts").
func (r *Runner) processOne(parent context.Context, v *domain.Variant, pw *domain.PathwayConfig, purity *domain.PurityEstimate) *domain.InterpretationBundle {
	start := time.Now()
	ctx := parent
	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, r.timeout)
		defer cancel()
	}

	bundle := &domain.InterpretationBundle{
		BundleID:    v.Key().String(),
		Variant:     v,
		PathwayUsed: pw,
		Purity:      purity,
	}

	if err := ctx.Err(); err != nil {
		return timeoutOrCancelled(bundle, v, start)
	}

	var fa *domain.FunctionalAnnotation
	if r.deps.Annotator != nil {
		var annotateErr error
		fa, annotateErr = r.deps.Annotator.Annotate(ctx, v)
		if annotateErr != nil {
			bundle.Errors = append(bundle.Errors, domain.NewPipelineError(
				domain.ErrCodeAnnotatorFailure, "annotate", v.Key(), annotateErr.Error()))
			r.logf(logrus.Fields{"variant": v.Key().String(), "phase": "annotate", "error": annotateErr}, "annotator call failed, continuing with partial evidence")
		}
		if fa != nil {
			v.MaxPopulationAF = fa.MaxPopulationAF()
		}
	}

	decision, err := r.deps.Filter.Evaluate(ctx, v, pw, fa)
	if err != nil {
		bundle.Errors = append(bundle.Errors, domain.NewPipelineError(
			domain.ErrCodeClassification, "filter", v.Key(), err.Error()))
		bundle.Status = domain.BundlePartial
		bundle.ProcessingTime = time.Since(start)
		return bundle
	}
	if !decision.Survives {
		bundle.Status = domain.BundleFiltered
		bundle.ProcessingTime = time.Since(start)
		return bundle
	}
	v.HotspotRescued = decision.HotspotRescued

	if ctx.Err() != nil {
		return timeoutOrCancelled(bundle, v, start)
	}

	evidence, err := r.deps.Aggregator.Aggregate(ctx, v, fa, pw)
	if err != nil {
		bundle.Errors = append(bundle.Errors, domain.NewPipelineError(
			domain.ErrCodeClassification, "aggregate", v.Key(), err.Error()))
		bundle.Status = domain.BundlePartial
		bundle.ProcessingTime = time.Since(start)
		return bundle
	}
	bundle.Evidence = evidence

	if ctx.Err() != nil {
		return timeoutOrCancelled(bundle, v, start)
	}

	var dscScore *domain.DSCScore
	if pw.AnalysisType == domain.TumorOnly && r.deps.DSCScorer != nil {
		score := r.deps.DSCScorer.Score(v, purity, dsc.PriorInputs{
			IsHotspot:       v.HotspotRescued,
			MaxPopulationAF: v.MaxPopulationAF,
		})
		dscScore = &score
		bundle.DSC = dscScore

		if score.Value < dscFilterFloor {
			// Below the tiering gate entirely (spec §4.5): too low
			// confidence in a somatic call to report at all, not merely a
			// lower therapeutic tier.
			bundle.Status = domain.BundleFiltered
			bundle.ProcessingTime = time.Since(start)
			return bundle
		}
	}

	results := make(map[domain.FrameworkID]*domain.TierResult, len(r.deps.Classifiers))
	for _, c := range r.deps.Classifiers {
		if ctx.Err() != nil {
			return timeoutOrCancelled(bundle, v, start)
		}
		result, err := c.Classify(ctx, v, evidence, pw, dscScore)
		if err != nil {
			bundle.Errors = append(bundle.Errors, domain.NewPipelineError(
				domain.ErrCodeClassification, "classify:"+string(c.Framework()), v.Key(), err.Error()))
			continue
		}
		results[c.Framework()] = result
	}
	bundle.Results = results

	if ctx.Err() != nil {
		return timeoutOrCancelled(bundle, v, start)
	}

	var notes []domain.ReconciliationNote
	if r.deps.Reconciler != nil {
		// Reconcile mutates the TierResult pointers in results in place and
		// its output is authoritative; there is no classifier re-run (spec
		// §4.8 "at most one reconciliation pass").
		notes = r.deps.Reconciler.Reconcile(results)
	}
	bundle.Notes = notes

	if ctx.Err() != nil {
		return timeoutOrCancelled(bundle, v, start)
	}

	if r.deps.Synthesizer != nil {
		bundle.Texts = r.deps.Synthesizer.Synthesize(v, results, evidence, dscScore, notes)
	}

	if len(bundle.Errors) > 0 {
		bundle.Status = domain.BundlePartial
	} else {
		bundle.Status = domain.BundleComplete
	}
	bundle.ProcessingTime = time.Since(start)
	return bundle
}

func timeoutOrCancelled(bundle *domain.InterpretationBundle, v *domain.Variant, start time.Time) *domain.InterpretationBundle {
	bundle.Status = domain.BundleTimeout
	bundle.Errors = append(bundle.Errors, domain.NewPipelineError(
		domain.ErrCodeTimeout, "pipeline", v.Key(), "per-variant wall-clock budget exceeded"))
	bundle.ProcessingTime = time.Since(start)
	return bundle
}

func (r *Runner) logf(fields logrus.Fields, msg string) {
	if r.deps.Logger == nil {
		return
	}
	r.deps.Logger.WithFields(fields).Warn(msg)
}

func cancelledBundle(v *domain.Variant) *domain.InterpretationBundle {
	return &domain.InterpretationBundle{
		BundleID: v.Key().String(),
		Variant:  v,
		Status:   domain.BundleTimeout,
		Errors: []*domain.PipelineError{domain.NewPipelineError(
			domain.ErrCodeTimeout, "pipeline", v.Key(), "run cancelled before this variant started")},
	}
}
