// Command annotate runs the clinical somatic variant interpretation engine
// end to end over one variant-call file (spec §6.7).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/clinprec/svi/internal/annotate"
	"github.com/clinprec/svi/internal/classify"
	"github.com/clinprec/svi/internal/config"
	"github.com/clinprec/svi/internal/dsc"
	"github.com/clinprec/svi/internal/domain"
	"github.com/clinprec/svi/internal/evidence"
	"github.com/clinprec/svi/internal/ingest"
	"github.com/clinprec/svi/internal/kb"
	"github.com/clinprec/svi/internal/normalize"
	"github.com/clinprec/svi/internal/pipeline"
	"github.com/clinprec/svi/internal/purity"
	"github.com/clinprec/svi/internal/reconcile"
	"github.com/clinprec/svi/internal/router"
	"github.com/clinprec/svi/internal/somaticfilter"
	"github.com/clinprec/svi/internal/synth"
)

// Exit codes (spec §6.7).
const (
	exitSuccess          = 0
	exitOther            = 1
	exitInputValidation  = 2
	exitReferenceMismatch = 3
	exitRuntimeTimeout    = 4
)

// ponArtifactThreshold is the panel-of-normals observation count above which
// a tumor-only candidate fails the panel-of-normals check; a hotspot variant
// can still be rescued (spec §4.3). PathwayDefaults has no dedicated knob for it, so it
// is fixed here rather than invented as a new config key.
const ponArtifactThreshold = 2

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

var (
	flagInput        string
	flagCancerType   string
	flagAnalysisType string
	flagNormalVCF    string
	flagTumorPurity  float64
	flagPurityFile   string
	flagPON          string
	flagOutput       string
	flagKBSnapshot   string
)

func main() {
	root := &cobra.Command{
		Use:   "annotate",
		Short: "Interpret somatic variants against the AMP/VICC/curated frameworks",
		RunE:  run,
	}
	root.Flags().StringVar(&flagInput, "input", "", "tumor variant-call file (VCF, optionally gzipped)")
	root.Flags().StringVar(&flagCancerType, "cancer-type", "", "cancer-type code used to resolve the pathway and cancer-type patch")
	root.Flags().StringVar(&flagAnalysisType, "analysis-type", "", "tumor-only or tumor-normal")
	root.Flags().StringVar(&flagNormalVCF, "normal-vcf", "", "matched normal variant-call file (tumor-normal only)")
	root.Flags().Float64Var(&flagTumorPurity, "tumor-purity", 0, "sample tumor purity, 0..1 (overridden by --purity-file if both given)")
	root.Flags().StringVar(&flagPurityFile, "purity-file", "", "upstream purity-estimate file")
	root.Flags().StringVar(&flagPON, "pon", "", "panel-of-normals file (tumor-only only)")
	root.Flags().StringVar(&flagOutput, "output", "-", "output path for bundles, \"-\" for stdout")
	root.Flags().StringVar(&flagKBSnapshot, "kb-snapshot", "", "knowledge-base version label recorded on the run header")
	root.MarkFlagRequired("input")
	root.MarkFlagRequired("cancer-type")
	root.MarkFlagRequired("analysis-type")

	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		var ee *exitError
		if e, ok := err.(*exitError); ok {
			ee = e
		} else {
			ee = &exitError{code: exitOther, err: err}
		}
		fmt.Fprintln(os.Stderr, "annotate:", ee.err)
		os.Exit(ee.code)
	}
}

func run(cmd *cobra.Command, args []string) error {
	analysisType := domain.AnalysisType(flagAnalysisType)
	if analysisType != domain.TumorOnly && analysisType != domain.TumorNormal {
		return &exitError{code: exitInputValidation, err: fmt.Errorf("--analysis-type must be %q or %q", domain.TumorOnly, domain.TumorNormal)}
	}
	if flagTumorPurity < 0 || flagTumorPurity > 1 {
		return &exitError{code: exitInputValidation, err: fmt.Errorf("--tumor-purity must be in [0,1]")}
	}

	mgr, err := config.NewManager()
	if err != nil {
		return &exitError{code: exitOther, err: err}
	}
	if err := mgr.Validate(); err != nil {
		return &exitError{code: exitOther, err: err}
	}
	cfg := mgr.GetConfig()

	log := newLogger(cfg.Logging)

	kbBundle, err := openKnowledgeBases(cfg.KnowledgeBases)
	if err != nil {
		return &exitError{code: exitOther, err: fmt.Errorf("opening reference data: %w", err)}
	}

	normalizer := normalize.NewNormalizer(kbSnapshotAssembly(cfg), normalize.DefaultQualityThresholds(), log)

	reader, err := ingest.NewReader(flagInput)
	if err != nil {
		return &exitError{code: exitInputValidation, err: err}
	}
	defer reader.Close()

	var normalSamples map[string]*ingest.RawRecord
	if flagNormalVCF != "" {
		normalSamples, err = loadNormalSamples(flagNormalVCF)
		if err != nil {
			return &exitError{code: exitInputValidation, err: err}
		}
	}

	variants, filtered, err := readAllVariants(reader, normalizer, normalSamples)
	if err != nil {
		if errors.Is(err, domain.ErrMismatchedAssembly) {
			return &exitError{code: exitReferenceMismatch, err: err}
		}
		return &exitError{code: exitInputValidation, err: err}
	}

	var pon *ingest.PanelOfNormals
	if flagPON != "" {
		pon, err = ingest.LoadPanelOfNormals(flagPON)
		if err != nil {
			return &exitError{code: exitInputValidation, err: err}
		}
	} else {
		pon, _ = ingest.LoadPanelOfNormals("")
	}

	purityEstimate, err := resolvePurity(variants)
	if err != nil {
		return &exitError{code: exitInputValidation, err: err}
	}

	annotateSampleLevelFields(variants, flagCancerType, cfg.Incidental)

	rt := router.NewRouter(cfg.Pathways, kbPriorityOrder(), nil)
	pathway := rt.Route(analysisType, flagCancerType)

	hotspotAdapter := kb.NewHotspotAdapter(kbBundle.hotspot)
	filter := somaticfilter.NewFilter(hotspotAdapter, pon, ponArtifactThreshold)

	annotatorClient := buildAnnotatorClient(cfg, log)
	agg := evidence.NewAggregator(kbBundle.all(), log)

	deps := pipeline.Dependencies{
		Filter:     filter,
		Annotator:  annotatorClient,
		Aggregator: agg,
		Classifiers: []domain.Classifier{
			classify.NewOncogenicityClassifier(),
			classify.NewTherapeuticClassifier(),
			classify.NewCuratedLevelClassifier(),
		},
		DSCScorer:   dsc.NewScorer(dsc.EqualThirdWeights()),
		Reconciler:  reconcile.New(),
		Synthesizer: synth.New(0),
		Logger:      log,
	}
	runner := pipeline.NewRunner(deps, cfg.Pipeline.Workers, cfg.Pipeline.PerVariantTimeout)

	ctx := context.Background()
	bundles := runner.Run(ctx, variants, pathway, &purityEstimate)

	header := buildHeader(analysisType, flagCancerType, cfg.KnowledgeBases, kbBundle, len(variants), bundles)

	if err := writeOutput(flagOutput, header, bundles, filtered); err != nil {
		return &exitError{code: exitOther, err: err}
	}

	if header.TimedOut > 0 {
		return &exitError{code: exitRuntimeTimeout, err: fmt.Errorf("%d of %d variants exceeded the per-variant timeout budget", header.TimedOut, header.TotalVariants)}
	}
	return nil // exitSuccess
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.Output == "stderr" {
		log.SetOutput(os.Stderr)
	}
	return log
}

type knowledgeBases struct {
	populationFrequency *kb.RangeKB
	hotspot              *kb.RangeKB
	curatedLevel         *kb.ExactKB
	geneRole              *kb.ExactKB
	clinicalSignificance *kb.ExactKB
}

func (k *knowledgeBases) all() []domain.KnowledgeBase {
	return []domain.KnowledgeBase{k.populationFrequency, k.hotspot, k.curatedLevel, k.geneRole, k.clinicalSignificance}
}

func openKnowledgeBases(cfg domain.KBConfig) (*knowledgeBases, error) {
	popFreq, err := kb.OpenPopulationFrequencyKB(cfg.PopulationFrequencyDuckDB, cfg.Version, cfg.IORateLimitHz)
	if err != nil {
		return nil, fmt.Errorf("population_frequency: %w", err)
	}
	hotspot, err := kb.OpenHotspotKB(cfg.HotspotDuckDB, cfg.Version, cfg.IORateLimitHz)
	if err != nil {
		return nil, fmt.Errorf("hotspot: %w", err)
	}
	curated, err := kb.OpenCuratedLevelKB(cfg.CuratedLevelSQLite, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("curated_level: %w", err)
	}
	geneRole, err := kb.OpenGeneRoleKB(cfg.GeneRoleSQLite, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("gene_role: %w", err)
	}
	clinSig, err := kb.OpenClinicalSignificanceKB(cfg.ClinicalSignificanceSQLite, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("clinical_significance: %w", err)
	}
	return &knowledgeBases{
		populationFrequency: popFreq,
		hotspot:              hotspot,
		curatedLevel:         curated,
		geneRole:              geneRole,
		clinicalSignificance: clinSig,
	}, nil
}

func kbPriorityOrder() []string {
	return []string{"curated_level", "clinical_significance", "hotspot", "gene_role", "population_frequency"}
}

// kbSnapshotAssembly resolves the genome assembly the Normalizer checks the
// input file against. The assembly is not part of KBConfig; in the absence
// of a dedicated configuration knob it is read from the SVI_ASSEMBLY
// environment variable, defaulting to GRCh38.
func kbSnapshotAssembly(cfg *domain.Config) string {
	if a := os.Getenv("SVI_ASSEMBLY"); a != "" {
		return a
	}
	return "GRCh38"
}

// readAllVariants drains the tumor variant-call file, merging in matched
// normal-sample FORMAT values from a separate --normal-vcf file when the
// tumor file carries no paired normal column of its own.
func readAllVariants(reader *ingest.Reader, normalizer *normalize.Normalizer, normalSamples map[string]*ingest.RawRecord) ([]*domain.Variant, []domain.FilteredVariant, error) {
	var variants []*domain.Variant
	var filtered []domain.FilteredVariant
	for {
		rec, err := reader.Next()
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			break
		}
		if rec.NormalValues == nil && normalSamples != nil {
			if nrec, ok := normalSamples[variantCallKey(rec)]; ok && sameFormatKeys(rec.FormatKeys, nrec.FormatKeys) {
				rec.NormalValues = nrec.TumorValues
			}
		}
		res, err := normalizer.Normalize(rec, "")
		if err != nil {
			return nil, nil, err
		}
		variants = append(variants, res.Variants...)
		filtered = append(filtered, res.Filtered...)
	}
	return variants, filtered, nil
}

// loadNormalSamples reads a standalone matched-normal variant-call file,
// indexed by chrom:pos:ref:alt so its FORMAT column can be merged into the
// tumor file's records at the matching site.
func loadNormalSamples(path string) (map[string]*ingest.RawRecord, error) {
	reader, err := ingest.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("open normal variant-call file: %w", err)
	}
	defer reader.Close()

	out := map[string]*ingest.RawRecord{}
	for {
		rec, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		out[variantCallKey(rec)] = rec
	}
	return out, nil
}

func variantCallKey(rec *ingest.RawRecord) string {
	return fmt.Sprintf("%s:%d:%s:%s", rec.Chrom, rec.Pos, rec.Ref, rec.Alt)
}

func sameFormatKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// annotateSampleLevelFields denormalizes sample-wide fields onto each
// Variant that the Text Synthesizer needs but the Synthesizer interface
// does not receive directly (spec §4.9 blocks 2 and 5).
func annotateSampleLevelFields(variants []*domain.Variant, cancerType string, incidental domain.IncidentalConfig) {
	incidentalGenes := map[string]bool{}
	if incidental.Enabled {
		for _, g := range incidental.Genes {
			incidentalGenes[g] = true
		}
	}
	for _, v := range variants {
		v.CancerTypeLabel = cancerType
		v.IsIncidentalFindingsGene = incidentalGenes[v.GeneSymbol]
	}
}

func resolvePurity(variants []*domain.Variant) (domain.PurityEstimate, error) {
	est := purity.NewEstimator(0.1, 20)

	var upstream *domain.PurityEstimate
	if flagPurityFile != "" {
		pf, err := ingest.LoadPurityEstimateFile(flagPurityFile)
		if err != nil {
			return domain.PurityEstimate{}, err
		}
		upstream = &domain.PurityEstimate{Value: pf.Value, Confidence: pf.Confidence, Source: domain.PuritySourceUpstream}
	}

	var metadataPurity *float64
	if flagTumorPurity > 0 {
		metadataPurity = &flagTumorPurity
	}

	return est.Estimate(upstream, metadataPurity, variants), nil
}

func buildAnnotatorClient(cfg *domain.Config, log *logrus.Logger) domain.AnnotatorClient {
	httpClient := annotate.NewHTTPClient(cfg.Annotator.Endpoint, cfg.Annotator.Timeout)

	var cache *annotate.Cache
	if cfg.Cache.Enabled {
		c, err := annotate.NewCache(cfg.Cache.RedisURL, cfg.Cache.AnnotatorTTL, cfg.Cache.PoolSize)
		if err != nil {
			log.WithError(err).Warn("annotator cache unavailable, continuing without it")
		} else {
			cache = c
		}
	}

	return annotate.NewResilientClient(httpClient, annotate.BreakerConfig{
		MaxRequests:  cfg.Annotator.BreakerMaxRequests,
		Interval:     cfg.Annotator.BreakerInterval,
		Timeout:      cfg.Annotator.BreakerTimeout,
		FailureRatio: cfg.Annotator.BreakerFailureRatio,
	}, cache, log)
}

func buildHeader(analysisType domain.AnalysisType, cancerType string, kbCfg domain.KBConfig, kbs *knowledgeBases, total int, bundles []*domain.InterpretationBundle) domain.ReproducibilityHeader {
	h := domain.ReproducibilityHeader{
		RunID:         uuid.NewString(),
		StartedAt:     time.Now(),
		AnalysisType:  analysisType,
		CancerType:    cancerType,
		TotalVariants: total,
		KnowledgeBases: []domain.KBDescriptor{
			{Name: kbs.populationFrequency.Name(), Version: kbs.populationFrequency.Version(), Shape: kbs.populationFrequency.Shape(), Path: kbCfg.PopulationFrequencyDuckDB},
			{Name: kbs.hotspot.Name(), Version: kbs.hotspot.Version(), Shape: kbs.hotspot.Shape(), Path: kbCfg.HotspotDuckDB},
			{Name: kbs.curatedLevel.Name(), Version: kbs.curatedLevel.Version(), Shape: kbs.curatedLevel.Shape(), Path: kbCfg.CuratedLevelSQLite},
			{Name: kbs.geneRole.Name(), Version: kbs.geneRole.Version(), Shape: kbs.geneRole.Shape(), Path: kbCfg.GeneRoleSQLite},
			{Name: kbs.clinicalSignificance.Name(), Version: kbs.clinicalSignificance.Version(), Shape: kbs.clinicalSignificance.Shape(), Path: kbCfg.ClinicalSignificanceSQLite},
		},
	}
	if flagKBSnapshot != "" {
		for i := range h.KnowledgeBases {
			h.KnowledgeBases[i].Version = flagKBSnapshot
		}
	}
	for _, b := range bundles {
		switch b.Status {
		case domain.BundleComplete, domain.BundlePartial:
			h.Completed++
		case domain.BundleFiltered:
			h.Filtered++
		case domain.BundleTimeout:
			h.TimedOut++
		case domain.BundleFailed:
			h.Failed++
		}
	}
	return h
}

type runOutput struct {
	Header           domain.ReproducibilityHeader   `json:"header"`
	Bundles          []*domain.InterpretationBundle `json:"bundles"`
	FilteredVariants []domain.FilteredVariant       `json:"filtered_variants,omitempty"`
}

func writeOutput(path string, header domain.ReproducibilityHeader, bundles []*domain.InterpretationBundle, filtered []domain.FilteredVariant) error {
	out := runOutput{Header: header, Bundles: bundles, FilteredVariants: filtered}

	w := os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
