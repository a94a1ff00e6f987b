// Package normalize implements the Variant Normalizer (spec §4.1): assembly
// validation, multi-allelic splitting, indel left-alignment, variant-type
// classification, and the quality pre-filter.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clinprec/svi/internal/domain"
	"github.com/clinprec/svi/internal/ingest"
	"github.com/clinprec/svi/pkg/hgvs"
	"github.com/sirupsen/logrus"
)

// QualityThresholds are the depth/MQ/strand-bias/QD floors applied during
// the pre-filter step (spec §4.1 "§6 lists the exact thresholds"; these are
// the reference-quality floors, independent of the somatic-filter pathway
// thresholds applied later by internal/somaticfilter). No VAF floor is
// applied here; tumor VAF is first checked by internal/somaticfilter.
type QualityThresholds struct {
	MinTotalDepth      int
	MinMappingQuality  float64
	MaxFisherStrandBias float64
	MinQualByDepth     float64
}

// DefaultQualityThresholds mirrors common hard-QC floors used ahead of any
// pathway-specific filtering.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinTotalDepth:       8,
		MinMappingQuality:   20,
		MaxFisherStrandBias: 60,
		MinQualByDepth:      2,
	}
}

// Normalizer turns RawRecords into zero or more domain.Variant values.
type Normalizer struct {
	assembly   string
	thresholds QualityThresholds
	logger     *logrus.Logger
}

// NewNormalizer builds a Normalizer pinned to the configured reference
// assembly (spec §4.1 "reject records where the assembly does not match the
// configured reference").
func NewNormalizer(assembly string, thresholds QualityThresholds, logger *logrus.Logger) *Normalizer {
	return &Normalizer{assembly: assembly, thresholds: thresholds, logger: logger}
}

// Result is the Normalizer's output for one RawRecord.
type Result struct {
	Variants []*domain.Variant
	Filtered []domain.FilteredVariant
}

// Normalize applies the full algorithm of spec §4.1 to one raw record,
// given the genome-assembly identifier asserted by the input file.
func (n *Normalizer) Normalize(rec *ingest.RawRecord, recordAssembly string) (*Result, error) {
	if recordAssembly != "" && !strings.EqualFold(recordAssembly, n.assembly) {
		return nil, fmt.Errorf("record at line %d: %w (record=%s, configured=%s)", rec.Line, domain.ErrMismatchedAssembly, recordAssembly, n.assembly)
	}

	chrom := hgvs.NormalizeChromosome(rec.Chrom)
	if chrom == "" {
		n.logger.WithFields(logrus.Fields{"line": rec.Line, "chrom": rec.Chrom}).Warn("unknown chromosome, skipping record")
		return &Result{}, nil
	}

	alts := strings.Split(rec.Alt, ",")
	multiallelic := len(alts) > 1

	res := &Result{}
	for idx, alt := range alts {
		v, filtered, err := n.buildVariant(rec, chrom, alt, idx, multiallelic)
		if err != nil {
			n.logger.WithFields(logrus.Fields{"line": rec.Line, "allele_index": idx}).WithError(err).Warn("skipping malformed allele")
			continue
		}
		if filtered != nil {
			res.Filtered = append(res.Filtered, *filtered)
			continue
		}
		res.Variants = append(res.Variants, v)
	}
	return res, nil
}

func (n *Normalizer) buildVariant(rec *ingest.RawRecord, chrom, alt string, alleleIndex int, multiallelic bool) (*domain.Variant, *domain.FilteredVariant, error) {
	ref := rec.Ref
	origPos, origRef, origAlt := rec.Pos, ref, alt

	pos, nref, nalt := leftAlign(rec.Pos, ref, alt)

	v := &domain.Variant{
		Assembly:          n.assembly,
		Chromosome:        chrom,
		Position:          pos,
		Reference:         nref,
		Alternate:         nalt,
		OriginalPosition:  origPos,
		OriginalReference: origRef,
		OriginalAlternate: origAlt,
		Type:              classifyType(nref, nalt),
		Multiallelic:      multiallelic,
		AlleleIndex:       alleleIndex,
	}

	if err := n.populateSampleFields(rec, v); err != nil {
		return nil, nil, err
	}

	key := v.Key()
	if reason, ok := n.qualityFailureReason(v); ok {
		return nil, &domain.FilteredVariant{Key: key, Reason: reason, Phase: "normalize"}, nil
	}

	return v, nil, nil
}

// populateSampleFields extracts required FORMAT fields (spec §6.1: genotype,
// allelic depths, sample depth are required; their absence is a hard error).
func (n *Normalizer) populateSampleFields(rec *ingest.RawRecord, v *domain.Variant) error {
	gt, ok := rec.FormatValue("GT", false)
	if !ok {
		return fmt.Errorf("line %d: %w: missing GT", rec.Line, domain.ErrMissingRequiredField)
	}
	v.Genotype = gt

	ad, ok := rec.FormatValue("AD", false)
	if !ok {
		return fmt.Errorf("line %d: %w: missing AD", rec.Line, domain.ErrMissingRequiredField)
	}
	refD, altD, err := parseAD(ad)
	if err != nil {
		return fmt.Errorf("line %d: %w", rec.Line, err)
	}
	v.TumorAD = [2]int{refD, altD}
	if refD+altD > 0 {
		v.TumorVAF = float64(altD) / float64(refD+altD)
	}

	dp, ok := rec.FormatValue("DP", false)
	if !ok {
		return fmt.Errorf("line %d: %w: missing DP", rec.Line, domain.ErrMissingRequiredField)
	}
	depth, err := strconv.Atoi(dp)
	if err != nil {
		return fmt.Errorf("line %d: invalid DP %q: %w", rec.Line, dp, err)
	}
	v.TotalDepth = depth

	if rec.NormalValues != nil {
		if nad, ok := rec.FormatValue("AD", true); ok {
			if nrefD, naltD, err := parseAD(nad); err == nil {
				v.NormalAD = [2]int{nrefD, naltD}
				if nrefD+naltD > 0 {
					v.NormalVAF = float64(naltD) / float64(nrefD+naltD)
					v.HasNormalVAF = true
				}
			}
		}
	}

	// Recommended INFO fields (spec §6.1): absence is a warning, not an error.
	if mq, ok := rec.Info["MQ"]; ok {
		if f, err := strconv.ParseFloat(mq, 64); err == nil {
			v.MappingQuality = f
		}
	} else {
		n.logger.WithFields(logrus.Fields{"line": rec.Line}).Warn("missing recommended INFO field MQ")
	}
	if fs, ok := rec.Info["FS"]; ok {
		if f, err := strconv.ParseFloat(fs, 64); err == nil {
			v.FisherStrandBias = f
		}
	}
	if qd, ok := rec.Info["QD"]; ok {
		if f, err := strconv.ParseFloat(qd, 64); err == nil {
			v.QualByDepth = f
		}
	}
	v.Quality = rec.Qual

	return nil
}

func parseAD(ad string) (refD, altD int, err error) {
	parts := strings.Split(ad, ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("malformed AD %q", ad)
	}
	refD, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed AD ref depth %q", parts[0])
	}
	altD, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed AD alt depth %q", parts[1])
	}
	return refD, altD, nil
}

// qualityFailureReason applies the hard pre-filter (spec §4.1); this runs
// before pathway-specific somatic filtering.
func (n *Normalizer) qualityFailureReason(v *domain.Variant) (string, bool) {
	t := n.thresholds
	if v.TotalDepth < t.MinTotalDepth {
		return "insufficient_depth", true
	}
	if v.MappingQuality > 0 && v.MappingQuality < t.MinMappingQuality {
		return "low_mapping_quality", true
	}
	if t.MaxFisherStrandBias > 0 && v.FisherStrandBias > t.MaxFisherStrandBias {
		return "strand_bias", true
	}
	if v.QualByDepth > 0 && v.QualByDepth < t.MinQualByDepth {
		return "low_qual_by_depth", true
	}
	return "", false
}

// classifyType derives VariantType from (len(ref), len(alt)) per spec §4.1.
func classifyType(ref, alt string) domain.VariantType {
	switch {
	case len(ref) == 1 && len(alt) == 1:
		return domain.VariantSNV
	case len(ref) == len(alt) && len(ref) > 1:
		return domain.VariantMNV
	case len(ref) < len(alt) && strings.HasPrefix(alt, ref):
		return domain.VariantInsertion
	case len(ref) > len(alt) && strings.HasPrefix(ref, alt):
		return domain.VariantDeletion
	default:
		return domain.VariantComplex
	}
}

// leftAlign normalizes (pos, ref, alt) by trimming the shared suffix then
// the shared prefix, re-anchoring on a single base where the resulting
// allele would otherwise be empty. This is the standard reference-free VCF
// normalization transform; idempotent by construction (spec §8 "applying it
// to an already-left-aligned Variant produces an identical Variant").
func leftAlign(pos int64, ref, alt string) (int64, string, string) {
	for len(ref) > 1 && len(alt) > 1 && ref[len(ref)-1] == alt[len(alt)-1] {
		ref = ref[:len(ref)-1]
		alt = alt[:len(alt)-1]
	}
	for len(ref) > 1 && len(alt) > 1 && ref[0] == alt[0] {
		ref = ref[1:]
		alt = alt[1:]
		pos++
	}
	return pos, ref, alt
}
