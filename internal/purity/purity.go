// Package purity implements the Purity Estimator (spec §4.4): priority
// selection between an upstream estimate, user-supplied metadata, or a
// VAF-peak-derived estimate from a mixture model over heterozygous SNVs.
package purity

import (
	"math"
	"sort"

	"github.com/clinprec/svi/internal/domain"
)

// Estimator derives tumor purity in priority order: upstream structured
// output, then metadata, then VAF-peak analysis (spec §4.4).
type Estimator struct {
	minVAFPeakQuality float64
	minMappingQuality float64
}

// NewEstimator builds an Estimator. Variants below the given VAF/MQ floors
// are excluded from VAF-peak histogram construction.
func NewEstimator(minVAFPeakQuality, minMappingQuality float64) *Estimator {
	return &Estimator{minVAFPeakQuality: minVAFPeakQuality, minMappingQuality: minMappingQuality}
}

// Estimate resolves a PurityEstimate using the spec §4.4 priority order.
// upstream and metadata are both optional (nil / nil pointer means absent).
func (e *Estimator) Estimate(upstream *domain.PurityEstimate, metadataPurity *float64, candidates []*domain.Variant) domain.PurityEstimate {
	if upstream != nil {
		est := *upstream
		est.Source = domain.PuritySourceUpstream
		return est
	}
	if metadataPurity != nil {
		return domain.PurityEstimate{Value: clamp01(*metadataPurity), Source: domain.PuritySourceMetadata, Confidence: 1.0}
	}
	return e.estimateFromVAFPeaks(candidates)
}

// estimateFromVAFPeaks builds a VAF histogram over high-quality heterozygous
// SNVs and evaluates three mixture hypotheses: het-diploid (peak at
// purity/2), LOH (peak at purity), and subclonal mixture (multiple peaks)
// (spec §4.4).
func (e *Estimator) estimateFromVAFPeaks(candidates []*domain.Variant) domain.PurityEstimate {
	vafs := e.collectCandidateVAFs(candidates)
	if len(vafs) == 0 {
		return domain.PurityEstimate{Value: 0, Source: domain.PuritySourceVAFPeak, Confidence: 0}
	}

	peaks := findPeaks(vafs, 0.05)
	if len(peaks) == 0 {
		mean := meanOf(vafs)
		return domain.PurityEstimate{Value: clamp01(mean * 2), Source: domain.PuritySourceVAFPeak, Confidence: 0.2, PeakVAFs: vafs}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(peaks)))
	dominant := peaks[0]

	// Hypothesis selection: a dominant peak above ~0.4 is more consistent
	// with LOH (peak at purity) than het-diploid (peak at purity/2); below
	// that, assume het-diploid unless multiple comparable peaks indicate a
	// subclonal mixture.
	var value float64
	switch {
	case len(peaks) >= 2 && peaksComparable(peaks):
		value = dominant * 2 // subclonal mixture: treat the dominant clone as het-diploid
	case dominant > 0.40:
		value = dominant // LOH hypothesis
	default:
		value = dominant * 2 // het-diploid hypothesis
	}

	confidence := peakSharpness(vafs, dominant)
	return domain.PurityEstimate{Value: clamp01(value), Source: domain.PuritySourceVAFPeak, Confidence: confidence, PeakVAFs: peaks}
}

func (e *Estimator) collectCandidateVAFs(candidates []*domain.Variant) []float64 {
	var vafs []float64
	for _, v := range candidates {
		if v.Type != domain.VariantSNV {
			continue
		}
		if v.MappingQuality > 0 && v.MappingQuality < e.minMappingQuality {
			continue
		}
		if v.TumorVAF < e.minVAFPeakQuality {
			continue
		}
		vafs = append(vafs, v.TumorVAF)
	}
	return vafs
}

// findPeaks buckets VAFs into a coarse histogram and returns bucket
// midpoints whose density exceeds a simple threshold relative to the
// densest bucket, approximating local maxima of a mixture density.
func findPeaks(vafs []float64, bucketWidth float64) []float64 {
	buckets := map[int]int{}
	for _, v := range vafs {
		b := int(math.Round(v / bucketWidth))
		buckets[b]++
	}
	maxCount := 0
	for _, c := range buckets {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return nil
	}
	var peaks []float64
	for b, c := range buckets {
		if float64(c) >= 0.6*float64(maxCount) {
			peaks = append(peaks, float64(b)*bucketWidth)
		}
	}
	return peaks
}

func peaksComparable(peaks []float64) bool {
	if len(peaks) < 2 {
		return false
	}
	return peaks[1] >= peaks[0]*0.5
}

// peakSharpness approximates confidence from how tightly VAFs cluster
// around the dominant peak (spec §4.4 "confidence value derived from peak
// sharpness"); confidence < 0.3 signals the DSC VAF/purity component should
// discount this estimate.
func peakSharpness(vafs []float64, peak float64) float64 {
	if len(vafs) < 3 {
		return 0.2
	}
	var sumSq float64
	for _, v := range vafs {
		d := v - peak
		sumSq += d * d
	}
	variance := sumSq / float64(len(vafs))
	// Map variance to (0,1]: tighter clustering (lower variance) -> higher confidence.
	return clamp01(1.0 / (1.0 + variance*40))
}

func meanOf(vafs []float64) float64 {
	var sum float64
	for _, v := range vafs {
		sum += v
	}
	return sum / float64(len(vafs))
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
