package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clinprec/svi/internal/domain"
)

// SampleMetadata is the sample metadata object of spec §6.1. CancerTypeCode
// is required for full functionality; its absence is not a validation error.
// The Workflow Router has no separate pan-cancer pathway: an empty cancer
// type is routed with no cancer-type patch.
type SampleMetadata struct {
	PatientID      string                `json:"patient_id"`
	CaseID         string                `json:"case_id"`
	CancerTypeCode string                `json:"cancer_type_code"`
	Tissue         string                `json:"tissue"`
	AnalysisType   domain.AnalysisType   `json:"analysis_type"`
	TumorPurity    *float64              `json:"tumor_purity,omitempty"`
	SpecimenType   string                `json:"specimen_type"`
}

// LoadSampleMetadata reads and validates a JSON sample-metadata file.
func LoadSampleMetadata(path string) (*SampleMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample metadata: %w", err)
	}
	var m SampleMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse sample metadata: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate enforces the required fields of spec §6.1. A missing cancer-type
// code is not an error.
func (m *SampleMetadata) Validate() error {
	if m.AnalysisType != domain.TumorOnly && m.AnalysisType != domain.TumorNormal {
		return fmt.Errorf("sample metadata: %w: analysis_type must be %q or %q", domain.ErrMissingRequiredField, domain.TumorOnly, domain.TumorNormal)
	}
	if m.TumorPurity != nil && (*m.TumorPurity < 0 || *m.TumorPurity > 1) {
		return fmt.Errorf("sample metadata: tumor_purity must be in [0,1], got %v", *m.TumorPurity)
	}
	return nil
}

// PurityEstimateFile is the optional upstream purity-estimate file (spec
// §6.1 "optional: ... upstream purity-estimate file").
type PurityEstimateFile struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// LoadPurityEstimateFile reads an upstream purity estimate, if provided.
func LoadPurityEstimateFile(path string) (*PurityEstimateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read purity estimate file: %w", err)
	}
	var pe PurityEstimateFile
	if err := json.Unmarshal(data, &pe); err != nil {
		return nil, fmt.Errorf("parse purity estimate file: %w", err)
	}
	return &pe, nil
}

// PanelOfNormals is a minimal set of variant keys observed recurrently in a
// panel of normal samples, used by the tumor-only Somatic Filter.
type PanelOfNormals struct {
	keys map[string]int // VariantKey.String() -> observation count
}

// LoadPanelOfNormals reads a panel-of-normals file: a JSON array of
// {"key": ..., "count": ...} objects, where key is "assembly:chrom:pos:ref>alt".
func LoadPanelOfNormals(path string) (*PanelOfNormals, error) {
	if path == "" {
		return &PanelOfNormals{keys: map[string]int{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read panel of normals: %w", err)
	}
	pon := &PanelOfNormals{keys: map[string]int{}}
	var rows []struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse panel of normals: %w", err)
	}
	for _, r := range rows {
		pon.keys[r.Key] = r.Count
	}
	return pon, nil
}

// Observations returns how many panel-of-normals samples carried this
// variant, 0 if absent.
func (p *PanelOfNormals) Observations(key domain.VariantKey) int {
	if p == nil {
		return 0
	}
	return p.keys[key.String()]
}
